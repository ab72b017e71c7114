package router

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Kindred/internal/service"
	"Kindred/pkg/intro"
	"Kindred/pkg/snowflake"
	"Kindred/pkg/verifier"
)

type sessionEnvelope struct {
	Data struct {
		SessionID string `json:"session_id"`
		Version   int64  `json:"version"`
		Screen    struct {
			Name string `json:"name"`
			Step string `json:"step"`
		} `json:"screen"`
	} `json:"data"`
}

type errorEnvelope struct {
	Error struct {
		Code string `json:"code"`
	} `json:"error"`
}

func TestMain(m *testing.M) {
	if err := snowflake.Init(1, 1); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func newServer(t *testing.T) *server.Hertz {
	t.Helper()
	svc := service.InitFlow(service.FlowDeps{
		Intros:   intro.NewMockClient(0, 2),
		Verifier: verifier.NewMockClient(0, verifier.OutcomeSuccess),
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = svc.Shutdown(ctx)
	})

	h := server.New()
	Register(h)
	return h
}

func jsonBody(t *testing.T, v interface{}) *ut.Body {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return &ut.Body{Body: bytes.NewReader(b), Len: len(b)}
}

var jsonHeader = ut.Header{Key: "Content-Type", Value: "application/json"}

func decodeSession(t *testing.T, w *ut.ResponseRecorder) sessionEnvelope {
	t.Helper()
	var env sessionEnvelope
	require.NoError(t, json.Unmarshal(w.Result().Body(), &env), string(w.Result().Body()))
	return env
}

func decodeError(t *testing.T, w *ut.ResponseRecorder) string {
	t.Helper()
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(w.Result().Body(), &env), string(w.Result().Body()))
	return env.Error.Code
}

func createSession(t *testing.T, h *server.Hertz) string {
	t.Helper()
	w := ut.PerformRequest(h.Engine, http.MethodPost, "/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Result().StatusCode())
	env := decodeSession(t, w)
	require.NotEmpty(t, env.Data.SessionID)
	assert.Equal(t, "welcome", env.Data.Screen.Name)
	return env.Data.SessionID
}

func postEvent(t *testing.T, h *server.Hertz, id string, ev map[string]interface{}) *ut.ResponseRecorder {
	t.Helper()
	return ut.PerformRequest(h.Engine, http.MethodPost, "/v1/sessions/"+id+"/events", jsonBody(t, ev), jsonHeader)
}

func TestHealthzAndCatalog(t *testing.T) {
	h := newServer(t)

	w := ut.PerformRequest(h.Engine, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Result().StatusCode())
	assert.Contains(t, string(w.Result().Body()), `"status":"ok"`)

	w = ut.PerformRequest(h.Engine, http.MethodGet, "/v1/catalog", nil)
	assert.Equal(t, http.StatusOK, w.Result().StatusCode())
	assert.Contains(t, string(w.Result().Body()), "decline_reasons")
	assert.NotEmpty(t, w.Result().Header.Get("X-Request-ID"))
}

func TestSessionLifecycle(t *testing.T) {
	h := newServer(t)
	id := createSession(t, h)

	w := postEvent(t, h, id, map[string]interface{}{"type": "continue"})
	require.Equal(t, http.StatusOK, w.Result().StatusCode())
	env := decodeSession(t, w)
	assert.Equal(t, "city-selection", env.Data.Screen.Step)
	assert.Equal(t, int64(1), env.Data.Version)

	w = ut.PerformRequest(h.Engine, http.MethodPost, "/v1/sessions/"+id+"/back", nil)
	require.Equal(t, http.StatusOK, w.Result().StatusCode())
	assert.Equal(t, "welcome", decodeSession(t, w).Data.Screen.Step)

	w = ut.PerformRequest(h.Engine, http.MethodGet, "/v1/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, w.Result().StatusCode())
	assert.Equal(t, id, decodeSession(t, w).Data.SessionID)

	w = ut.PerformRequest(h.Engine, http.MethodDelete, "/v1/sessions/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Result().StatusCode())

	w = ut.PerformRequest(h.Engine, http.MethodGet, "/v1/sessions/"+id, nil)
	assert.Equal(t, http.StatusGone, w.Result().StatusCode())
	assert.Equal(t, "SESSION_CLOSED", decodeError(t, w))
}

func TestSessionErrors(t *testing.T) {
	h := newServer(t)

	w := ut.PerformRequest(h.Engine, http.MethodGet, "/v1/sessions/not-an-id", nil)
	assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode())
	assert.Equal(t, "INVALID_SESSION_ID", decodeError(t, w))

	w = ut.PerformRequest(h.Engine, http.MethodGet, "/v1/sessions/12345", nil)
	assert.Equal(t, http.StatusNotFound, w.Result().StatusCode())

	id := createSession(t, h)

	w = postEvent(t, h, id, map[string]interface{}{"type": "choose_plan", "plan": "monthly"})
	assert.Equal(t, http.StatusConflict, w.Result().StatusCode())
	assert.Equal(t, "ONBOARDING_STEP_INVALID", decodeError(t, w))

	w = postEvent(t, h, id, map[string]interface{}{"type": "intros_loaded"})
	assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode())

	body := &ut.Body{Body: bytes.NewReader([]byte("{")), Len: 1}
	w = ut.PerformRequest(h.Engine, http.MethodPost, "/v1/sessions/"+id+"/events", body, jsonHeader)
	assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode())
	assert.Equal(t, "INVALID_REQUEST", decodeError(t, w))
}

func TestSubmitVerificationPhoto(t *testing.T) {
	h := newServer(t)
	id := createSession(t, h)

	for _, ev := range []map[string]interface{}{
		{"type": "continue"},
		{"type": "select_city", "city": "SF", "neighborhood": "SoMa"},
		{"type": "submit_otp", "phone": "+14155550100", "code": "123456"},
		{"type": "continue"},
	} {
		w := postEvent(t, h, id, ev)
		require.Equal(t, http.StatusOK, w.Result().StatusCode(), string(w.Result().Body()))
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("photo", "selfie.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("jpeg-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w := ut.PerformRequest(h.Engine, http.MethodPost, "/v1/sessions/"+id+"/verification",
		&ut.Body{Body: &buf, Len: buf.Len()},
		ut.Header{Key: "Content-Type", Value: mw.FormDataContentType()})
	require.Equal(t, http.StatusOK, w.Result().StatusCode(), string(w.Result().Body()))
	assert.Equal(t, "verification-in-progress", decodeSession(t, w).Data.Screen.Step)

	require.Eventually(t, func() bool {
		w := ut.PerformRequest(h.Engine, http.MethodGet, "/v1/sessions/"+id, nil)
		return decodeSession(t, w).Data.Screen.Step == "verification-success"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSubmitVerificationPhoto_Missing(t *testing.T) {
	h := newServer(t)
	id := createSession(t, h)

	w := ut.PerformRequest(h.Engine, http.MethodPost, "/v1/sessions/"+id+"/verification", nil)
	assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode())
	assert.Equal(t, "VERIFICATION_PHOTO_EMPTY", decodeError(t, w))
}
