package flow

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Kindred/internal/model"
	pkgerrors "Kindred/pkg/errors"
)

var fixedNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func newTestMachine() *Machine {
	n := 0
	return NewMachine(
		WithWaitlistPosition(func() int { return 42 }),
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	)
}

// mustApply 依次应用事件，任何一步出错都直接失败
func mustApply(t *testing.T, m *Machine, s State, events ...Event) (State, []Command) {
	t.Helper()
	var cmds []Command
	for _, e := range events {
		var err error
		var out []Command
		s, out, err = m.Apply(s, e)
		require.NoError(t, err, "event %s", e.Kind())
		cmds = append(cmds, out...)
	}
	return s, cmds
}

// stateAt 走到指定步骤
func stateAt(t *testing.T, m *Machine, step Step) State {
	t.Helper()
	s := NewState()
	path := []Event{
		Continue{},
		SelectCity{City: "SF", Neighborhood: "SoMa"},
		SubmitOTP{Phone: "+14155550100", Code: "123456"},
		Continue{},
		SubmitCapture{Photo: []byte{0xff}},
		VerificationSettled{Attempt: 1, Response: model.VerificationResponse{Status: model.VerificationSuccess}},
		Continue{},
		ChoosePlan{},
		AddPhoto{Ref: "p1"}, AddPhoto{Ref: "p2"}, AddPhoto{Ref: "p3"},
		Continue{}, Continue{}, Continue{}, Continue{}, Continue{}, Continue{}, Continue{},
	}
	for _, e := range path {
		if s.Step == step {
			return s
		}
		s, _ = mustApply(t, m, s, e)
	}
	require.Equal(t, step, s.Step)
	return s
}

func TestCitySelection_Waitlisted(t *testing.T) {
	m := NewMachine()
	s := stateAt(t, m, StepCitySelection)

	for i := 0; i < 200; i++ {
		next, _, err := m.Apply(s, SelectCity{City: "SF", Neighborhood: "SoMa", Waitlisted: true})
		require.NoError(t, err)
		assert.Equal(t, StepWaitlist, next.Step)
		require.NotNil(t, next.Location)
		assert.True(t, next.Location.IsWaitlisted)
		require.NotNil(t, next.Location.WaitlistPosition)
		pos := *next.Location.WaitlistPosition
		assert.GreaterOrEqual(t, pos, model.WaitlistPositionMin)
		assert.Less(t, pos, model.WaitlistPositionMax)
	}
}

func TestCitySelection_NotWaitlisted(t *testing.T) {
	m := newTestMachine()
	s := stateAt(t, m, StepCitySelection)

	next, _ := mustApply(t, m, s, SelectCity{City: "SF", Neighborhood: "Mission"})
	assert.Equal(t, StepOTPLogin, next.Step)
	require.NotNil(t, next.Location)
	assert.False(t, next.Location.IsWaitlisted)
	assert.Nil(t, next.Location.WaitlistPosition)
}

func TestCitySelection_EmptyCityIsNoop(t *testing.T) {
	m := newTestMachine()
	s := stateAt(t, m, StepCitySelection)

	next, _ := mustApply(t, m, s, SelectCity{City: "  "})
	assert.Equal(t, StepCitySelection, next.Step)
	assert.Nil(t, next.Location)
}

func TestWaitlist_InviteCode(t *testing.T) {
	m := newTestMachine()
	s := stateAt(t, m, StepCitySelection)
	s, _ = mustApply(t, m, s, SelectCity{City: "SF", Neighborhood: "SoMa", Waitlisted: true})

	same, _ := mustApply(t, m, s, SubmitInviteCode{Code: ""})
	assert.Equal(t, StepWaitlist, same.Step)

	next, _ := mustApply(t, m, s, SubmitInviteCode{Code: "KINDRED"})
	assert.Equal(t, StepOTPLogin, next.Step)
}

func TestOTPLogin_RequiresValidInput(t *testing.T) {
	m := newTestMachine()
	s := stateAt(t, m, StepOTPLogin)

	tests := []struct {
		name  string
		phone string
		code  string
		want  Step
	}{
		{"valid", "+14155550100", "123456", StepVerificationIntro},
		{"short code", "+14155550100", "123", StepOTPLogin},
		{"bad phone", "abc", "123456", StepOTPLogin},
		{"empty", "", "", StepOTPLogin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, _ := mustApply(t, m, s, SubmitOTP{Phone: tt.phone, Code: tt.code})
			assert.Equal(t, tt.want, next.Step)
		})
	}
}

func TestBack_FollowsTable(t *testing.T) {
	m := newTestMachine()
	for step, want := range backTable {
		t.Run(string(step), func(t *testing.T) {
			s := NewState()
			s.Step = step
			next, _ := mustApply(t, m, s, Back{})
			assert.Equal(t, want, next.Step)
		})
	}
}

func TestBack_OTPLoginDependsOnWaitlist(t *testing.T) {
	m := newTestMachine()

	waitlisted := NewState()
	waitlisted.Step = StepOTPLogin
	waitlisted.Location = &model.LocationData{City: "SF", IsWaitlisted: true}
	next, _ := mustApply(t, m, waitlisted, Back{})
	assert.Equal(t, StepWaitlist, next.Step)

	direct := NewState()
	direct.Step = StepOTPLogin
	direct.Location = &model.LocationData{City: "SF"}
	next, _ = mustApply(t, m, direct, Back{})
	assert.Equal(t, StepCitySelection, next.Step)
}

func TestBack_StepsWithoutPredecessorIgnore(t *testing.T) {
	m := newTestMachine()
	for _, step := range []Step{
		StepWelcome, StepVerificationInProgress, StepVerificationSuccess,
		StepVerificationManualReview, StepSoftPaywall, StepProfileComplete,
	} {
		s := NewState()
		s.Step = step
		next, _ := mustApply(t, m, s, Back{})
		assert.Equal(t, step, next.Step)
	}
}

func TestSubmitCapture_SynchronouslyInProgress(t *testing.T) {
	m := newTestMachine()
	s := stateAt(t, m, StepVerificationCapture)

	next, cmds := mustApply(t, m, s, SubmitCapture{Photo: []byte("jpeg")})
	assert.Equal(t, StepVerificationInProgress, next.Step)
	require.Len(t, cmds, 1)
	verify, ok := cmds[0].(VerifyPhoto)
	require.True(t, ok)
	assert.Equal(t, next.Verification.Attempt, verify.Attempt)
	assert.Equal(t, []byte("jpeg"), verify.Photo)
}

func TestSubmitCapture_EmptyPhotoIsContractError(t *testing.T) {
	m := newTestMachine()
	s := stateAt(t, m, StepVerificationCapture)

	next, cmds, err := m.Apply(s, SubmitCapture{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, pkgerrors.VerificationPhotoEmpty))
	assert.Nil(t, cmds)
	assert.Equal(t, StepVerificationCapture, next.Step)
}

func TestVerificationSettled_Branches(t *testing.T) {
	m := newTestMachine()
	base := stateAt(t, m, StepVerificationCapture)
	base, _ = mustApply(t, m, base, SubmitCapture{Photo: []byte{1}})
	attempt := base.Verification.Attempt

	tests := []struct {
		name    string
		event   VerificationSettled
		want    Step
		message string
	}{
		{
			name:  "success",
			event: VerificationSettled{Attempt: attempt, Response: model.VerificationResponse{Status: model.VerificationSuccess}},
			want:  StepVerificationSuccess,
		},
		{
			name:    "failure with message",
			event:   VerificationSettled{Attempt: attempt, Response: model.VerificationResponse{Status: model.VerificationFailure, Message: "Face not visible"}},
			want:    StepVerificationFailure,
			message: "Face not visible",
		},
		{
			name:    "failure default message",
			event:   VerificationSettled{Attempt: attempt, Response: model.VerificationResponse{Status: model.VerificationFailure}},
			want:    StepVerificationFailure,
			message: model.DefaultVerificationFailureMessage,
		},
		{
			name:  "manual review",
			event: VerificationSettled{Attempt: attempt, Response: model.VerificationResponse{Status: model.VerificationManualReview}},
			want:  StepVerificationManualReview,
		},
		{
			name:    "collaborator error",
			event:   VerificationSettled{Attempt: attempt, Err: errors.New("network unreachable")},
			want:    StepVerificationFailure,
			message: "network unreachable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, cmds := mustApply(t, m, base, tt.event)
			assert.Equal(t, tt.want, next.Step)
			assert.Equal(t, tt.message, next.Verification.Message)
			require.Len(t, cmds, 1)
			assert.Equal(t, TopicVerificationSettled, cmds[0].(Announce).Topic)
		})
	}
}

func TestVerificationSettled_StaleAttemptIgnored(t *testing.T) {
	m := newTestMachine()
	s := stateAt(t, m, StepVerificationCapture)
	s, _ = mustApply(t, m, s, SubmitCapture{Photo: []byte{1}})

	next, cmds := mustApply(t, m, s, VerificationSettled{
		Attempt:  s.Verification.Attempt - 1,
		Response: model.VerificationResponse{Status: model.VerificationSuccess},
	})
	assert.Equal(t, StepVerificationInProgress, next.Step)
	assert.Empty(t, cmds)
}

func TestVerificationFailure_RetryAndBack(t *testing.T) {
	m := newTestMachine()
	s := stateAt(t, m, StepVerificationCapture)
	s, _ = mustApply(t, m, s,
		SubmitCapture{Photo: []byte{1}},
		VerificationSettled{Attempt: 1, Response: model.VerificationResponse{Status: model.VerificationFailure}},
	)
	require.Equal(t, StepVerificationFailure, s.Step)

	retried, _ := mustApply(t, m, s, RetryVerification{})
	assert.Equal(t, StepVerificationCapture, retried.Step)

	back, _ := mustApply(t, m, s, Back{})
	assert.Equal(t, StepVerificationIntro, back.Step)
}

func TestManualReview_PassesThroughToPaywall(t *testing.T) {
	m := newTestMachine()
	s := stateAt(t, m, StepVerificationCapture)
	s, _ = mustApply(t, m, s,
		SubmitCapture{Photo: []byte{1}},
		VerificationSettled{Attempt: 1, Response: model.VerificationResponse{Status: model.VerificationManualReview}},
		Continue{},
	)
	assert.Equal(t, StepSoftPaywall, s.Step)
}

func TestSoftPaywall_Plans(t *testing.T) {
	m := newTestMachine()
	s := stateAt(t, m, StepSoftPaywall)

	next, _ := mustApply(t, m, s, ChoosePlan{Plan: "annual"})
	assert.Equal(t, StepProfilePhotos, next.Step)
	assert.Equal(t, "annual", next.Plan)

	_, _, err := m.Apply(s, ChoosePlan{Plan: "lifetime"})
	assert.ErrorIs(t, err, pkgerrors.PlanUnknown)
}

func TestProfilePhotos_ForwardBlockedBelowThree(t *testing.T) {
	m := newTestMachine()
	s := stateAt(t, m, StepProfilePhotos)

	for i := 0; i < model.MinProfilePhotos; i++ {
		blocked, _ := mustApply(t, m, s, Continue{})
		assert.Equal(t, StepProfilePhotos, blocked.Step)
		assert.False(t, Render(s).CanContinue)
		s, _ = mustApply(t, m, s, AddPhoto{Ref: fmt.Sprintf("photo-%d", i)})
	}

	assert.True(t, Render(s).CanContinue)
	next, _ := mustApply(t, m, s, Continue{})
	assert.Equal(t, StepProfileBasics, next.Step)
}

func TestProfilePhotos_CapAndRemove(t *testing.T) {
	m := newTestMachine()
	s := stateAt(t, m, StepProfilePhotos)
	for i := 0; i < model.MaxProfilePhotos+2; i++ {
		s, _ = mustApply(t, m, s, AddPhoto{Ref: fmt.Sprintf("photo-%d", i)})
	}
	assert.Len(t, s.Profile.Photos, model.MaxProfilePhotos)

	s, _ = mustApply(t, m, s, RemovePhoto{Index: 0})
	assert.Len(t, s.Profile.Photos, model.MaxProfilePhotos-1)
	assert.Equal(t, "photo-1", s.Profile.Photos[0])

	_, _, err := m.Apply(s, RemovePhoto{Index: 99})
	assert.ErrorIs(t, err, pkgerrors.PhotoIndexInvalid)
}

func TestNonNegotiables_CappedAtFive(t *testing.T) {
	m := newTestMachine()
	s := stateAt(t, m, StepProfileNonNegotiables)

	for _, label := range model.NonNegotiableOptions[:model.MaxNonNegotiables] {
		s, _ = mustApply(t, m, s, ToggleNonNegotiable{Label: label})
	}
	require.Len(t, s.Profile.NonNegotiables, model.MaxNonNegotiables)

	sixth := model.NonNegotiableOptions[model.MaxNonNegotiables]
	same, _ := mustApply(t, m, s, ToggleNonNegotiable{Label: sixth})
	assert.Equal(t, s.Profile.NonNegotiables, same.Profile.NonNegotiables)

	removed, _ := mustApply(t, m, s, ToggleNonNegotiable{Label: model.NonNegotiableOptions[0]})
	assert.Len(t, removed.Profile.NonNegotiables, model.MaxNonNegotiables-1)

	readded, _ := mustApply(t, m, removed, ToggleNonNegotiable{Label: sixth})
	assert.Len(t, readded.Profile.NonNegotiables, model.MaxNonNegotiables)
	assert.True(t, readded.Profile.HasNonNegotiable(sixth))

	_, _, err := m.Apply(s, ToggleNonNegotiable{Label: "Owns a yacht"})
	assert.ErrorIs(t, err, pkgerrors.NonNegotiableUnknown)
}

func TestProfileReview_SummaryDefaultedOnce(t *testing.T) {
	m := newTestMachine()
	s := stateAt(t, m, StepProfileLifeMap)
	s, _ = mustApply(t, m, s, AnswerLifeMap{Index: 0, Answer: "Partnership with room to grow"})
	s, _ = mustApply(t, m, s, Continue{})

	require.Equal(t, StepProfileReview, s.Step)
	assert.Equal(t, "Partnership with room to grow", s.Profile.Summary.RelationshipGoals)
	assert.Equal(t, defaultHeadline, s.Profile.Summary.Headline)

	s, _ = mustApply(t, m, s, EditSummary{Summary: model.Summary{}})
	s, _ = mustApply(t, m, s, Back{}, Continue{})
	assert.True(t, s.Profile.Summary.IsEmpty(), "summary is only defaulted on first view")
}

func TestLifeMap_IndexOutOfRange(t *testing.T) {
	m := newTestMachine()
	s := stateAt(t, m, StepProfileLifeMap)
	_, _, err := m.Apply(s, AnswerLifeMap{Index: len(model.LifeMapPrompts)})
	assert.ErrorIs(t, err, pkgerrors.LifeMapIndexInvalid)
}

func TestPreferences_DefaultsAndPartialUpdate(t *testing.T) {
	m := newTestMachine()
	s := stateAt(t, m, StepProfilePreferences)
	assert.Equal(t, model.DefaultPreferences(), s.Profile.Preferences)

	s, _ = mustApply(t, m, s, UpdatePreferences{Preferences: model.Preferences{AgeMax: "45"}})
	assert.Equal(t, model.Preferences{AgeMin: "25", AgeMax: "45", Distance: "25"}, s.Profile.Preferences)
}

func TestConfirm_EntersMainApp(t *testing.T) {
	m := newTestMachine()
	s := stateAt(t, m, StepProfileComplete)

	next, cmds := mustApply(t, m, s, Confirm{})
	assert.Equal(t, ModeMainApp, next.Mode)
	assert.Equal(t, TabIntroductions, next.Main.Tab)
	assert.True(t, next.Main.IntrosLoading)
	require.Len(t, cmds, 2)
	assert.Equal(t, FetchIntros{Generation: next.Main.FetchGeneration}, cmds[0])
	assert.Equal(t, TopicOnboardingCompleted, cmds[1].(Announce).Topic)
}

func TestSetMode(t *testing.T) {
	m := newTestMachine()
	s := NewState()

	showcase, _ := mustApply(t, m, s, SetMode{Mode: ModeShowcase})
	assert.Equal(t, ModeShowcase, showcase.Mode)

	_, _, err := m.Apply(showcase, Continue{})
	assert.ErrorIs(t, err, pkgerrors.ModeInvalid)

	back, _ := mustApply(t, m, showcase, SetMode{Mode: ModeOnboarding})
	assert.Equal(t, ModeOnboarding, back.Mode)
	assert.Equal(t, StepWelcome, back.Step)

	_, _, err = m.Apply(s, SetMode{Mode: ModeMainApp})
	assert.ErrorIs(t, err, pkgerrors.ModeInvalid)
}

func TestApply_WrongStepLeavesStateUnchanged(t *testing.T) {
	m := newTestMachine()
	s := NewState()

	next, cmds, err := m.Apply(s, SubmitCapture{Photo: []byte{1}})
	assert.ErrorIs(t, err, pkgerrors.OnboardingStepInvalid)
	assert.Nil(t, cmds)
	assert.Equal(t, s, next)

	_, _, err = m.Apply(s, SelectTab{Tab: TabMatches})
	assert.ErrorIs(t, err, pkgerrors.MainAppEventInvalid)
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	m := newTestMachine()
	s := stateAt(t, m, StepProfilePhotos)
	s, _ = mustApply(t, m, s, AddPhoto{Ref: "a"}, AddPhoto{Ref: "b"})
	before := s.Clone()

	_, _ = mustApply(t, m, s, RemovePhoto{Index: 0})
	assert.Equal(t, before, s)
}

func TestVerificationSettled_WhileShowcaseOpen(t *testing.T) {
	m := newTestMachine()
	s := stateAt(t, m, StepVerificationCapture)
	s, _ = mustApply(t, m, s, SubmitCapture{Photo: []byte{0xff}}, SetMode{Mode: ModeShowcase})

	s, cmds := mustApply(t, m, s, VerificationSettled{
		Attempt:  s.Verification.Attempt,
		Response: model.VerificationResponse{Status: model.VerificationSuccess},
	})
	assert.Equal(t, ModeShowcase, s.Mode)
	assert.Equal(t, StepVerificationSuccess, s.Step)
	require.Len(t, cmds, 1)

	s, _ = mustApply(t, m, s, SetMode{Mode: ModeOnboarding}, Continue{})
	assert.Equal(t, StepSoftPaywall, s.Step)
}

func TestEqual(t *testing.T) {
	s := NewState()
	assert.True(t, Equal(s, s.Clone()))

	s.Main.Matches = nil
	assert.True(t, Equal(s, NewState()))

	s.Profile.Photos = append(s.Profile.Photos, "p1")
	assert.False(t, Equal(s, NewState()))
}
