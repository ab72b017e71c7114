package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"Kindred/internal/model"
)

func TestRender_Onboarding(t *testing.T) {
	m := newTestMachine()

	tests := []struct {
		step        Step
		canContinue bool
		canGoBack   bool
	}{
		{StepWelcome, true, false},
		{StepCitySelection, false, true},
		{StepOTPLogin, false, true},
		{StepVerificationCapture, false, true},
		{StepSoftPaywall, true, false},
		{StepProfilePhotos, false, true},
		{StepProfileComplete, true, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.step), func(t *testing.T) {
			sc := Render(stateAt(t, m, tt.step))
			assert.Equal(t, string(tt.step), sc.Name)
			assert.Equal(t, tt.canContinue, sc.CanContinue)
			assert.Equal(t, tt.canGoBack, sc.CanGoBack)
			assert.NotEmpty(t, sc.Title)
		})
	}
}

func TestRender_EveryStepHasTitle(t *testing.T) {
	for _, step := range Steps {
		assert.NotEmpty(t, stepTitles[step], step)
	}
}

func TestRender_WaitlistPosition(t *testing.T) {
	m := newTestMachine()
	s := stateAt(t, m, StepCitySelection)
	s, _ = mustApply(t, m, s, SelectCity{City: "SF", Neighborhood: "SoMa", Waitlisted: true})

	sc := Render(s)
	assert.Equal(t, 42, sc.WaitlistPosition)
}

func TestRender_PhotosNeeded(t *testing.T) {
	m := newTestMachine()
	s := stateAt(t, m, StepProfilePhotos)
	s, _ = mustApply(t, m, s, AddPhoto{Ref: "a"})

	sc := Render(s)
	assert.Equal(t, 1, sc.PhotoCount)
	assert.Equal(t, model.MinProfilePhotos-1, sc.PhotosNeeded)
}

func TestRender_MainApp(t *testing.T) {
	m := newTestMachine()
	s := mainAppWith(t, m, intro("A"))

	assert.Equal(t, "main/introductions", Render(s).Name)

	s, _ = mustApply(t, m, s, SelectIntro{ID: "A"})
	sc := Render(s)
	assert.Equal(t, "main/introductions/detail", sc.Name)
	assert.True(t, sc.CanGoBack)
}
