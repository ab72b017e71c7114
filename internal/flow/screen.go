package flow

import (
	"Kindred/internal/model"
)

// Screen 与平台无关的界面描述，渲染层只依赖它来决定导航
type Screen struct {
	Name        string      `json:"name"`
	Title       string      `json:"title"`
	Mode        AppMode     `json:"mode"`
	Step        Step        `json:"step,omitempty"`
	Tab         Tab         `json:"tab,omitempty"`
	IntroScreen IntroScreen `json:"intro_screen,omitempty"`
	CanContinue bool        `json:"can_continue"`
	CanGoBack   bool        `json:"can_go_back"`
	Message     string      `json:"message,omitempty"`
	Loading     bool        `json:"loading,omitempty"`

	// profile-photos
	PhotoCount   int `json:"photo_count,omitempty"`
	PhotosNeeded int `json:"photos_needed,omitempty"`
	// profile-non-negotiables
	SlotsRemaining int `json:"slots_remaining,omitempty"`
	// waitlist
	WaitlistPosition int `json:"waitlist_position,omitempty"`
}

var stepTitles = map[Step]string{
	StepWelcome:                  "Welcome",
	StepCitySelection:            "Where are you based?",
	StepWaitlist:                 "You're on the waitlist",
	StepOTPLogin:                 "Verify your phone",
	StepVerificationIntro:        "Let's verify it's you",
	StepVerificationCapture:      "Take a selfie",
	StepVerificationInProgress:   "Verifying...",
	StepVerificationSuccess:      "You're verified",
	StepVerificationFailure:      "Verification failed",
	StepVerificationManualReview: "We're reviewing your photo",
	StepSoftPaywall:              "Go further with a membership",
	StepProfilePhotos:            "Add your photos",
	StepProfileBasics:            "The basics",
	StepProfileLifeMap:           "Your Life Map",
	StepProfileReview:            "Review your summary",
	StepProfileNonNegotiables:    "Your non-negotiables",
	StepProfilePreferences:       "Preferences",
	StepProfilePreview:           "Preview your profile",
	StepProfileComplete:          "You're all set",
}

var tabTitles = map[Tab]string{
	TabIntroductions: "Introductions",
	TabMatches:       "Matches",
	TabProfile:       "Profile",
}

// Render 根据当前状态生成界面描述
func Render(s State) Screen {
	switch s.Mode {
	case ModeShowcase:
		return Screen{
			Name:  string(ModeShowcase),
			Title: "Design system",
			Mode:  s.Mode,
		}
	case ModeMainApp:
		return renderMain(s)
	}

	_, canBack := Predecessor(s)
	sc := Screen{
		Name:      string(s.Step),
		Title:     stepTitles[s.Step],
		Mode:      s.Mode,
		Step:      s.Step,
		CanGoBack: canBack,
	}

	switch s.Step {
	case StepWelcome, StepVerificationIntro, StepVerificationSuccess, StepSoftPaywall,
		StepProfileBasics, StepProfileLifeMap, StepProfileReview, StepProfileNonNegotiables,
		StepProfilePreferences, StepProfilePreview, StepProfileComplete:
		sc.CanContinue = true
	case StepVerificationManualReview:
		sc.CanContinue = true
		sc.Message = s.Verification.Message
	case StepWaitlist:
		if s.Location != nil && s.Location.WaitlistPosition != nil {
			sc.WaitlistPosition = *s.Location.WaitlistPosition
		}
	case StepVerificationInProgress:
		sc.Loading = true
	case StepVerificationFailure:
		sc.Message = s.Verification.Message
	case StepProfilePhotos:
		sc.PhotoCount = len(s.Profile.Photos)
		if need := model.MinProfilePhotos - sc.PhotoCount; need > 0 {
			sc.PhotosNeeded = need
		}
		sc.CanContinue = sc.PhotoCount >= model.MinProfilePhotos
	}

	if s.Step == StepProfileNonNegotiables {
		sc.SlotsRemaining = model.MaxNonNegotiables - len(s.Profile.NonNegotiables)
	}
	return sc
}

func renderMain(s State) Screen {
	sc := Screen{
		Name:        "main/" + string(s.Main.Tab),
		Title:       tabTitles[s.Main.Tab],
		Mode:        s.Mode,
		Tab:         s.Main.Tab,
		IntroScreen: s.Main.IntroScreen,
	}

	switch s.Main.Tab {
	case TabIntroductions:
		sc.Loading = s.Main.IntrosLoading
		sc.Message = s.Main.IntroError
		if s.Main.IntroScreen != IntroList {
			sc.Name += "/" + string(s.Main.IntroScreen)
			sc.CanGoBack = true
		}
		if s.Main.IntroScreen == IntroDeclineReason {
			sc.CanContinue = s.Main.DeclineReason != ""
		}
	case TabMatches:
		if s.Main.SelectedMatchID != "" {
			sc.Name += "/detail"
			sc.CanGoBack = true
		}
	}
	return sc
}
