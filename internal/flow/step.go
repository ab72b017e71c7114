package flow

// Step 引导流程中的步骤，任意时刻只有一个处于激活状态
type Step string

const (
	StepWelcome                  Step = "welcome"
	StepCitySelection            Step = "city-selection"
	StepWaitlist                 Step = "waitlist"
	StepOTPLogin                 Step = "otp-login"
	StepVerificationIntro        Step = "verification-intro"
	StepVerificationCapture      Step = "verification-capture"
	StepVerificationInProgress   Step = "verification-in-progress"
	StepVerificationSuccess      Step = "verification-success"
	StepVerificationFailure      Step = "verification-failure"
	StepVerificationManualReview Step = "verification-manual-review"
	StepSoftPaywall              Step = "soft-paywall"
	StepProfilePhotos            Step = "profile-photos"
	StepProfileBasics            Step = "profile-basics"
	StepProfileLifeMap           Step = "profile-lifemap"
	StepProfileReview            Step = "profile-review"
	StepProfileNonNegotiables    Step = "profile-non-negotiables"
	StepProfilePreferences       Step = "profile-preferences"
	StepProfilePreview           Step = "profile-preview"
	StepProfileComplete          Step = "profile-complete"
)

// Steps 按正向流程排列的全部步骤
var Steps = []Step{
	StepWelcome,
	StepCitySelection,
	StepWaitlist,
	StepOTPLogin,
	StepVerificationIntro,
	StepVerificationCapture,
	StepVerificationInProgress,
	StepVerificationSuccess,
	StepVerificationFailure,
	StepVerificationManualReview,
	StepSoftPaywall,
	StepProfilePhotos,
	StepProfileBasics,
	StepProfileLifeMap,
	StepProfileReview,
	StepProfileNonNegotiables,
	StepProfilePreferences,
	StepProfilePreview,
	StepProfileComplete,
}

func (s Step) Valid() bool {
	for _, step := range Steps {
		if step == s {
			return true
		}
	}
	return false
}

// AppMode 顶层模式，与 Step 相互独立
type AppMode string

const (
	ModeOnboarding AppMode = "onboarding"
	ModeShowcase   AppMode = "design-system-showcase"
	ModeMainApp    AppMode = "main-app"
)

func (m AppMode) Valid() bool {
	return m == ModeOnboarding || m == ModeShowcase || m == ModeMainApp
}

// Tab 主应用底部标签
type Tab string

const (
	TabIntroductions Tab = "introductions"
	TabMatches       Tab = "matches"
	TabProfile       Tab = "profile"
)

func (t Tab) Valid() bool {
	return t == TabIntroductions || t == TabMatches || t == TabProfile
}

// IntroScreen 推荐标签内叠加在列表之上的层级
type IntroScreen string

const (
	IntroList              IntroScreen = "list"
	IntroDetail            IntroScreen = "detail"
	IntroDeclineReason     IntroScreen = "decline-reason"
	IntroMatchConfirmation IntroScreen = "match-confirmation"
)

// forwardTable Continue 事件的正向跳转
var forwardTable = map[Step]Step{
	StepWelcome:                  StepCitySelection,
	StepVerificationIntro:        StepVerificationCapture,
	StepVerificationSuccess:      StepSoftPaywall,
	StepVerificationManualReview: StepSoftPaywall, // 人工审核不阻塞流程
	StepSoftPaywall:              StepProfilePhotos,
	StepProfilePhotos:            StepProfileBasics,
	StepProfileBasics:            StepProfileLifeMap,
	StepProfileLifeMap:           StepProfileReview,
	StepProfileReview:            StepProfileNonNegotiables,
	StepProfileNonNegotiables:    StepProfilePreferences,
	StepProfilePreferences:       StepProfilePreview,
	StepProfilePreview:           StepProfileComplete,
}

// backTable 唯一的回退表，otp-login 的前驱取决于是否排队，单独处理
var backTable = map[Step]Step{
	StepCitySelection:         StepWelcome,
	StepWaitlist:              StepCitySelection,
	StepVerificationIntro:     StepOTPLogin,
	StepVerificationCapture:   StepVerificationIntro,
	StepVerificationFailure:   StepVerificationIntro,
	StepProfilePhotos:         StepSoftPaywall,
	StepProfileBasics:         StepProfilePhotos,
	StepProfileLifeMap:        StepProfileBasics,
	StepProfileReview:         StepProfileLifeMap,
	StepProfileNonNegotiables: StepProfileReview,
	StepProfilePreferences:    StepProfileNonNegotiables,
	StepProfilePreview:        StepProfilePreferences,
}

// Predecessor 返回回退目标；没有前驱的步骤返回 false
func Predecessor(s State) (Step, bool) {
	if s.Step == StepOTPLogin {
		if s.Location != nil && s.Location.IsWaitlisted {
			return StepWaitlist, true
		}
		return StepCitySelection, true
	}
	prev, ok := backTable[s.Step]
	return prev, ok
}
