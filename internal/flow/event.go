package flow

import (
	"Kindred/internal/model"
)

// EventKind 事件类型，同时也是 JSON 中的 type 字段
type EventKind string

const (
	KindContinue                 EventKind = "continue"
	KindBack                     EventKind = "back"
	KindSetMode                  EventKind = "set_mode"
	KindSelectCity               EventKind = "select_city"
	KindSubmitInviteCode         EventKind = "submit_invite_code"
	KindSubmitOTP                EventKind = "submit_otp"
	KindSubmitCapture            EventKind = "submit_capture"
	KindVerificationSettled      EventKind = "verification_settled"
	KindRetryVerification        EventKind = "retry_verification"
	KindChoosePlan               EventKind = "choose_plan"
	KindAddPhoto                 EventKind = "add_photo"
	KindRemovePhoto              EventKind = "remove_photo"
	KindUpdateBasics             EventKind = "update_basics"
	KindAnswerLifeMap            EventKind = "answer_life_map"
	KindEditSummary              EventKind = "edit_summary"
	KindToggleNonNegotiable      EventKind = "toggle_non_negotiable"
	KindUpdatePreferences        EventKind = "update_preferences"
	KindConfirm                  EventKind = "confirm"
	KindSelectTab                EventKind = "select_tab"
	KindRefreshIntros            EventKind = "refresh_intros"
	KindIntrosLoaded             EventKind = "intros_loaded"
	KindSelectIntro              EventKind = "select_intro"
	KindAcceptIntro              EventKind = "accept_intro"
	KindDismissMatchConfirmation EventKind = "dismiss_match_confirmation"
	KindStartDecline             EventKind = "start_decline"
	KindSelectDeclineReason      EventKind = "select_decline_reason"
	KindConfirmDecline           EventKind = "confirm_decline"
	KindSelectMatch              EventKind = "select_match"
	KindSendMessage              EventKind = "send_message"
	KindUpdateSettings           EventKind = "update_settings"
)

// Event 用户操作或异步结果
type Event interface {
	Kind() EventKind
}

type (
	Continue struct{}
	Back     struct{}

	SetMode struct{ Mode AppMode }

	SelectCity struct {
		City         string
		Neighborhood string
		Waitlisted   bool
	}

	SubmitInviteCode struct{ Code string }

	SubmitOTP struct {
		Phone string
		Code  string
	}

	SubmitCapture struct{ Photo []byte }

	// VerificationSettled 核验服务返回，Err 非空表示调用本身失败
	VerificationSettled struct {
		Attempt  int
		Response model.VerificationResponse
		Err      error
	}

	RetryVerification struct{}

	ChoosePlan struct{ Plan string }

	AddPhoto    struct{ Ref string }
	RemovePhoto struct{ Index int }

	UpdateBasics struct{ Basics model.Basics }

	AnswerLifeMap struct {
		Index  int
		Answer string
	}

	EditSummary struct{ Summary model.Summary }

	ToggleNonNegotiable struct{ Label string }

	UpdatePreferences struct{ Preferences model.Preferences }

	Confirm struct{}

	SelectTab struct{ Tab Tab }

	RefreshIntros struct{}

	// IntrosLoaded 推荐服务返回，Generation 过期的结果会被丢弃
	IntrosLoaded struct {
		Generation int
		Intros     []model.IntroCardData
		Err        error
	}

	SelectIntro              struct{ ID string }
	AcceptIntro              struct{ ID string }
	DismissMatchConfirmation struct{}
	StartDecline             struct{ ID string }
	SelectDeclineReason      struct{ Reason string }
	ConfirmDecline           struct{}
	SelectMatch              struct{ ID string }

	SendMessage struct {
		MatchID string
		Text    string
	}

	UpdateSettings struct{ Settings model.Settings }
)

func (Continue) Kind() EventKind                 { return KindContinue }
func (Back) Kind() EventKind                     { return KindBack }
func (SetMode) Kind() EventKind                  { return KindSetMode }
func (SelectCity) Kind() EventKind               { return KindSelectCity }
func (SubmitInviteCode) Kind() EventKind         { return KindSubmitInviteCode }
func (SubmitOTP) Kind() EventKind                { return KindSubmitOTP }
func (SubmitCapture) Kind() EventKind            { return KindSubmitCapture }
func (VerificationSettled) Kind() EventKind      { return KindVerificationSettled }
func (RetryVerification) Kind() EventKind        { return KindRetryVerification }
func (ChoosePlan) Kind() EventKind               { return KindChoosePlan }
func (AddPhoto) Kind() EventKind                 { return KindAddPhoto }
func (RemovePhoto) Kind() EventKind              { return KindRemovePhoto }
func (UpdateBasics) Kind() EventKind             { return KindUpdateBasics }
func (AnswerLifeMap) Kind() EventKind            { return KindAnswerLifeMap }
func (EditSummary) Kind() EventKind              { return KindEditSummary }
func (ToggleNonNegotiable) Kind() EventKind      { return KindToggleNonNegotiable }
func (UpdatePreferences) Kind() EventKind        { return KindUpdatePreferences }
func (Confirm) Kind() EventKind                  { return KindConfirm }
func (SelectTab) Kind() EventKind                { return KindSelectTab }
func (RefreshIntros) Kind() EventKind            { return KindRefreshIntros }
func (IntrosLoaded) Kind() EventKind             { return KindIntrosLoaded }
func (SelectIntro) Kind() EventKind              { return KindSelectIntro }
func (AcceptIntro) Kind() EventKind              { return KindAcceptIntro }
func (DismissMatchConfirmation) Kind() EventKind { return KindDismissMatchConfirmation }
func (StartDecline) Kind() EventKind             { return KindStartDecline }
func (SelectDeclineReason) Kind() EventKind      { return KindSelectDeclineReason }
func (ConfirmDecline) Kind() EventKind           { return KindConfirmDecline }
func (SelectMatch) Kind() EventKind              { return KindSelectMatch }
func (SendMessage) Kind() EventKind              { return KindSendMessage }
func (UpdateSettings) Kind() EventKind           { return KindUpdateSettings }

// Command 状态机要求调用方执行的副作用，状态机本身不做 I/O
type Command interface {
	command()
}

// VerifyPhoto 调用核验服务
type VerifyPhoto struct {
	Attempt int
	Photo   []byte
}

// FetchIntros 调用推荐服务
type FetchIntros struct {
	Generation int
}

// Announce 对外发布的流程事件
type Announce struct {
	Topic      string
	Attributes map[string]string
}

func (VerifyPhoto) command() {}
func (FetchIntros) command() {}
func (Announce) command()    {}

// 对外发布的事件主题
const (
	TopicOnboardingCompleted = "onboarding.completed"
	TopicVerificationSettled = "verification.settled"
	TopicIntroAccepted       = "intro.accepted"
	TopicIntroDeclined       = "intro.declined"
)
