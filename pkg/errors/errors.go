package errors

func (d Definition) Error() string {
	return d.Message
}

// Definition 表示业务错误码及默认信息。
type Definition struct {
	Code    string
	Message string
}

// 通用错误。
var (
	InvalidRequest  = Definition{Code: "INVALID_REQUEST", Message: "Invalid request"}
	TooManyRequests = Definition{Code: "TOO_MANY_REQUESTS", Message: "Too many requests"}
	Internal        = Definition{Code: "INTERNAL_ERROR", Message: "Internal error"}
)

// 会话相关错误。
var (
	SessionNotFound = Definition{Code: "SESSION_NOT_FOUND", Message: "Session not found"}
	SessionClosed   = Definition{Code: "SESSION_CLOSED", Message: "Session closed"}
	InvalidSession  = Definition{Code: "INVALID_SESSION_ID", Message: "Invalid session ID format"}
)

// 引导流程错误。
var (
	OnboardingStepInvalid = Definition{Code: "ONBOARDING_STEP_INVALID", Message: "Event not allowed at the current step"}
	EventUnknown          = Definition{Code: "EVENT_UNKNOWN", Message: "Unknown event type"}
	ModeInvalid           = Definition{Code: "MODE_INVALID", Message: "App mode transition not allowed"}
	PlanUnknown           = Definition{Code: "PLAN_UNKNOWN", Message: "Unknown subscription plan"}
	LifeMapIndexInvalid   = Definition{Code: "LIFE_MAP_INDEX_INVALID", Message: "Life map prompt index out of range"}
	NonNegotiableUnknown  = Definition{Code: "NON_NEGOTIABLE_UNKNOWN", Message: "Unknown non-negotiable option"}
	PhotoIndexInvalid     = Definition{Code: "PHOTO_INDEX_INVALID", Message: "Photo index out of range"}
)

// 照片核验错误。
var (
	VerificationPhotoEmpty = Definition{Code: "VERIFICATION_PHOTO_EMPTY", Message: "Verification photo must not be empty"}
)

// 主应用（推荐/匹配）错误。
var (
	MainAppEventInvalid  = Definition{Code: "MAIN_APP_EVENT_INVALID", Message: "Event not allowed outside the main app"}
	IntroNotFound        = Definition{Code: "INTRO_NOT_FOUND", Message: "Introduction not found"}
	MatchNotFound        = Definition{Code: "MATCH_NOT_FOUND", Message: "Match not found"}
	DeclineReasonUnknown = Definition{Code: "DECLINE_REASON_UNKNOWN", Message: "Unknown decline reason"}
	TabUnknown           = Definition{Code: "TAB_UNKNOWN", Message: "Unknown tab"}
)

// Lookup 提供错误码查询能力。
var Lookup = map[string]Definition{
	InvalidRequest.Code:         InvalidRequest,
	TooManyRequests.Code:        TooManyRequests,
	Internal.Code:               Internal,
	SessionNotFound.Code:        SessionNotFound,
	SessionClosed.Code:          SessionClosed,
	InvalidSession.Code:         InvalidSession,
	OnboardingStepInvalid.Code:  OnboardingStepInvalid,
	EventUnknown.Code:           EventUnknown,
	ModeInvalid.Code:            ModeInvalid,
	PlanUnknown.Code:            PlanUnknown,
	LifeMapIndexInvalid.Code:    LifeMapIndexInvalid,
	NonNegotiableUnknown.Code:   NonNegotiableUnknown,
	PhotoIndexInvalid.Code:      PhotoIndexInvalid,
	VerificationPhotoEmpty.Code: VerificationPhotoEmpty,
	MainAppEventInvalid.Code:    MainAppEventInvalid,
	IntroNotFound.Code:          IntroNotFound,
	MatchNotFound.Code:          MatchNotFound,
	DeclineReasonUnknown.Code:   DeclineReasonUnknown,
	TabUnknown.Code:             TabUnknown,
}

// Get 根据错误码返回 Definition，若不存在则返回空 Definition。
func Get(code string) Definition {
	if def, ok := Lookup[code]; ok {
		return def
	}
	return Definition{Code: code, Message: "Unexpected error"}
}
