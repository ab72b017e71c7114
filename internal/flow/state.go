package flow

import (
	"reflect"

	"Kindred/internal/model"
)

// Verification 照片核验的进度
type Verification struct {
	Attempt    int                      `json:"attempt"`
	LastStatus model.VerificationStatus `json:"last_status,omitempty"`
	Message    string                   `json:"message,omitempty"` // 失败页展示的信息
}

// Main 主应用状态：标签、推荐列表与下钻指针
type Main struct {
	Tab              Tab                   `json:"tab"`
	IntroScreen      IntroScreen           `json:"intro_screen"`
	Intros           []model.IntroCardData `json:"intros"`
	Matches          []model.Match         `json:"matches"`
	SelectedIntroID  string                `json:"selected_intro_id,omitempty"`
	SelectedMatchID  string                `json:"selected_match_id,omitempty"`
	PendingDeclineID string                `json:"pending_decline_id,omitempty"`
	DeclineReason    string                `json:"decline_reason,omitempty"`
	ConfirmedMatchID string                `json:"confirmed_match_id,omitempty"`
	IntrosLoading    bool                  `json:"intros_loading"`
	IntroError       string                `json:"intro_error,omitempty"`
	FetchGeneration  int                   `json:"fetch_generation"`
}

// State 一个客户端的完整流程状态，按值传递，由 Machine.Apply 产生新值
type State struct {
	Mode               AppMode             `json:"mode"`
	Step               Step                `json:"step"`
	Location           *model.LocationData `json:"location,omitempty"`
	Profile            model.ProfileDraft  `json:"profile"`
	SummaryInitialized bool                `json:"summary_initialized"`
	Verification       Verification        `json:"verification"`
	Plan               string              `json:"plan,omitempty"`
	Main               Main                `json:"main"`
	Settings           model.Settings      `json:"settings"`
}

// NewState 初始状态：引导模式的 welcome 步骤
func NewState() State {
	return State{
		Mode:    ModeOnboarding,
		Step:    StepWelcome,
		Profile: model.NewProfileDraft(),
		Main: Main{
			Tab:         TabIntroductions,
			IntroScreen: IntroList,
			Intros:      []model.IntroCardData{},
			Matches:     []model.Match{},
		},
		Settings: model.Settings{Notifications: true},
	}
}

// Clone 深拷贝，保证 Apply 不会修改调用方持有的状态
func (s State) Clone() State {
	out := s
	if s.Location != nil {
		loc := *s.Location
		if s.Location.WaitlistPosition != nil {
			pos := *s.Location.WaitlistPosition
			loc.WaitlistPosition = &pos
		}
		out.Location = &loc
	}
	out.Profile = s.Profile.Clone()
	out.Main.Intros = model.CloneSlice(s.Main.Intros)
	out.Main.Matches = make([]model.Match, len(s.Main.Matches))
	for i, m := range s.Main.Matches {
		out.Main.Matches[i] = m.Clone()
	}
	return out
}

// Equal 两个状态是否等价；空切片与 nil 视为相同
func Equal(a, b State) bool {
	return reflect.DeepEqual(a.Clone(), b.Clone())
}

// SelectedIntro 当前下钻的推荐
func (s State) SelectedIntro() (model.IntroCardData, bool) {
	return s.findIntro(s.Main.SelectedIntroID)
}

// SelectedMatch 当前下钻的匹配
func (s State) SelectedMatch() (model.Match, bool) {
	idx := s.matchIndex(s.Main.SelectedMatchID)
	if idx < 0 {
		return model.Match{}, false
	}
	return s.Main.Matches[idx], true
}

func (s State) findIntro(id string) (model.IntroCardData, bool) {
	idx := s.introIndex(id)
	if idx < 0 {
		return model.IntroCardData{}, false
	}
	return s.Main.Intros[idx], true
}

func (s State) introIndex(id string) int {
	if id == "" {
		return -1
	}
	for i, intro := range s.Main.Intros {
		if intro.ID == id {
			return i
		}
	}
	return -1
}

func (s State) matchIndex(id string) int {
	if id == "" {
		return -1
	}
	for i, m := range s.Main.Matches {
		if m.ID == id {
			return i
		}
	}
	return -1
}
