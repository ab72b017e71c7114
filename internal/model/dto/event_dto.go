package dto

import (
	"fmt"

	"Kindred/internal/flow"
	"Kindred/internal/model"
	pkgerrors "Kindred/pkg/errors"
)

// EventRequest 客户端事件，type 决定使用哪些字段
type EventRequest struct {
	Index       *int               `json:"index,omitempty"`
	Basics      *model.Basics      `json:"basics,omitempty"`
	Summary     *model.Summary     `json:"summary,omitempty"`
	Preferences *model.Preferences `json:"preferences,omitempty"`
	Settings    *model.Settings    `json:"settings,omitempty"`

	Type         string `json:"type"`
	Mode         string `json:"mode,omitempty"`
	City         string `json:"city,omitempty"`
	Neighborhood string `json:"neighborhood,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Code         string `json:"code,omitempty"` // 邀请码或短信验证码
	Plan         string `json:"plan,omitempty"`
	Ref          string `json:"ref,omitempty"`
	Answer       string `json:"answer,omitempty"`
	Label        string `json:"label,omitempty"`
	Tab          string `json:"tab,omitempty"`
	ID           string `json:"id,omitempty"` // intro 或 match 的 id
	Reason       string `json:"reason,omitempty"`
	MatchID      string `json:"match_id,omitempty"`
	Text         string `json:"text,omitempty"`

	Photo      []byte `json:"photo,omitempty"` // base64
	Waitlisted bool   `json:"waitlisted,omitempty"`
}

// ToEvent 转换为状态机事件。
// verification_settled 与 intros_loaded 只能由服务端产生，客户端提交视为未知事件
func (r EventRequest) ToEvent() (flow.Event, error) {
	switch flow.EventKind(r.Type) {
	case flow.KindContinue:
		return flow.Continue{}, nil
	case flow.KindBack:
		return flow.Back{}, nil
	case flow.KindSetMode:
		mode := flow.AppMode(r.Mode)
		if !mode.Valid() {
			return nil, fmt.Errorf("%w: %q", pkgerrors.ModeInvalid, r.Mode)
		}
		return flow.SetMode{Mode: mode}, nil
	case flow.KindSelectCity:
		return flow.SelectCity{City: r.City, Neighborhood: r.Neighborhood, Waitlisted: r.Waitlisted}, nil
	case flow.KindSubmitInviteCode:
		return flow.SubmitInviteCode{Code: r.Code}, nil
	case flow.KindSubmitOTP:
		return flow.SubmitOTP{Phone: r.Phone, Code: r.Code}, nil
	case flow.KindSubmitCapture:
		return flow.SubmitCapture{Photo: r.Photo}, nil
	case flow.KindRetryVerification:
		return flow.RetryVerification{}, nil
	case flow.KindChoosePlan:
		return flow.ChoosePlan{Plan: r.Plan}, nil
	case flow.KindAddPhoto:
		return flow.AddPhoto{Ref: r.Ref}, nil
	case flow.KindRemovePhoto:
		if r.Index == nil {
			return nil, fmt.Errorf("%w: index is required", pkgerrors.PhotoIndexInvalid)
		}
		return flow.RemovePhoto{Index: *r.Index}, nil
	case flow.KindUpdateBasics:
		if r.Basics == nil {
			return nil, fmt.Errorf("%w: basics is required", pkgerrors.InvalidRequest)
		}
		return flow.UpdateBasics{Basics: *r.Basics}, nil
	case flow.KindAnswerLifeMap:
		if r.Index == nil {
			return nil, fmt.Errorf("%w: index is required", pkgerrors.LifeMapIndexInvalid)
		}
		return flow.AnswerLifeMap{Index: *r.Index, Answer: r.Answer}, nil
	case flow.KindEditSummary:
		if r.Summary == nil {
			return nil, fmt.Errorf("%w: summary is required", pkgerrors.InvalidRequest)
		}
		return flow.EditSummary{Summary: *r.Summary}, nil
	case flow.KindToggleNonNegotiable:
		return flow.ToggleNonNegotiable{Label: r.Label}, nil
	case flow.KindUpdatePreferences:
		if r.Preferences == nil {
			return nil, fmt.Errorf("%w: preferences is required", pkgerrors.InvalidRequest)
		}
		return flow.UpdatePreferences{Preferences: *r.Preferences}, nil
	case flow.KindConfirm:
		return flow.Confirm{}, nil
	case flow.KindSelectTab:
		return flow.SelectTab{Tab: flow.Tab(r.Tab)}, nil
	case flow.KindRefreshIntros:
		return flow.RefreshIntros{}, nil
	case flow.KindSelectIntro:
		return flow.SelectIntro{ID: r.ID}, nil
	case flow.KindAcceptIntro:
		return flow.AcceptIntro{ID: r.ID}, nil
	case flow.KindDismissMatchConfirmation:
		return flow.DismissMatchConfirmation{}, nil
	case flow.KindStartDecline:
		return flow.StartDecline{ID: r.ID}, nil
	case flow.KindSelectDeclineReason:
		return flow.SelectDeclineReason{Reason: r.Reason}, nil
	case flow.KindConfirmDecline:
		return flow.ConfirmDecline{}, nil
	case flow.KindSelectMatch:
		return flow.SelectMatch{ID: r.ID}, nil
	case flow.KindSendMessage:
		return flow.SendMessage{MatchID: r.MatchID, Text: r.Text}, nil
	case flow.KindUpdateSettings:
		if r.Settings == nil {
			return nil, fmt.Errorf("%w: settings is required", pkgerrors.InvalidRequest)
		}
		return flow.UpdateSettings{Settings: *r.Settings}, nil
	}
	return nil, fmt.Errorf("%w: %q", pkgerrors.EventUnknown, r.Type)
}
