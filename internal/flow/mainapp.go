package flow

import (
	"strings"

	"Kindred/internal/model"
	pkgerrors "Kindred/pkg/errors"
)

// IntroLoadErrorMessage 推荐加载失败时展示的通用提示
const IntroLoadErrorMessage = "We couldn't load your introductions. Pull to refresh."

func isMainEvent(e Event) bool {
	switch e.(type) {
	case SelectTab, RefreshIntros, SelectIntro, AcceptIntro, DismissMatchConfirmation,
		StartDecline, SelectDeclineReason, ConfirmDecline, SelectMatch, SendMessage, UpdateSettings:
		return true
	}
	return false
}

func (m *Machine) beginFetch(s *State) FetchIntros {
	s.Main.FetchGeneration++
	s.Main.IntrosLoading = true
	s.Main.IntroError = ""
	return FetchIntros{Generation: s.Main.FetchGeneration}
}

// loadIntros 失败时列表置空并展示通用提示，不向上抛错
func (m *Machine) loadIntros(s State, ev IntrosLoaded) State {
	if s.Mode != ModeMainApp || ev.Generation != s.Main.FetchGeneration {
		return s
	}
	s.Main.IntrosLoading = false

	if ev.Err != nil {
		s.Main.Intros = []model.IntroCardData{}
		s.Main.IntroError = IntroLoadErrorMessage
	} else {
		now := m.now()
		intros := make([]model.IntroCardData, 0, len(ev.Intros))
		for _, intro := range ev.Intros {
			if intro.Expired(now) {
				continue
			}
			intros = append(intros, intro)
		}
		s.Main.Intros = intros
		s.Main.IntroError = ""
	}

	if s.introIndex(s.Main.SelectedIntroID) < 0 && s.Main.SelectedIntroID != "" {
		s.Main.SelectedIntroID = ""
		s.Main.PendingDeclineID = ""
		s.Main.DeclineReason = ""
		if s.Main.IntroScreen == IntroDetail || s.Main.IntroScreen == IntroDeclineReason {
			s.Main.IntroScreen = IntroList
		}
	}
	return s
}

func (m *Machine) applyMain(s State, e Event) (State, []Command, error) {
	switch ev := e.(type) {
	case SelectTab:
		if !ev.Tab.Valid() {
			return s, nil, pkgerrors.TabUnknown
		}
		s.Main.Tab = ev.Tab
		return s, nil, nil

	case RefreshIntros:
		return s, []Command{m.beginFetch(&s)}, nil

	case SelectIntro:
		if s.introIndex(ev.ID) < 0 {
			return s, nil, pkgerrors.IntroNotFound
		}
		s.Main.SelectedIntroID = ev.ID
		s.Main.SelectedMatchID = ""
		s.Main.PendingDeclineID = ""
		s.Main.DeclineReason = ""
		s.Main.IntroScreen = IntroDetail
		return s, nil, nil

	case AcceptIntro:
		idx := s.introIndex(ev.ID)
		if idx < 0 {
			return s, nil, pkgerrors.IntroNotFound
		}
		intro := s.Main.Intros[idx]
		s.Main.Intros = append(s.Main.Intros[:idx], s.Main.Intros[idx+1:]...)
		match := model.Match{
			ID:        m.newID(),
			Intro:     intro,
			MatchedAt: m.now(),
			Messages:  []model.ChatMessage{},
		}
		s.Main.Matches = append(s.Main.Matches, match)
		s.Main.SelectedIntroID = ""
		s.Main.PendingDeclineID = ""
		s.Main.DeclineReason = ""
		s.Main.ConfirmedMatchID = match.ID
		s.Main.IntroScreen = IntroMatchConfirmation
		return s, []Command{Announce{
			Topic: TopicIntroAccepted,
			Attributes: map[string]string{
				"intro_id": intro.ID,
				"match_id": match.ID,
			},
		}}, nil

	case DismissMatchConfirmation:
		if s.Main.IntroScreen != IntroMatchConfirmation {
			return s, nil, nil
		}
		s.Main.ConfirmedMatchID = ""
		s.Main.IntroScreen = IntroList
		return s, nil, nil

	case StartDecline:
		if s.introIndex(ev.ID) < 0 {
			return s, nil, pkgerrors.IntroNotFound
		}
		s.Main.SelectedIntroID = ev.ID
		s.Main.SelectedMatchID = ""
		s.Main.PendingDeclineID = ev.ID
		s.Main.DeclineReason = ""
		s.Main.IntroScreen = IntroDeclineReason
		return s, nil, nil

	case SelectDeclineReason:
		if s.Main.IntroScreen != IntroDeclineReason {
			return s, nil, invalid(pkgerrors.MainAppEventInvalid, s, e)
		}
		if !model.IsDeclineReason(ev.Reason) {
			return s, nil, pkgerrors.DeclineReasonUnknown
		}
		s.Main.DeclineReason = ev.Reason
		return s, nil, nil

	case ConfirmDecline:
		if s.Main.IntroScreen != IntroDeclineReason {
			return s, nil, invalid(pkgerrors.MainAppEventInvalid, s, e)
		}
		if s.Main.DeclineReason == "" {
			return s, nil, nil
		}
		id, reason := s.Main.PendingDeclineID, s.Main.DeclineReason
		if idx := s.introIndex(id); idx >= 0 {
			s.Main.Intros = append(s.Main.Intros[:idx], s.Main.Intros[idx+1:]...)
		}
		s.Main.SelectedIntroID = ""
		s.Main.PendingDeclineID = ""
		s.Main.DeclineReason = ""
		s.Main.IntroScreen = IntroList
		return s, []Command{Announce{
			Topic: TopicIntroDeclined,
			Attributes: map[string]string{
				"intro_id": id,
				"reason":   reason,
			},
		}}, nil

	case SelectMatch:
		if s.matchIndex(ev.ID) < 0 {
			return s, nil, pkgerrors.MatchNotFound
		}
		s.Main.SelectedMatchID = ev.ID
		s.Main.SelectedIntroID = ""
		s.Main.PendingDeclineID = ""
		s.Main.DeclineReason = ""
		if s.Main.IntroScreen == IntroDetail || s.Main.IntroScreen == IntroDeclineReason {
			s.Main.IntroScreen = IntroList
		}
		return s, nil, nil

	case SendMessage:
		idx := s.matchIndex(ev.MatchID)
		if idx < 0 {
			return s, nil, pkgerrors.MatchNotFound
		}
		text := strings.TrimSpace(ev.Text)
		if text == "" {
			return s, nil, nil
		}
		s.Main.Matches[idx].Messages = append(s.Main.Matches[idx].Messages, model.ChatMessage{
			ID:     m.newID(),
			FromMe: true,
			Text:   text,
			SentAt: m.now(),
		})
		return s, nil, nil

	case UpdateSettings:
		s.Settings = ev.Settings
		return s, nil, nil
	}

	return s, nil, invalid(pkgerrors.EventUnknown, s, e)
}

// backMain 弹出当前标签的下钻层，标签保持不变
func (m *Machine) backMain(s State) State {
	switch s.Main.Tab {
	case TabIntroductions:
		switch s.Main.IntroScreen {
		case IntroDeclineReason:
			s.Main.PendingDeclineID = ""
			s.Main.DeclineReason = ""
			s.Main.IntroScreen = IntroDetail
		case IntroDetail, IntroMatchConfirmation:
			s.Main.SelectedIntroID = ""
			s.Main.ConfirmedMatchID = ""
			s.Main.IntroScreen = IntroList
		}
	case TabMatches:
		s.Main.SelectedMatchID = ""
	}
	return s
}
