package main

import (
	"fmt"
	"io"
	"strings"

	"Kindred/internal/flow"
	"Kindred/internal/model"
	"Kindred/internal/service"
)

// render 把当前屏幕打印成纯文本，只读快照
func render(w io.Writer, snap service.Snapshot) {
	sc, st := snap.Screen, snap.State

	fmt.Fprintf(w, "\n== %s  [%s v%d]\n", sc.Title, sc.Name, snap.Version)

	switch st.Mode {
	case flow.ModeShowcase:
		fmt.Fprintln(w, "Design system showcase. Use `mode onboarding` or `mode main-app` to leave.")
	case flow.ModeMainApp:
		renderMain(w, st, sc)
	default:
		renderOnboarding(w, st, sc)
	}

	if sc.Loading {
		fmt.Fprintln(w, "  ... loading")
	}
	if sc.Message != "" {
		fmt.Fprintf(w, "  ! %s\n", sc.Message)
	}

	var actions []string
	if sc.CanContinue {
		actions = append(actions, "continue")
	}
	if sc.CanGoBack {
		actions = append(actions, "back")
	}
	if len(actions) > 0 {
		fmt.Fprintf(w, "  [%s]\n", strings.Join(actions, "] ["))
	}
}

func renderOnboarding(w io.Writer, st flow.State, sc flow.Screen) {
	p := st.Profile

	switch st.Step {
	case flow.StepWaitlist:
		if sc.WaitlistPosition > 0 {
			fmt.Fprintf(w, "  position #%d, enter an invite code to skip ahead\n", sc.WaitlistPosition)
		}
	case flow.StepSoftPaywall:
		fmt.Fprintf(w, "  plans: %s (or continue to skip)\n", strings.Join(model.SubscriptionPlans, ", "))
	case flow.StepProfilePhotos:
		for i, ref := range p.Photos {
			fmt.Fprintf(w, "  %d. %s\n", i+1, ref)
		}
		if sc.PhotosNeeded > 0 {
			fmt.Fprintf(w, "  add %d more\n", sc.PhotosNeeded)
		}
	case flow.StepProfileBasics:
		fmt.Fprintf(w, "  name=%q age=%q height=%q\n", p.Basics.Name, p.Basics.Age, p.Basics.Height)
	case flow.StepProfileLifeMap:
		for i, prompt := range model.LifeMapPrompts {
			answer := ""
			if i < len(p.LifeMap) {
				answer = p.LifeMap[i]
			}
			fmt.Fprintf(w, "  %d. %s\n     %s\n", i+1, prompt, answer)
		}
	case flow.StepProfileReview:
		renderSummary(w, p.Summary)
	case flow.StepProfileNonNegotiables:
		for _, opt := range model.NonNegotiableOptions {
			mark := " "
			if contains(p.NonNegotiables, opt) {
				mark = "x"
			}
			fmt.Fprintf(w, "  [%s] %s\n", mark, opt)
		}
		fmt.Fprintf(w, "  %d slots left\n", sc.SlotsRemaining)
	case flow.StepProfilePreferences:
		fmt.Fprintf(w, "  ages %s-%s, within %s\n", p.Preferences.AgeMin, p.Preferences.AgeMax, p.Preferences.Distance)
	case flow.StepProfilePreview:
		fmt.Fprintf(w, "  %s, %s, %s\n", p.Basics.Name, p.Basics.Age, p.Basics.Height)
		renderSummary(w, p.Summary)
		fmt.Fprintf(w, "  non-negotiables: %s\n", strings.Join(p.NonNegotiables, ", "))
	case flow.StepProfileComplete:
		fmt.Fprintln(w, "  `confirm` to enter the app")
	}
}

func renderSummary(w io.Writer, s model.Summary) {
	fmt.Fprintf(w, "  headline:  %s\n  goals:     %s\n  values:    %s\n  lifestyle: %s\n",
		s.Headline, s.RelationshipGoals, s.Values, s.Lifestyle)
}

func renderMain(w io.Writer, st flow.State, sc flow.Screen) {
	fmt.Fprintf(w, "  tabs: %s | %s | %s\n", tabLabel(st, flow.TabIntroductions), tabLabel(st, flow.TabMatches), tabLabel(st, flow.TabProfile))

	switch st.Main.Tab {
	case flow.TabIntroductions:
		renderIntroductions(w, st)
	case flow.TabMatches:
		if m, ok := st.SelectedMatch(); ok {
			fmt.Fprintf(w, "  chat with %s\n", m.Intro.Name)
			for _, msg := range m.Messages {
				who := m.Intro.Name
				if msg.FromMe {
					who = "you"
				}
				fmt.Fprintf(w, "    %s: %s\n", who, msg.Text)
			}
			return
		}
		if len(st.Main.Matches) == 0 {
			fmt.Fprintln(w, "  no matches yet")
		}
		for i, m := range st.Main.Matches {
			fmt.Fprintf(w, "  %d. %s (%d messages)\n", i+1, m.Intro.Name, len(m.Messages))
		}
	case flow.TabProfile:
		p := st.Profile
		fmt.Fprintf(w, "  %s, %s\n", p.Basics.Name, p.Basics.Age)
		renderSummary(w, p.Summary)
		fmt.Fprintf(w, "  paused=%t notifications=%t plan=%s\n", st.Settings.Paused, st.Settings.Notifications, orNone(st.Plan))
	}
}

func renderIntroductions(w io.Writer, st flow.State) {
	switch st.Main.IntroScreen {
	case flow.IntroDetail:
		if in, ok := st.SelectedIntro(); ok {
			fmt.Fprintf(w, "  %s, %d  trust %d\n", in.Name, in.Age, in.TrustScore)
			fmt.Fprintf(w, "  %s\n", in.LifeMapHighlight)
			for _, r := range in.MatchReasons {
				fmt.Fprintf(w, "  + %s\n", r)
			}
			for _, r := range in.WatchOuts {
				fmt.Fprintf(w, "  - %s\n", r)
			}
		}
		return
	case flow.IntroDeclineReason:
		for _, r := range model.DeclineReasons {
			mark := " "
			if r == st.Main.DeclineReason {
				mark = ">"
			}
			fmt.Fprintf(w, "  %s %s\n", mark, r)
		}
		return
	case flow.IntroMatchConfirmation:
		for _, m := range st.Main.Matches {
			if m.ID == st.Main.ConfirmedMatchID {
				fmt.Fprintf(w, "  It's a match with %s. `dismiss` to continue\n", m.Intro.Name)
			}
		}
		return
	}

	if len(st.Main.Intros) == 0 && !st.Main.IntrosLoading {
		fmt.Fprintln(w, "  no introductions right now, try `refresh`")
	}
	for i, in := range st.Main.Intros {
		fmt.Fprintf(w, "  %d. %s, %d  expires %s\n", i+1, in.Name, in.Age, in.ExpiresAt.Format("Jan 2 15:04"))
	}
}

func tabLabel(st flow.State, tab flow.Tab) string {
	if st.Main.Tab == tab {
		return "*" + string(tab)
	}
	return string(tab)
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
