package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"Kindred/internal/flow"
	"Kindred/internal/model"
	"Kindred/internal/model/dto"
)

type commandKind int

const (
	cmdNone commandKind = iota
	cmdHelp
	cmdQuit
	cmdShow
	cmdBack
	cmdCapture
	cmdEvent
)

type command struct {
	kind  commandKind
	req   dto.EventRequest
	photo []byte
}

var errUsage = errors.New("usage")

func usage(format string) error {
	return fmt.Errorf("%w: %s", errUsage, format)
}

const helpText = `onboarding:
  c | continue                 next step
  b | back                     previous screen
  mode onboarding|showcase|main-app
  city <city> [neighborhood]   select a city
  waitlist <city> [neighborhood]
  invite <code>                waitlist invite code
  otp <phone> <code>
  capture [text]               submit the selfie (text becomes the photo bytes)
  retry                        retry verification
  plan <plan>                  soft paywall plan
  photo <ref> | unphoto <n>
  basics <name>, <age>, <height>
  answer <n> <text>            life map answer, n starts at 1
  summary <headline> | <goals> | <values> | <lifestyle>
  nn <label>                   toggle a non-negotiable
  prefs <age-min> <age-max> <distance>
  confirm
main app:
  tab introductions|matches|profile
  refresh
  open <n|id> | accept <n|id> | decline <n|id> | dismiss
  reason <text> | confirm-decline
  match <n|id> | send <n|id> <text>
  pause on|off | notify on|off
other:
  json <event object>          raw event, same shape as the HTTP API
  show | help | quit`

// parseCommand 解析一行输入。
// 推荐与匹配可以用列表序号（从 1 开始）代替 id，按当前状态解析
func parseCommand(line string, st flow.State) (command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return command{kind: cmdNone}, nil
	}
	name, args := strings.ToLower(fields[0]), fields[1:]
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))

	event := func(req dto.EventRequest) (command, error) {
		return command{kind: cmdEvent, req: req}, nil
	}

	switch name {
	case "help", "h", "?":
		return command{kind: cmdHelp}, nil
	case "quit", "q", "exit":
		return command{kind: cmdQuit}, nil
	case "show", "s":
		return command{kind: cmdShow}, nil
	case "back", "b":
		return command{kind: cmdBack}, nil
	case "continue", "c", "next":
		return event(dto.EventRequest{Type: string(flow.KindContinue)})
	case "capture":
		photo := []byte(rest)
		return command{kind: cmdCapture, photo: photo}, nil

	case "mode":
		if len(args) != 1 {
			return command{}, usage("mode onboarding|showcase|main-app")
		}
		mode := args[0]
		if mode == "showcase" {
			mode = string(flow.ModeShowcase)
		}
		return event(dto.EventRequest{Type: string(flow.KindSetMode), Mode: mode})
	case "city", "waitlist":
		if len(args) == 0 {
			return command{}, usage(name + " <city> [neighborhood]")
		}
		return event(dto.EventRequest{
			Type:         string(flow.KindSelectCity),
			City:         args[0],
			Neighborhood: strings.Join(args[1:], " "),
			Waitlisted:   name == "waitlist",
		})
	case "invite":
		if len(args) != 1 {
			return command{}, usage("invite <code>")
		}
		return event(dto.EventRequest{Type: string(flow.KindSubmitInviteCode), Code: args[0]})
	case "otp":
		if len(args) != 2 {
			return command{}, usage("otp <phone> <code>")
		}
		return event(dto.EventRequest{Type: string(flow.KindSubmitOTP), Phone: args[0], Code: args[1]})
	case "retry":
		return event(dto.EventRequest{Type: string(flow.KindRetryVerification)})
	case "plan":
		if len(args) != 1 {
			return command{}, usage("plan <plan>")
		}
		return event(dto.EventRequest{Type: string(flow.KindChoosePlan), Plan: args[0]})

	case "photo":
		if rest == "" {
			return command{}, usage("photo <ref>")
		}
		return event(dto.EventRequest{Type: string(flow.KindAddPhoto), Ref: rest})
	case "unphoto":
		idx, err := position(args)
		if err != nil {
			return command{}, usage("unphoto <n>")
		}
		return event(dto.EventRequest{Type: string(flow.KindRemovePhoto), Index: &idx})
	case "basics":
		parts := splitTrim(rest, ",")
		if len(parts) != 3 {
			return command{}, usage("basics <name>, <age>, <height>")
		}
		basics := model.Basics{Name: parts[0], Age: parts[1], Height: parts[2]}
		return event(dto.EventRequest{Type: string(flow.KindUpdateBasics), Basics: &basics})
	case "answer":
		idx, err := position(args)
		if err != nil || len(args) < 2 {
			return command{}, usage("answer <n> <text>")
		}
		return event(dto.EventRequest{
			Type:   string(flow.KindAnswerLifeMap),
			Index:  &idx,
			Answer: strings.Join(args[1:], " "),
		})
	case "summary":
		parts := splitTrim(rest, "|")
		if len(parts) != 4 {
			return command{}, usage("summary <headline> | <goals> | <values> | <lifestyle>")
		}
		summary := model.Summary{Headline: parts[0], RelationshipGoals: parts[1], Values: parts[2], Lifestyle: parts[3]}
		return event(dto.EventRequest{Type: string(flow.KindEditSummary), Summary: &summary})
	case "nn":
		if rest == "" {
			return command{}, usage("nn <label>")
		}
		return event(dto.EventRequest{Type: string(flow.KindToggleNonNegotiable), Label: rest})
	case "prefs":
		if len(args) < 3 {
			return command{}, usage("prefs <age-min> <age-max> <distance>")
		}
		prefs := model.Preferences{AgeMin: args[0], AgeMax: args[1], Distance: strings.Join(args[2:], " ")}
		return event(dto.EventRequest{Type: string(flow.KindUpdatePreferences), Preferences: &prefs})
	case "confirm":
		return event(dto.EventRequest{Type: string(flow.KindConfirm)})

	case "tab":
		if len(args) != 1 {
			return command{}, usage("tab introductions|matches|profile")
		}
		return event(dto.EventRequest{Type: string(flow.KindSelectTab), Tab: args[0]})
	case "refresh":
		return event(dto.EventRequest{Type: string(flow.KindRefreshIntros)})
	case "open", "accept", "decline":
		if len(args) != 1 {
			return command{}, usage(name + " <n|id>")
		}
		kind := map[string]flow.EventKind{
			"open":    flow.KindSelectIntro,
			"accept":  flow.KindAcceptIntro,
			"decline": flow.KindStartDecline,
		}[name]
		return event(dto.EventRequest{Type: string(kind), ID: introRef(st, args[0])})
	case "dismiss":
		return event(dto.EventRequest{Type: string(flow.KindDismissMatchConfirmation)})
	case "reason":
		return event(dto.EventRequest{Type: string(flow.KindSelectDeclineReason), Reason: rest})
	case "confirm-decline":
		return event(dto.EventRequest{Type: string(flow.KindConfirmDecline)})
	case "match":
		if len(args) != 1 {
			return command{}, usage("match <n|id>")
		}
		return event(dto.EventRequest{Type: string(flow.KindSelectMatch), ID: matchRef(st, args[0])})
	case "send":
		if len(args) < 2 {
			return command{}, usage("send <n|id> <text>")
		}
		return event(dto.EventRequest{
			Type:    string(flow.KindSendMessage),
			MatchID: matchRef(st, args[0]),
			Text:    strings.Join(args[1:], " "),
		})
	case "pause", "notify":
		if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
			return command{}, usage(name + " on|off")
		}
		settings := st.Settings
		if name == "pause" {
			settings.Paused = args[0] == "on"
		} else {
			settings.Notifications = args[0] == "on"
		}
		return event(dto.EventRequest{Type: string(flow.KindUpdateSettings), Settings: &settings})

	case "json":
		var req dto.EventRequest
		if err := json.Unmarshal([]byte(rest), &req); err != nil {
			return command{}, fmt.Errorf("%w: json <event object>: %v", errUsage, err)
		}
		return event(req)
	}

	return command{}, fmt.Errorf("unknown command %q, type help", name)
}

// position 把从 1 开始的序号转成下标
func position(args []string) (int, error) {
	if len(args) == 0 {
		return 0, errUsage
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return 0, errUsage
	}
	return n - 1, nil
}

func splitTrim(s, sep string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, sep)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func introRef(st flow.State, ref string) string {
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(st.Main.Intros) {
		return st.Main.Intros[n-1].ID
	}
	return ref
}

func matchRef(st flow.State, ref string) string {
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(st.Main.Matches) {
		return st.Main.Matches[n-1].ID
	}
	return ref
}
