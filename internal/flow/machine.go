package flow

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"Kindred/internal/model"
	pkgerrors "Kindred/pkg/errors"
	"Kindred/utils"
)

// Machine 纯函数式的状态机：Apply(state, event) -> state。
// 随机数、时钟、ID 通过 Option 注入，测试时可替换为确定值。
type Machine struct {
	position func() int
	now      func() time.Time
	newID    func() string
}

type Option func(*Machine)

// WithWaitlistPosition 替换排队位置的生成函数
func WithWaitlistPosition(fn func() int) Option {
	return func(m *Machine) { m.position = fn }
}

func WithClock(fn func() time.Time) Option {
	return func(m *Machine) { m.now = fn }
}

func WithIDGenerator(fn func() string) Option {
	return func(m *Machine) { m.newID = fn }
}

func NewMachine(opts ...Option) *Machine {
	m := &Machine{
		position: randomWaitlistPosition,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func randomWaitlistPosition() int {
	return model.WaitlistPositionMin + rand.IntN(model.WaitlistPositionMax-model.WaitlistPositionMin)
}

// Apply 返回新状态和需要执行的副作用。
// 出错时返回原状态；校验不通过（比如照片不足）不是错误，状态保持不变。
func (m *Machine) Apply(s State, e Event) (State, []Command, error) {
	if e == nil {
		return s, nil, pkgerrors.EventUnknown
	}

	next, cmds, err := m.apply(s.Clone(), e)
	if err != nil {
		return s, nil, err
	}
	return next, cmds, nil
}

func (m *Machine) apply(s State, e Event) (State, []Command, error) {
	switch ev := e.(type) {
	case SetMode:
		return m.setMode(s, ev)
	case Back:
		if s.Mode == ModeMainApp {
			return m.backMain(s), nil, nil
		}
		return m.back(s), nil, nil
	case VerificationSettled:
		return m.settleVerification(s, ev)
	case IntrosLoaded:
		return m.loadIntros(s, ev), nil, nil
	}

	switch s.Mode {
	case ModeOnboarding:
		if isMainEvent(e) {
			return s, nil, invalid(pkgerrors.MainAppEventInvalid, s, e)
		}
		return m.applyOnboarding(s, e)
	case ModeMainApp:
		if !isMainEvent(e) {
			return s, nil, invalid(pkgerrors.OnboardingStepInvalid, s, e)
		}
		return m.applyMain(s, e)
	default:
		return s, nil, invalid(pkgerrors.ModeInvalid, s, e)
	}
}

func invalid(def pkgerrors.Definition, s State, e Event) error {
	return fmt.Errorf("%w: %s at %s/%s", def, e.Kind(), s.Mode, s.Step)
}

func (m *Machine) setMode(s State, ev SetMode) (State, []Command, error) {
	if ev.Mode == s.Mode {
		return s, nil, nil
	}
	// main-app 只能从 profile-complete 进入
	switch {
	case s.Mode == ModeOnboarding && ev.Mode == ModeShowcase,
		s.Mode == ModeShowcase && ev.Mode == ModeOnboarding:
		s.Mode = ev.Mode
		return s, nil, nil
	default:
		return s, nil, invalid(pkgerrors.ModeInvalid, s, ev)
	}
}

// enter 切换步骤并执行进入时的钩子
func (m *Machine) enter(s *State, step Step) {
	s.Step = step
	if step == StepProfileReview && !s.SummaryInitialized {
		if s.Profile.Summary.IsEmpty() {
			s.Profile.Summary = defaultSummary(s.Profile)
		}
		s.SummaryInitialized = true
	}
}

func (m *Machine) back(s State) State {
	if s.Mode != ModeOnboarding {
		return s
	}
	prev, ok := Predecessor(s)
	if !ok {
		return s
	}
	m.enter(&s, prev)
	return s
}

func expect(s State, e Event, steps ...Step) error {
	for _, step := range steps {
		if s.Step == step {
			return nil
		}
	}
	return invalid(pkgerrors.OnboardingStepInvalid, s, e)
}

func (m *Machine) applyOnboarding(s State, e Event) (State, []Command, error) {
	switch ev := e.(type) {
	case Continue:
		return m.continueOnboarding(s, ev)

	case SelectCity:
		if err := expect(s, ev, StepCitySelection); err != nil {
			return s, nil, err
		}
		if strings.TrimSpace(ev.City) == "" {
			return s, nil, nil
		}
		loc := model.LocationData{
			City:         strings.TrimSpace(ev.City),
			Neighborhood: strings.TrimSpace(ev.Neighborhood),
			IsWaitlisted: ev.Waitlisted,
		}
		if ev.Waitlisted {
			pos := m.position()
			loc.WaitlistPosition = &pos
			s.Location = &loc
			m.enter(&s, StepWaitlist)
		} else {
			s.Location = &loc
			m.enter(&s, StepOTPLogin)
		}
		return s, nil, nil

	case SubmitInviteCode:
		if err := expect(s, ev, StepWaitlist); err != nil {
			return s, nil, err
		}
		if strings.TrimSpace(ev.Code) == "" {
			return s, nil, nil
		}
		m.enter(&s, StepOTPLogin)
		return s, nil, nil

	case SubmitOTP:
		if err := expect(s, ev, StepOTPLogin); err != nil {
			return s, nil, err
		}
		if !utils.ValidatePhone(ev.Phone) || !utils.ValidateOTPCode(ev.Code) {
			return s, nil, nil
		}
		m.enter(&s, StepVerificationIntro)
		return s, nil, nil

	case SubmitCapture:
		if err := expect(s, ev, StepVerificationCapture); err != nil {
			return s, nil, err
		}
		if len(ev.Photo) == 0 {
			return s, nil, pkgerrors.VerificationPhotoEmpty
		}
		s.Verification.Attempt++
		s.Verification.Message = ""
		m.enter(&s, StepVerificationInProgress)
		return s, []Command{VerifyPhoto{Attempt: s.Verification.Attempt, Photo: ev.Photo}}, nil

	case RetryVerification:
		if err := expect(s, ev, StepVerificationFailure); err != nil {
			return s, nil, err
		}
		m.enter(&s, StepVerificationCapture)
		return s, nil, nil

	case ChoosePlan:
		if err := expect(s, ev, StepSoftPaywall); err != nil {
			return s, nil, err
		}
		if ev.Plan != "" && !model.IsSubscriptionPlan(ev.Plan) {
			return s, nil, pkgerrors.PlanUnknown
		}
		s.Plan = ev.Plan
		m.enter(&s, StepProfilePhotos)
		return s, nil, nil

	case AddPhoto:
		if err := expect(s, ev, StepProfilePhotos); err != nil {
			return s, nil, err
		}
		if ev.Ref == "" || len(s.Profile.Photos) >= model.MaxProfilePhotos {
			return s, nil, nil
		}
		s.Profile.Photos = append(s.Profile.Photos, ev.Ref)
		return s, nil, nil

	case RemovePhoto:
		if err := expect(s, ev, StepProfilePhotos); err != nil {
			return s, nil, err
		}
		if ev.Index < 0 || ev.Index >= len(s.Profile.Photos) {
			return s, nil, pkgerrors.PhotoIndexInvalid
		}
		s.Profile.Photos = append(s.Profile.Photos[:ev.Index], s.Profile.Photos[ev.Index+1:]...)
		return s, nil, nil

	case UpdateBasics:
		if err := expect(s, ev, StepProfileBasics); err != nil {
			return s, nil, err
		}
		s.Profile.Basics = ev.Basics
		return s, nil, nil

	case AnswerLifeMap:
		if err := expect(s, ev, StepProfileLifeMap); err != nil {
			return s, nil, err
		}
		if ev.Index < 0 || ev.Index >= len(model.LifeMapPrompts) {
			return s, nil, pkgerrors.LifeMapIndexInvalid
		}
		if len(s.Profile.LifeMap) != len(model.LifeMapPrompts) {
			answers := make([]string, len(model.LifeMapPrompts))
			copy(answers, s.Profile.LifeMap)
			s.Profile.LifeMap = answers
		}
		s.Profile.LifeMap[ev.Index] = ev.Answer
		return s, nil, nil

	case EditSummary:
		if err := expect(s, ev, StepProfileReview); err != nil {
			return s, nil, err
		}
		s.Profile.Summary = ev.Summary
		s.SummaryInitialized = true
		return s, nil, nil

	case ToggleNonNegotiable:
		if err := expect(s, ev, StepProfileNonNegotiables); err != nil {
			return s, nil, err
		}
		if !model.IsNonNegotiableOption(ev.Label) {
			return s, nil, pkgerrors.NonNegotiableUnknown
		}
		s.Profile.NonNegotiables = toggle(s.Profile.NonNegotiables, ev.Label, model.MaxNonNegotiables)
		return s, nil, nil

	case UpdatePreferences:
		if err := expect(s, ev, StepProfilePreferences); err != nil {
			return s, nil, err
		}
		prefs := s.Profile.Preferences
		if ev.Preferences.AgeMin != "" {
			prefs.AgeMin = ev.Preferences.AgeMin
		}
		if ev.Preferences.AgeMax != "" {
			prefs.AgeMax = ev.Preferences.AgeMax
		}
		if ev.Preferences.Distance != "" {
			prefs.Distance = ev.Preferences.Distance
		}
		s.Profile.Preferences = prefs
		return s, nil, nil

	case Confirm:
		if err := expect(s, ev, StepProfileComplete); err != nil {
			return s, nil, err
		}
		s.Mode = ModeMainApp
		s.Main.Tab = TabIntroductions
		s.Main.IntroScreen = IntroList
		s.Main.SelectedIntroID = ""
		s.Main.SelectedMatchID = ""
		fetch := m.beginFetch(&s)
		announce := Announce{
			Topic: TopicOnboardingCompleted,
			Attributes: map[string]string{
				"city":            locationCity(s.Location),
				"plan":            s.Plan,
				"photos":          strconv.Itoa(len(s.Profile.Photos)),
				"non_negotiables": strconv.Itoa(len(s.Profile.NonNegotiables)),
			},
		}
		return s, []Command{fetch, announce}, nil
	}

	return s, nil, invalid(pkgerrors.EventUnknown, s, e)
}

func (m *Machine) continueOnboarding(s State, ev Continue) (State, []Command, error) {
	if s.Step == StepProfileComplete {
		return m.applyOnboarding(s, Confirm{})
	}
	next, ok := forwardTable[s.Step]
	if !ok {
		return s, nil, invalid(pkgerrors.OnboardingStepInvalid, s, ev)
	}
	if s.Step == StepProfilePhotos && len(s.Profile.Photos) < model.MinProfilePhotos {
		return s, nil, nil
	}
	m.enter(&s, next)
	return s, nil, nil
}

// settleVerification 三路分支；过期的尝试直接忽略。
// 组件展示模式下同样推进步骤，模式保持不变
func (m *Machine) settleVerification(s State, ev VerificationSettled) (State, []Command, error) {
	if s.Step != StepVerificationInProgress || ev.Attempt != s.Verification.Attempt {
		return s, nil, nil
	}

	status := ev.Response.Status
	switch {
	case ev.Err != nil:
		status = model.VerificationFailure
		s.Verification.Message = ev.Err.Error()
		if s.Verification.Message == "" {
			s.Verification.Message = model.DefaultVerificationFailureMessage
		}
		m.enter(&s, StepVerificationFailure)
	case status == model.VerificationSuccess:
		m.enter(&s, StepVerificationSuccess)
	case status == model.VerificationManualReview:
		s.Verification.Message = ev.Response.Message
		m.enter(&s, StepVerificationManualReview)
	default:
		status = model.VerificationFailure
		s.Verification.Message = ev.Response.Message
		if s.Verification.Message == "" {
			s.Verification.Message = model.DefaultVerificationFailureMessage
		}
		m.enter(&s, StepVerificationFailure)
	}
	s.Verification.LastStatus = status

	return s, []Command{Announce{
		Topic: TopicVerificationSettled,
		Attributes: map[string]string{
			"status":  string(status),
			"attempt": strconv.Itoa(ev.Attempt),
		},
	}}, nil
}

func toggle(selected []string, label string, limit int) []string {
	for i, l := range selected {
		if l == label {
			return append(selected[:i], selected[i+1:]...)
		}
	}
	if len(selected) >= limit {
		return selected
	}
	return append(selected, label)
}

func locationCity(loc *model.LocationData) string {
	if loc == nil {
		return ""
	}
	return loc.City
}
