package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"Kindred/internal/flow"
	"Kindred/internal/queue"
	pkgerrors "Kindred/pkg/errors"
	"Kindred/pkg/intro"
	"Kindred/pkg/logger"
	"Kindred/pkg/metrics"
	"Kindred/pkg/snowflake"
	"Kindred/pkg/verifier"
	"Kindred/utils"
)

const (
	defaultIdleTTL  = 30 * time.Minute
	announceTimeout = 5 * time.Second
)

var (
	flowService *FlowService
	flowMu      sync.RWMutex
)

// InitFlow 设置全局 FlowService，handler 通过 Flow() 获取
func InitFlow(deps FlowDeps) *FlowService {
	s := NewFlowService(deps)

	flowMu.Lock()
	flowService = s
	flowMu.Unlock()

	return s
}

func Flow() *FlowService {
	flowMu.RLock()
	defer flowMu.RUnlock()
	if flowService == nil {
		panic("Flow service not initialized, call service.InitFlow() first")
	}
	return flowService
}

// FlowDeps FlowService 的依赖，零值字段使用默认实现
type FlowDeps struct {
	Machine   *flow.Machine
	Intros    intro.Provider
	Verifier  verifier.Submitter
	Publisher queue.Publisher

	IdleTTL time.Duration
	NewID   func() (string, error)
	Now     func() time.Time

	// Observer 每次状态变化后调用（包括异步结果），不持有会话锁
	Observer func(Snapshot)
}

// Snapshot 会话在某一时刻的只读视图
type Snapshot struct {
	SessionID string      `json:"session_id"`
	Version   int64       `json:"version"`
	State     flow.State  `json:"state"`
	Screen    flow.Screen `json:"screen"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// FlowService 持有所有流程会话。
// 同一会话的事件串行执行；异步协作方的结果绑定在发起时的屏幕上下文，
// 离开该屏幕或关闭会话时上下文被取消，结果被丢弃。
type FlowService struct {
	machine   *flow.Machine
	intros    intro.Provider
	verifier  verifier.Submitter
	publisher queue.Publisher
	idleTTL   time.Duration
	newID     func() (string, error)
	now       func() time.Time
	observer  func(Snapshot)

	baseCtx  context.Context
	stop     context.CancelFunc
	wg       sync.WaitGroup
	stopMu   sync.Mutex
	stopping bool

	mu       sync.RWMutex
	sessions map[string]*session
}

type session struct {
	mu         sync.Mutex
	id         string
	state      flow.State
	version    int64
	lastActive time.Time
	closed     bool
	closedAt   time.Time

	screenKey    string
	screenCtx    context.Context
	cancelScreen context.CancelFunc
}

func NewFlowService(deps FlowDeps) *FlowService {
	if deps.Machine == nil {
		deps.Machine = flow.NewMachine()
	}
	if deps.Publisher == nil {
		deps.Publisher = queue.LogPublisher{}
	}
	if deps.IdleTTL <= 0 {
		deps.IdleTTL = defaultIdleTTL
	}
	if deps.NewID == nil {
		deps.NewID = snowflake.NextString
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &FlowService{
		machine:   deps.Machine,
		intros:    deps.Intros,
		verifier:  deps.Verifier,
		publisher: deps.Publisher,
		idleTTL:   deps.IdleTTL,
		newID:     deps.NewID,
		now:       deps.Now,
		observer:  deps.Observer,
		baseCtx:   ctx,
		stop:      cancel,
		sessions:  make(map[string]*session),
	}
}

// Create 新建会话，初始处于引导模式的 welcome 步骤
func (s *FlowService) Create(ctx context.Context) (Snapshot, error) {
	id, err := s.newID()
	if err != nil {
		logger.Logger.Error("Failed to generate session id", zap.Error(err))
		return Snapshot{}, fmt.Errorf("%w: %v", pkgerrors.Internal, err)
	}

	sess := &session{
		id:         id,
		state:      flow.NewState(),
		lastActive: s.now(),
	}
	s.bindScreen(sess)

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	metrics.GetMetrics().UpdateActiveSessions(ctx, 1)
	logger.Logger.Info("Flow session created", zap.String("session_id", id))

	sess.mu.Lock()
	snap := sess.snapshot()
	sess.mu.Unlock()

	s.notify(snap)
	return snap, nil
}

// Get 读取会话快照，同时刷新活跃时间
func (s *FlowService) Get(ctx context.Context, id string) (Snapshot, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return Snapshot{}, pkgerrors.SessionClosed
	}
	sess.lastActive = s.now()
	return sess.snapshot(), nil
}

// Dispatch 把一个事件交给状态机，返回事件生效后的快照
func (s *FlowService) Dispatch(ctx context.Context, id string, ev flow.Event) (Snapshot, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}

	sess.mu.Lock()
	if sess.closed {
		sess.mu.Unlock()
		return Snapshot{}, pkgerrors.SessionClosed
	}
	snap, changed, err := s.applyLocked(ctx, sess, ev)
	sess.mu.Unlock()

	if err != nil {
		return Snapshot{}, err
	}
	if changed {
		s.notify(snap)
	}
	return snap, nil
}

func (s *FlowService) Back(ctx context.Context, id string) (Snapshot, error) {
	return s.Dispatch(ctx, id, flow.Back{})
}

// SubmitCapture 提交核验照片，空照片直接拒绝，不进入状态机
func (s *FlowService) SubmitCapture(ctx context.Context, id string, photo []byte) (Snapshot, error) {
	if len(photo) == 0 {
		return Snapshot{}, verifier.ErrEmptyPhoto
	}
	return s.Dispatch(ctx, id, flow.SubmitCapture{Photo: photo})
}

// Close 关闭会话并取消其未完成的异步调用，会话保留为墓碑直到过期清理
func (s *FlowService) Close(ctx context.Context, id string) error {
	sess, err := s.lookup(id)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return pkgerrors.SessionClosed
	}
	s.closeLocked(ctx, sess, "client")
	return nil
}

func (s *FlowService) closeLocked(ctx context.Context, sess *session, reason string) {
	sess.closed = true
	sess.closedAt = s.now()
	if sess.cancelScreen != nil {
		sess.cancelScreen()
	}

	metrics.GetMetrics().UpdateActiveSessions(ctx, -1)
	logger.Logger.Info("Flow session closed",
		zap.String("session_id", sess.id),
		zap.String("reason", reason),
		zap.String("step", string(sess.state.Step)),
	)
}

// Run 定期关闭空闲会话并清理墓碑，ctx 结束时返回
func (s *FlowService) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep 执行一次清理，返回关闭与删除的会话数
func (s *FlowService) Sweep(ctx context.Context) (closed, removed int) {
	now := s.now()

	s.mu.RLock()
	all := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		all = append(all, sess)
	}
	s.mu.RUnlock()

	var expired []string
	for _, sess := range all {
		sess.mu.Lock()
		switch {
		case !sess.closed && now.Sub(sess.lastActive) >= s.idleTTL:
			s.closeLocked(ctx, sess, "idle")
			closed++
		case sess.closed && now.Sub(sess.closedAt) >= s.idleTTL:
			expired = append(expired, sess.id)
		}
		sess.mu.Unlock()
	}

	if len(expired) > 0 {
		s.mu.Lock()
		for _, id := range expired {
			delete(s.sessions, id)
		}
		s.mu.Unlock()
		removed = len(expired)
	}

	if closed > 0 || removed > 0 {
		logger.Logger.Debug("Flow sessions swept", zap.Int("closed", closed), zap.Int("removed", removed))
	}
	return closed, removed
}

// Shutdown 取消所有异步调用并等待其退出
func (s *FlowService) Shutdown(ctx context.Context) error {
	s.stopMu.Lock()
	s.stopping = true
	s.stop()
	s.stopMu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *FlowService) lookup(id string) (*session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, pkgerrors.SessionNotFound
	}
	return sess, nil
}

// applyLocked 执行事件；状态未变且没有命令时不递增版本，changed 为 false
func (s *FlowService) applyLocked(ctx context.Context, sess *session, ev flow.Event) (Snapshot, bool, error) {
	prev := sess.state
	next, cmds, err := s.machine.Apply(prev, ev)
	if err != nil {
		metrics.GetMetrics().RecordRejected(ctx, string(prev.Mode), string(prev.Step), string(ev.Kind()))
		logger.Logger.Debug("Flow event rejected",
			zap.String("session_id", sess.id),
			zap.String("event", string(ev.Kind())),
			zap.Error(err),
		)
		return Snapshot{}, false, err
	}

	sess.lastActive = s.now()
	if len(cmds) == 0 && flow.Equal(prev, next) {
		return sess.snapshot(), false, nil
	}
	sess.state = next
	sess.version++

	if next.Mode != prev.Mode || next.Step != prev.Step {
		metrics.GetMetrics().RecordTransition(ctx, string(next.Mode), string(prev.Step), string(next.Step), string(ev.Kind()))
		logger.Logger.Info("Flow transition",
			zap.String("session_id", sess.id),
			zap.String("event", string(ev.Kind())),
			zap.String("from", string(prev.Mode)+"/"+string(prev.Step)),
			zap.String("to", string(next.Mode)+"/"+string(next.Step)),
		)
	}
	if otp, ok := ev.(flow.SubmitOTP); ok && next.Step != prev.Step {
		logger.Logger.Info("Phone verified", zap.String("session_id", sess.id), zap.String("phone_hash", utils.HashPhone(otp.Phone)))
	}

	s.bindScreen(sess)
	s.execute(ctx, sess, cmds)

	return sess.snapshot(), true, nil
}

// screenKey 标识当前屏幕。
// 组件展示模式只是覆盖层，不改变引导步骤；主应用中每次拉取推荐视为新屏幕
func screenKey(st flow.State) string {
	if st.Mode == flow.ModeMainApp {
		return string(st.Mode) + "#" + strconv.Itoa(st.Main.FetchGeneration)
	}
	return string(flow.ModeOnboarding) + "/" + string(st.Step)
}

// bindScreen 屏幕变化时取消旧上下文
func (s *FlowService) bindScreen(sess *session) {
	key := screenKey(sess.state)
	if key == sess.screenKey && sess.screenCtx != nil {
		return
	}
	if sess.cancelScreen != nil {
		sess.cancelScreen()
	}
	sess.screenKey = key
	sess.screenCtx, sess.cancelScreen = context.WithCancel(s.baseCtx)
}

func (s *FlowService) execute(ctx context.Context, sess *session, cmds []flow.Command) {
	for _, cmd := range cmds {
		switch c := cmd.(type) {
		case flow.VerifyPhoto:
			s.verify(sess.id, sess.screenCtx, c)
		case flow.FetchIntros:
			s.fetchIntros(sess.id, sess.screenCtx, c)
		case flow.Announce:
			s.announce(ctx, sess.id, c)
		}
	}
}

func (s *FlowService) verify(id string, screenCtx context.Context, cmd flow.VerifyPhoto) {
	if s.verifier == nil {
		s.deliverAsync(id, screenCtx, flow.VerificationSettled{
			Attempt: cmd.Attempt,
			Err:     errors.New("verification service unavailable"),
		})
		return
	}

	s.spawn(func() {
		start := time.Now()
		resp, err := s.verifier.Submit(screenCtx, cmd.Photo)

		status := string(resp.Status)
		if err != nil {
			status = "error"
		}
		metrics.GetMetrics().RecordVerification(screenCtx, status, time.Since(start).Seconds())

		if screenCtx.Err() != nil {
			logger.Logger.Debug("Verification result dropped, screen left",
				zap.String("session_id", id),
				zap.Int("attempt", cmd.Attempt),
			)
			return
		}
		if err != nil {
			logger.Logger.Warn("Verification call failed",
				zap.String("session_id", id),
				zap.Int("attempt", cmd.Attempt),
				zap.Error(err),
			)
		}
		s.deliver(id, flow.VerificationSettled{Attempt: cmd.Attempt, Response: resp, Err: err})
	})
}

func (s *FlowService) fetchIntros(id string, screenCtx context.Context, cmd flow.FetchIntros) {
	if s.intros == nil {
		s.deliverAsync(id, screenCtx, flow.IntrosLoaded{
			Generation: cmd.Generation,
			Err:        errors.New("intro provider unavailable"),
		})
		return
	}

	s.spawn(func() {
		start := time.Now()
		intros, err := s.intros.FetchIntros(screenCtx)
		metrics.GetMetrics().RecordIntroFetch(screenCtx, time.Since(start).Seconds(), err)

		if screenCtx.Err() != nil {
			return
		}
		if err != nil {
			logger.Logger.Warn("Intro fetch failed",
				zap.String("session_id", id),
				zap.Int("generation", cmd.Generation),
				zap.Error(err),
			)
		}
		s.deliver(id, flow.IntrosLoaded{Generation: cmd.Generation, Intros: intros, Err: err})
	})
}

// deliverAsync 没有协作方时也走异步路径，保持事件顺序语义一致
func (s *FlowService) deliverAsync(id string, screenCtx context.Context, ev flow.Event) {
	s.spawn(func() {
		if screenCtx.Err() != nil {
			return
		}
		s.deliver(id, ev)
	})
}

// deliver 把异步结果作为内部事件回灌给会话
func (s *FlowService) deliver(id string, ev flow.Event) {
	sess, err := s.lookup(id)
	if err != nil {
		return
	}

	sess.mu.Lock()
	if sess.closed {
		sess.mu.Unlock()
		return
	}
	snap, changed, err := s.applyLocked(s.baseCtx, sess, ev)
	sess.mu.Unlock()

	if err != nil {
		logger.Logger.Warn("Async result rejected",
			zap.String("session_id", id),
			zap.String("event", string(ev.Kind())),
			zap.Error(err),
		)
		return
	}
	if changed {
		s.notify(snap)
	}
}

func (s *FlowService) announce(ctx context.Context, id string, cmd flow.Announce) {
	msg := queue.FlowEventMessage{
		MessageID:  uuid.NewString(),
		SessionID:  id,
		Topic:      cmd.Topic,
		Attributes: cmd.Attributes,
		OccurredAt: s.now().UTC().Format(time.RFC3339),
	}

	s.spawn(func() {
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), announceTimeout)
		defer cancel()

		err := s.publisher.Publish(pubCtx, msg)
		metrics.GetMetrics().RecordAnnouncement(pubCtx, msg.Topic, err)
	})
}

// spawn 启动受 Shutdown 等待的协程；Shutdown 开始后不再接收新任务
func (s *FlowService) spawn(fn func()) bool {
	s.stopMu.Lock()
	if s.stopping || s.baseCtx.Err() != nil {
		s.stopMu.Unlock()
		return false
	}
	s.wg.Add(1)
	s.stopMu.Unlock()

	go func() {
		defer s.wg.Done()
		fn()
	}()
	return true
}

func (s *FlowService) notify(snap Snapshot) {
	if s.observer != nil {
		s.observer(snap)
	}
}

func (sess *session) snapshot() Snapshot {
	return Snapshot{
		SessionID: sess.id,
		Version:   sess.version,
		State:     sess.state,
		Screen:    flow.Render(sess.state),
		UpdatedAt: sess.lastActive,
	}
}
