package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"Kindred/config"
	"Kindred/internal/flow"
	"Kindred/internal/service"
	"Kindred/pkg/intro"
	"Kindred/pkg/logger"
	"Kindred/pkg/snowflake"
	"Kindred/pkg/verifier"
)

// defaultPhoto capture 不带参数时提交的占位照片
var defaultPhoto = []byte("walkthrough-selfie")

func main() {
	cfg := config.Cfg

	scriptPath := flag.String("script", "", "run commands from a TOML script instead of stdin")
	outcome := flag.String("outcome", cfg.VerifierMockOutcome, "verification outcome: random, success, failure, manual-review, error")
	verifyDelay := flag.Duration("verify-delay", cfg.VerifierMockDelay, "mock verification latency")
	introDelay := flag.Duration("intro-delay", cfg.IntroMockDelay, "mock introductions latency")
	verbose := flag.Bool("v", false, "write service logs to stderr")
	flag.Parse()

	if *verbose {
		logger.Init()
		defer logger.Sync()
	}

	if err := run(*scriptPath, *outcome, *verifyDelay, *introDelay); err != nil {
		fmt.Fprintf(os.Stderr, "walkthrough: %v\n", err)
		os.Exit(1)
	}
}

func run(scriptPath, outcomeName string, verifyDelay, introDelay time.Duration) error {
	cfg := config.Cfg

	outcome, err := verifier.ParseOutcome(outcomeName)
	if err != nil {
		return err
	}
	if err := snowflake.Init(cfg.SnowflakeMachineID, cfg.SnowflakeDataCenter); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	wt := newWalkthrough(os.Stdout, func(obs func(service.Snapshot)) *service.FlowService {
		return service.NewFlowService(service.FlowDeps{
			Machine:  flow.NewMachine(),
			Intros:   intro.NewMockClient(introDelay, cfg.IntroMockCount),
			Verifier: verifier.NewMockClient(verifyDelay, outcome),
			Observer: obs,
		})
	})
	defer wt.shutdown()

	if err := wt.start(ctx); err != nil {
		return err
	}

	if scriptPath != "" {
		sc, err := loadScript(scriptPath)
		if err != nil {
			return err
		}
		return wt.runScript(ctx, sc)
	}
	return wt.interactive(ctx, os.Stdin)
}

// walkthrough 单会话的终端渲染器
type walkthrough struct {
	out io.Writer
	svc *service.FlowService
	id  string

	// 同步命令和异步结果都会触发打印，按版本号去重
	mu      sync.Mutex
	printed int64
	ready   bool
}

func newWalkthrough(out io.Writer, build func(func(service.Snapshot)) *service.FlowService) *walkthrough {
	wt := &walkthrough{out: out, printed: -1}
	wt.svc = build(wt.observe)
	return wt
}

func (wt *walkthrough) start(ctx context.Context) error {
	snap, err := wt.svc.Create(ctx)
	if err != nil {
		return err
	}

	wt.mu.Lock()
	wt.id = snap.SessionID
	wt.ready = true
	wt.mu.Unlock()

	wt.print(snap, false)
	return nil
}

func (wt *walkthrough) observe(snap service.Snapshot) {
	wt.mu.Lock()
	ready := wt.ready && snap.SessionID == wt.id
	wt.mu.Unlock()
	if ready {
		wt.print(snap, false)
	}
}

func (wt *walkthrough) print(snap service.Snapshot, force bool) {
	wt.mu.Lock()
	defer wt.mu.Unlock()
	if !force && snap.Version <= wt.printed {
		return
	}
	if snap.Version > wt.printed {
		wt.printed = snap.Version
	}
	render(wt.out, snap)
}

func (wt *walkthrough) current(ctx context.Context) (service.Snapshot, error) {
	return wt.svc.Get(ctx, wt.id)
}

// exec 执行一条命令，返回 false 表示退出
func (wt *walkthrough) exec(ctx context.Context, line string, photo []byte) (bool, error) {
	snap, err := wt.current(ctx)
	if err != nil {
		return false, err
	}

	cmd, err := parseCommand(line, snap.State)
	if err != nil {
		return true, err
	}

	switch cmd.kind {
	case cmdNone:
		return true, nil
	case cmdQuit:
		return false, nil
	case cmdHelp:
		fmt.Fprintln(wt.out, helpText)
		return true, nil
	case cmdShow:
		wt.print(snap, true)
		return true, nil
	case cmdBack:
		snap, err = wt.svc.Back(ctx, wt.id)
	case cmdCapture:
		if len(cmd.photo) == 0 {
			cmd.photo = photo
		}
		snap, err = wt.svc.SubmitCapture(ctx, wt.id, cmd.photo)
	case cmdEvent:
		ev, convErr := cmd.req.ToEvent()
		if convErr != nil {
			return true, convErr
		}
		snap, err = wt.svc.Dispatch(ctx, wt.id, ev)
	}
	if err != nil {
		return true, err
	}

	wt.print(snap, false)
	return true, nil
}

func (wt *walkthrough) interactive(ctx context.Context, in io.Reader) error {
	fmt.Fprintln(wt.out, "type help for commands")

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			more, err := wt.exec(ctx, line, defaultPhoto)
			if err != nil {
				fmt.Fprintf(wt.out, "  x %v\n", err)
			}
			if !more {
				return nil
			}
		}
	}
}

// runScript 每条命令之后等待加载结束，超过 settle 视为失败
func (wt *walkthrough) runScript(ctx context.Context, sc script) error {
	photo := sc.Photo
	if len(photo) == 0 {
		photo = defaultPhoto
	}

	for i, line := range sc.Commands {
		fmt.Fprintf(wt.out, "\n> %s\n", line)
		more, err := wt.exec(ctx, line, photo)
		if err != nil {
			return fmt.Errorf("command %d %q: %w", i+1, line, err)
		}
		if !more {
			return nil
		}
		if err := wt.settle(ctx, sc.Settle); err != nil {
			return fmt.Errorf("command %d %q: %w", i+1, line, err)
		}
	}
	return nil
}

var errNotSettled = errors.New("screen still loading")

func (wt *walkthrough) settle(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		snap, err := wt.current(ctx)
		if err != nil {
			return err
		}
		if !snap.Screen.Loading {
			return nil
		}
		if time.Now().After(deadline) {
			return errNotSettled
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func (wt *walkthrough) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := wt.svc.Shutdown(ctx); err != nil {
		logger.Logger.Warn("Walkthrough shutdown incomplete", zap.Error(err))
	}
}
