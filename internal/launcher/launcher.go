package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/vinayprograms/bootshim/internal/env"
	"github.com/vinayprograms/bootshim/internal/logging"
)

var (
	ErrRuntimeFailure = errors.New("external runtime failure")
	ErrNotFound       = errors.New("no way to start the runtime: neither " + RuntimeBinary + " nor npx found on PATH")
)

// RuntimeFailure carries the exit code this process should exit with.
type RuntimeFailure struct {
	Code int
	Err  error
}

func (e *RuntimeFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (exit %d): %v", ErrRuntimeFailure, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: exited with code %d", ErrRuntimeFailure, e.Code)
}

func (e *RuntimeFailure) Unwrap() error { return e.Err }

func (e *RuntimeFailure) Is(target error) bool { return target == ErrRuntimeFailure }

// Params configure one launch.
type Params struct {
	Strategy Strategy
	Env      env.Env
	Dir      string
	Stdin    io.Reader
	Stdout   io.Writer
	Stderr   io.Writer
	Logger   *logging.Logger
	// Signals relayed to the child; defaults to SIGINT and SIGTERM.
	Signals []os.Signal
}

// Run starts the runtime, relays termination signals and waits for it.
// The returned code is the child's exit code; a non-zero code comes with a
// *RuntimeFailure.
func Run(ctx context.Context, p Params) (int, error) {
	logger := p.Logger
	if logger == nil {
		logger = logging.New()
	}
	if p.Strategy.Kind == NotFound {
		return 127, &RuntimeFailure{Code: 127, Err: ErrNotFound}
	}

	cmd := exec.CommandContext(ctx, p.Strategy.Program(), p.Strategy.Args()...)
	cmd.Env = p.Env.Pairs()
	cmd.Dir = p.Dir
	cmd.Stdin = orDefault(p.Stdin, os.Stdin)
	cmd.Stdout = orDefaultW(p.Stdout, os.Stdout)
	cmd.Stderr = orDefaultW(p.Stderr, os.Stderr)
	cmd.Cancel = func() error { return cmd.Process.Signal(syscall.SIGTERM) }

	signals := p.Signals
	if len(signals) == 0 {
		signals = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, signals...)
	defer signal.Stop(sigCh)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return 1, &RuntimeFailure{Code: 1, Err: err}
	}
	logger.ChildStart(p.Strategy.Program(), p.Strategy.Args(), cmd.Process.Pid)

	done := make(chan struct{})
	relayed := make(chan struct{})
	go func() {
		defer close(relayed)
		relay(sigCh, cmd.Process, done, func(sig os.Signal) {
			logger.ChildSignal(sig.String())
		})
	}()

	err := cmd.Wait()
	close(done)
	<-relayed

	code := exitCode(err)
	logger.ChildExit(code, time.Since(start))
	if code != 0 {
		return code, &RuntimeFailure{Code: code}
	}
	return 0, nil
}

// signaler is the part of *os.Process the relay needs.
type signaler interface {
	Signal(os.Signal) error
}

// relay forwards every signal from sigs to target until done is closed.
func relay(sigs <-chan os.Signal, target signaler, done <-chan struct{}, onSignal func(os.Signal)) {
	for {
		select {
		case sig := <-sigs:
			if onSignal != nil {
				onSignal(sig)
			}
			_ = target.Signal(sig)
		case <-done:
			return
		}
	}
}

// exitCode maps a Wait error to a shell-style exit code.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return 128 + int(ws.Signal())
		}
		if code := exitErr.ExitCode(); code >= 0 {
			return code
		}
	}
	return 1
}

func orDefault(r io.Reader, def io.Reader) io.Reader {
	if r == nil {
		return def
	}
	return r
}

func orDefaultW(w io.Writer, def io.Writer) io.Writer {
	if w == nil {
		return def
	}
	return w
}
