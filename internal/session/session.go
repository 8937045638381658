// Package session drives a debugging session on top of the remote client:
// target state tracking, PRACTICE and Lua script runs, breakpoints and
// variable watches.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dshills/t32remote/internal/remote/client"
)

// DefaultPollInterval is used when a wait gets a non-positive interval.
const DefaultPollInterval = 50 * time.Millisecond

var (
	// ErrScriptDialog is returned when a PRACTICE script stops in a dialog
	// that needs user input.
	ErrScriptDialog = errors.New("PRACTICE script waits in a dialog")

	// ErrUnsupportedScript is returned by RunFile for unknown extensions.
	ErrUnsupportedScript = errors.New("unsupported script type")
)

// Target is the part of the remote client a session drives.
type Target interface {
	State() (client.TargetState, error)
	Go() error
	Break() error
	Step() error
	ReadPP() (uint32, error)

	Cmd(cmd string) error
	Cmdf(format string, args ...any) error
	PracticeState() (client.PracticeState, error)
	Stop() error
	ExecuteLua(script string) (string, error)

	Symbol(name string) (client.Symbol, error)
	ReadVariableString(name string) (string, error)
	ReadVariableValue(name string) (uint64, error)
	WriteVariableValue(name string, v uint64) error
}

var _ Target = (*client.Client)(nil)

// Handlers contains callbacks for session events.
type Handlers struct {
	// OnStateChanged is called when a poll observes a new target state.
	OnStateChanged func(old, new client.TargetState)

	// OnScriptFinished is called after RunFile completes.
	OnScriptFinished func(path string, err error)
}

// Session tracks one target.
type Session struct {
	target Target
	log    logrus.FieldLogger

	state   client.TargetState
	polled  bool
	stateMu sync.RWMutex

	handlers   Handlers
	handlersMu sync.RWMutex
}

// New creates a session for target.
func New(target Target, log logrus.FieldLogger) *Session {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Session{target: target, log: log}
}

// Target returns the driven target.
func (s *Session) Target() Target { return s.target }

// SetHandlers sets the session event handlers.
func (s *Session) SetHandlers(h Handlers) {
	s.handlersMu.Lock()
	s.handlers = h
	s.handlersMu.Unlock()
}

// State returns the state seen by the last poll.
func (s *Session) State() client.TargetState {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

func (s *Session) setState(state client.TargetState) {
	s.stateMu.Lock()
	old, first := s.state, !s.polled
	s.state = state
	s.polled = true
	s.stateMu.Unlock()

	if !first && old == state {
		return
	}
	s.log.WithFields(logrus.Fields{"from": old.String(), "to": state.String()}).Debug("target state changed")

	s.handlersMu.RLock()
	handler := s.handlers.OnStateChanged
	s.handlersMu.RUnlock()
	if handler != nil && !first {
		handler(old, state)
	}
}

// Poll reads the target state.
func (s *Session) Poll() (client.TargetState, error) {
	st, err := s.target.State()
	if err != nil {
		return st, err
	}
	s.setState(st)
	return st, nil
}

// WaitForState polls every interval until the target reaches want or ctx
// is done.
func (s *Session) WaitForState(ctx context.Context, want client.TargetState, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		st, err := s.Poll()
		if err != nil {
			return err
		}
		if st == want {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for %s, target %s: %w", want, st, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Continue starts the target.
func (s *Session) Continue() error {
	if err := s.target.Go(); err != nil {
		return fmt.Errorf("continue: %w", err)
	}
	_, err := s.Poll()
	return err
}

// Pause stops the target.
func (s *Session) Pause() error {
	if err := s.target.Break(); err != nil {
		return fmt.Errorf("pause: %w", err)
	}
	_, err := s.Poll()
	return err
}

// StepN executes n single steps and returns the program counter after the
// last one.
func (s *Session) StepN(n int) (uint32, error) {
	if n < 1 {
		return 0, fmt.Errorf("step count %d must be positive", n)
	}
	for i := 0; i < n; i++ {
		if err := s.target.Step(); err != nil {
			return 0, fmt.Errorf("step %d of %d: %w", i+1, n, err)
		}
	}
	return s.target.ReadPP()
}

// RunScript starts a PRACTICE script with DO and waits until it ends. When
// ctx is done first, the script is stopped.
func (s *Session) RunScript(ctx context.Context, path string, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if err := s.target.Cmdf("DO \"%s\"", path); err != nil {
		return fmt.Errorf("start %s: %w", path, err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		st, err := s.target.PracticeState()
		if err != nil {
			return fmt.Errorf("poll %s: %w", path, err)
		}
		switch st {
		case client.PracticeIdle:
			return nil
		case client.PracticeDialog:
			return fmt.Errorf("%s: %w", path, ErrScriptDialog)
		}

		select {
		case <-ctx.Done():
			if err := s.target.Stop(); err != nil {
				s.log.WithError(err).Warn("stopping PRACTICE script failed")
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunFile runs a .cmm file as PRACTICE script or a .lua file in the
// debugger's Lua interpreter. The Lua result is returned.
func (s *Session) RunFile(ctx context.Context, path string) (result string, err error) {
	start := time.Now()
	defer func() {
		entry := s.log.WithFields(logrus.Fields{"path": path, "duration": time.Since(start)})
		if err != nil {
			entry.WithError(err).Warn("script failed")
		} else {
			entry.Info("script finished")
		}

		s.handlersMu.RLock()
		handler := s.handlers.OnScriptFinished
		s.handlersMu.RUnlock()
		if handler != nil {
			handler(path, err)
		}
	}()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".cmm":
		return "", s.RunScript(ctx, path, 0)
	case ".lua":
		src, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read script: %w", err)
		}
		return s.target.ExecuteLua(string(src))
	default:
		return "", fmt.Errorf("%s: %w", path, ErrUnsupportedScript)
	}
}
