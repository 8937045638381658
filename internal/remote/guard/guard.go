// Package guard releases the debugger connection when the process fails.
//
// A TRACE32 instance keeps serving a client socket until the client calls
// Exit. A crashed or interrupted program that never calls it leaves the
// debugger blocked for other clients, so panics and termination signals run
// a teardown before the process goes away.
package guard

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/sirupsen/logrus"
)

// Guard runs a teardown at most once on panic or signal.
type Guard struct {
	teardown  func() error
	connected func() bool
	log       logrus.FieldLogger

	mu  sync.Mutex
	err error
	ran atomic.Bool
}

// New creates a guard. teardown is skipped while connected reports false; a
// nil connected always tears down.
func New(teardown func() error, connected func() bool, log logrus.FieldLogger) *Guard {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Guard{teardown: teardown, connected: connected, log: log}
}

// Teardown runs the teardown if the connection is up. Once it has run,
// later calls return its result without running it again.
func (g *Guard) Teardown() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.ran.Load() {
		return g.err
	}
	if g.connected != nil && !g.connected() {
		return nil
	}
	g.ran.Store(true)
	g.err = g.teardown()
	if g.err != nil {
		g.log.WithError(g.err).Error("releasing debugger connection failed")
	}
	return g.err
}

// TornDown reports whether the teardown ran.
func (g *Guard) TornDown() bool {
	return g.ran.Load()
}

// Run calls fn. If fn panics, the teardown runs and the panic continues.
func (g *Guard) Run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			g.log.WithField("panic", r).Error("panic, releasing debugger connection")
			_ = g.Teardown()
			panic(r)
		}
	}()
	fn()
}

// Go runs fn in a goroutine. On panic the teardown runs; then onPanic is
// called, or the panic continues when onPanic is nil.
func (g *Guard) Go(fn func(), onPanic func(recovered any)) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				g.log.WithField("panic", r).Error("goroutine panic, releasing debugger connection")
				_ = g.Teardown()
				if onPanic == nil {
					panic(r)
				}
				onPanic(r)
			}
		}()
		fn()
	}()
}

// Notify tears down when one of signals arrives (SIGINT and SIGTERM when
// none are given) and cancels the returned context afterwards. Call the
// cancel function to stop listening.
func (g *Guard) Notify(ctx context.Context, signals ...os.Signal) (context.Context, context.CancelFunc) {
	if len(signals) == 0 {
		signals = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}

	ctx, cancel := context.WithCancel(ctx)
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, signals...)

	go func() {
		defer signal.Stop(ch)
		select {
		case sig := <-ch:
			g.log.WithField("signal", sig.String()).Warn("signal received, releasing debugger connection")
			_ = g.Teardown()
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
