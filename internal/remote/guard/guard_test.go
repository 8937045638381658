package guard

import (
	"context"
	"errors"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/t32remote/internal/logging"
)

func counter(n *atomic.Int32) func() error {
	return func() error {
		n.Add(1)
		return nil
	}
}

func TestRunTearsDownAndRepanics(t *testing.T) {
	var n atomic.Int32
	g := New(counter(&n), func() bool { return true }, logging.Discard())

	assert.PanicsWithValue(t, "boom", func() {
		g.Run(func() { panic("boom") })
	})
	assert.Equal(t, int32(1), n.Load())
	assert.True(t, g.TornDown())

	// A second failure does not tear down again.
	assert.Panics(t, func() {
		g.Run(func() { panic("again") })
	})
	assert.Equal(t, int32(1), n.Load())
}

func TestRunWithoutPanic(t *testing.T) {
	var n atomic.Int32
	g := New(counter(&n), nil, logging.Discard())

	ran := false
	g.Run(func() { ran = true })

	assert.True(t, ran)
	assert.Equal(t, int32(0), n.Load())
}

func TestTeardownSkippedWhenDisconnected(t *testing.T) {
	var n atomic.Int32
	g := New(counter(&n), func() bool { return false }, logging.Discard())

	assert.Panics(t, func() {
		g.Run(func() { panic("boom") })
	})
	assert.Equal(t, int32(0), n.Load())
	assert.False(t, g.TornDown())
}

func TestTeardownError(t *testing.T) {
	want := errors.New("exit failed")
	g := New(func() error { return want }, nil, logging.Discard())

	assert.Equal(t, want, g.Teardown())
	assert.Equal(t, want, g.Teardown())
}

func TestGoRecovers(t *testing.T) {
	var n atomic.Int32
	g := New(counter(&n), nil, logging.Discard())

	got := make(chan any, 1)
	g.Go(func() { panic("worker") }, func(r any) { got <- r })

	select {
	case r := <-got:
		assert.Equal(t, "worker", r)
	case <-time.After(time.Second):
		t.Fatal("onPanic not called")
	}
	assert.Equal(t, int32(1), n.Load())
}

func TestNotifyOnSignal(t *testing.T) {
	var n atomic.Int32
	g := New(counter(&n), nil, logging.Discard())

	ctx, cancel := g.Notify(context.Background(), syscall.SIGUSR1)
	defer cancel()

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGUSR1))

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not cancelled after signal")
	}
	assert.Equal(t, int32(1), n.Load())
}

func TestNotifyStop(t *testing.T) {
	var n atomic.Int32
	g := New(counter(&n), nil, logging.Discard())

	ctx, cancel := g.Notify(context.Background(), syscall.SIGUSR2)
	cancel()
	<-ctx.Done()

	assert.Equal(t, int32(0), n.Load())
}
