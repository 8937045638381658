// Package scriptwatch re-runs debugger scripts when they change on disk.
//
// Editors save a file in bursts of create, write and rename events. The
// watcher coalesces the events of one path within a debounce delay and then
// hands the path to a handler, one run at a time.
package scriptwatch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// DefaultDelay is the debounce delay used when Options.Delay is zero.
const DefaultDelay = 200 * time.Millisecond

// ErrWatcherClosed is returned after Close.
var ErrWatcherClosed = errors.New("watcher is closed")

// Handler runs a changed script.
type Handler func(ctx context.Context, path string)

// Runner runs a script file, e.g. a session.
type Runner interface {
	RunFile(ctx context.Context, path string) (string, error)
}

// RunFiles returns a handler that runs each changed script with r and logs
// the outcome.
func RunFiles(r Runner, log logrus.FieldLogger) Handler {
	return func(ctx context.Context, path string) {
		out, err := r.RunFile(ctx, path)
		if err != nil {
			log.WithError(err).WithField("path", path).Error("script run failed")
			return
		}
		if out != "" {
			log.WithFields(logrus.Fields{"path": path, "result": out}).Info("script result")
		}
	}
}

// Options configures a Watcher.
type Options struct {
	// Delay is the debounce delay.
	Delay time.Duration

	// Extensions lists the script extensions, e.g. ".cmm". Defaults to
	// .cmm and .lua.
	Extensions []string

	Logger logrus.FieldLogger
}

// Stats describes watcher activity.
type Stats struct {
	Events int64
	Runs   int64
	Errors int64
}

// Watcher watches script files.
type Watcher struct {
	fsw     *fsnotify.Watcher
	handler Handler
	delay   time.Duration
	exts    map[string]bool
	log     logrus.FieldLogger

	mu      sync.Mutex
	files   map[string]bool
	pending map[string]*time.Timer
	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup

	// runMu keeps script runs from overlapping.
	runMu sync.Mutex
	ctx   context.Context

	events atomic.Int64
	runs   atomic.Int64
	errs   atomic.Int64
}

// New creates a watcher that calls handler for changed scripts.
func New(handler Handler, opts Options) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = []string{".cmm", ".lua"}
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}

	exts := make(map[string]bool, len(opts.Extensions))
	for _, e := range opts.Extensions {
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts[strings.ToLower(e)] = true
	}

	return &Watcher{
		fsw:     fsw,
		handler: handler,
		delay:   opts.Delay,
		exts:    exts,
		log:     opts.Logger,
		files:   make(map[string]bool),
		pending: make(map[string]*time.Timer),
		closeCh: make(chan struct{}),
		ctx:     context.Background(),
	}, nil
}

// Add watches a directory, or a single script. Watching a script watches
// its directory but only reacts to the scripts added this way.
func (w *Watcher) Add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWatcherClosed
	}

	dir := abs
	if !info.IsDir() {
		dir = filepath.Dir(abs)
		w.files[abs] = true
	}
	return w.fsw.Add(dir)
}

// Run dispatches events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWatcherClosed
	}
	w.ctx = ctx
	w.wg.Add(1)
	w.mu.Unlock()
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.closeCh:
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.errs.Add(1)
			w.log.WithError(err).Warn("file watch error")
		}
	}
}

func (w *Watcher) relevant(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}
	if !w.exts[strings.ToLower(filepath.Ext(base))] {
		return false
	}
	return len(w.files) == 0 || w.files[path]
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || !w.relevant(ev.Name) {
		return
	}
	w.events.Add(1)

	if t, ok := w.pending[ev.Name]; ok {
		t.Reset(w.delay)
		return
	}
	path := ev.Name
	w.pending[path] = time.AfterFunc(w.delay, func() { w.fire(path) })
}

func (w *Watcher) fire(path string) {
	w.mu.Lock()
	if _, ok := w.pending[path]; !ok || w.closed {
		w.mu.Unlock()
		return
	}
	delete(w.pending, path)
	ctx := w.ctx
	w.mu.Unlock()

	w.runMu.Lock()
	defer w.runMu.Unlock()

	w.runs.Add(1)
	w.log.WithField("path", path).Info("script changed, running")
	w.handler(ctx, path)
}

// Flush runs all pending scripts now.
func (w *Watcher) Flush() {
	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for path, t := range w.pending {
		t.Stop()
		paths = append(paths, path)
	}
	w.mu.Unlock()

	for _, path := range paths {
		w.fire(path)
	}
}

// Stats returns activity counters.
func (w *Watcher) Stats() Stats {
	return Stats{Events: w.events.Load(), Runs: w.runs.Load(), Errors: w.errs.Load()}
}

// Close stops the watcher. Pending runs are dropped.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()

	w.wg.Wait()
	return w.fsw.Close()
}
