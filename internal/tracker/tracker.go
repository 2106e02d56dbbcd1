package tracker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/lesson-portal/internal/core/domain"
)

const (
	DefaultLoadDelay    = time.Second
	DefaultPollInterval = 2 * time.Second
)

var ErrAlreadyStarted = errors.New("tracker already started")

type Option func(*Tracker)

// WithObservers replaces the default strategy set.
func WithObservers(observers ...PageObserver) Option {
	return func(t *Tracker) { t.observers = observers }
}

// WithTimings sets the load delay and URL poll interval of the default strategies.
func WithTimings(loadDelay, pollInterval time.Duration) Option {
	return func(t *Tracker) {
		if loadDelay >= 0 {
			t.loadDelay = loadDelay
		}
		if pollInterval > 0 {
			t.pollInterval = pollInterval
		}
	}
}

// WithRecorder is called with the strategy name of every propagated signal.
func WithRecorder(fn func(strategy string)) Option {
	return func(t *Tracker) { t.recorder = fn }
}

// Tracker runs page observers concurrently and propagates each distinct
// page once.
type Tracker struct {
	surface      Surface
	observers    []PageObserver
	loadDelay    time.Duration
	pollInterval time.Duration
	recorder     func(string)

	mu        sync.Mutex
	callbacks []func(domain.PageSignal)
	last      *domain.PageSignal
	cancel    context.CancelFunc
	done      chan struct{}

	dispatchMu sync.Mutex
}

func New(surface Surface, opts ...Option) *Tracker {
	t := &Tracker{
		surface:      surface,
		loadDelay:    DefaultLoadDelay,
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.observers == nil {
		t.observers = []PageObserver{
			MessageObserver{},
			URLObserver{LoadDelay: t.loadDelay, PollInterval: t.pollInterval},
			InjectObserver{LoadDelay: t.loadDelay},
		}
	}
	return t
}

func (t *Tracker) OnSignal(cb func(domain.PageSignal)) {
	t.mu.Lock()
	t.callbacks = append(t.callbacks, cb)
	t.mu.Unlock()
}

// Start launches every observer. It returns immediately.
func (t *Tracker) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		return ErrAlreadyStarted
	}

	runCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.done = make(chan struct{})

	var g errgroup.Group
	for _, obs := range t.observers {
		g.Go(func() error {
			err := obs.Observe(runCtx, t.surface, func(signal domain.PageSignal) {
				t.propagate(obs.Name(), signal)
			})
			if err != nil && runCtx.Err() == nil {
				slog.Warn("tracker_strategy_failed",
					"surface", t.surface.ID(),
					"strategy", obs.Name(),
					"error", err,
				)
			}
			return nil
		})
	}

	done := t.done
	go func() {
		_ = g.Wait()
		close(done)
	}()
	return nil
}

// Stop cancels every observer, waits for them and drops all callbacks.
func (t *Tracker) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	t.mu.Lock()
	t.callbacks = nil
	t.mu.Unlock()
}

// Latest returns the last propagated signal.
func (t *Tracker) Latest() (domain.PageSignal, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.last == nil {
		return domain.PageSignal{}, false
	}
	return *t.last, true
}

func (t *Tracker) propagate(strategy string, signal domain.PageSignal) {
	if signal.Page() <= 0 {
		return
	}

	t.dispatchMu.Lock()
	defer t.dispatchMu.Unlock()

	t.mu.Lock()
	if t.last != nil && t.last.Page() == signal.Page() {
		t.mu.Unlock()
		return
	}
	s := signal
	t.last = &s
	callbacks := append([]func(domain.PageSignal){}, t.callbacks...)
	t.mu.Unlock()

	if t.recorder != nil {
		t.recorder(strategy)
	}
	slog.Debug("page_signal",
		"surface", t.surface.ID(),
		"strategy", strategy,
		"page", signal.Page(),
	)
	for _, cb := range callbacks {
		cb(signal)
	}
}
