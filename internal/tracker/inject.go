package tracker

import (
	"context"
	_ "embed"
	"log/slog"
	"time"
)

//go:embed page_observer.js
var pageObserverScript string

// PageObserverScript returns the script InjectObserver installs. It reports
// page changes as pageChange messages to its parent window.
func PageObserverScript() string { return pageObserverScript }

// InjectObserver installs the page observer script in same-origin surfaces.
// The script reports back through the message channel, so this observer
// never emits directly.
type InjectObserver struct {
	LoadDelay time.Duration
}

func (InjectObserver) Name() string { return "inject" }

func (o InjectObserver) Observe(ctx context.Context, surface Surface, _ Emit) error {
	timer := time.NewTimer(o.LoadDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil
	case <-timer.C:
	}

	if err := surface.Inject(ctx, pageObserverScript); err != nil {
		slog.Debug("tracker_inject_skipped",
			"surface", surface.ID(),
			"error", err,
		)
	}
	return nil
}
