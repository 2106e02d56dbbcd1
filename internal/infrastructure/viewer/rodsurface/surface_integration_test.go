//go:build integration

package rodsurface_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kirillkom/lesson-portal/internal/core/domain"
	"github.com/kirillkom/lesson-portal/internal/infrastructure/viewer/rodsurface"
	"github.com/kirillkom/lesson-portal/internal/tracker"
)

func TestSurfaceTracksInjectedPages(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `<html><body>
<div class="page-1" style="display: none"></div>
<div class="page-2"></div>
<script>setTimeout(() => window.postMessage({type: 'pageChange', pageNumber: 5}, '*'), 1500)</script>
</body></html>`)
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	browser, err := rodsurface.Connect(ctx, rodsurface.Config{Headless: true, PollInterval: 50 * time.Millisecond})
	require.NoError(t, err)
	defer func() { _ = browser.Close() }()

	surface, err := browser.Open(ctx, ts.URL+"/?page=1")
	require.NoError(t, err)
	defer func() { _ = surface.Close() }()

	tr := tracker.New(surface, tracker.WithTimings(100*time.Millisecond, 100*time.Millisecond))
	pages := make(chan int, 8)
	tr.OnSignal(func(s domain.PageSignal) { pages <- s.Page() })
	require.NoError(t, tr.Start(ctx))
	defer tr.Stop()

	seen := map[int]bool{}
	deadline := time.After(10 * time.Second)
	for !(seen[1] && seen[2] && seen[5]) {
		select {
		case p := <-pages:
			seen[p] = true
		case <-deadline:
			t.Fatalf("pages seen: %v", seen)
		}
	}
}

func TestSurfaceIgnoresNestedFrameMessages(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ad" {
			fmt.Fprintln(w, `<html><body><script>setTimeout(() => parent.postMessage({type: 'pageChange', pageNumber: 42}, '*'), 800)</script></body></html>`)
			return
		}
		fmt.Fprintln(w, `<html><body>
<iframe src="/ad"></iframe>
<script>setTimeout(() => window.postMessage({type: 'pageChange', pageNumber: 3}, '*'), 1500)</script>
</body></html>`)
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	browser, err := rodsurface.Connect(ctx, rodsurface.Config{Headless: true, PollInterval: 50 * time.Millisecond})
	require.NoError(t, err)
	defer func() { _ = browser.Close() }()

	surface, err := browser.Open(ctx, ts.URL+"/")
	require.NoError(t, err)
	defer func() { _ = surface.Close() }()

	tr := tracker.New(surface,
		tracker.WithObservers(tracker.MessageObserver{}),
	)
	pages := make(chan int, 8)
	tr.OnSignal(func(s domain.PageSignal) { pages <- s.Page() })
	require.NoError(t, tr.Start(ctx))
	defer tr.Stop()

	select {
	case p := <-pages:
		require.Equal(t, 3, p, "only the viewer page's own messages count")
	case <-time.After(10 * time.Second):
		t.Fatalf("no page signal from the viewer page")
	}
}
