package tracker

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/kirillkom/lesson-portal/internal/core/domain"
)

var (
	pageQueryKeys = []string{"page", "p", "pageNumber", "currentPage"}
	hashPageRe    = regexp.MustCompile(`(?i)page[=:]?(\d+)`)
)

// URLObserver polls the surface address for page markers.
type URLObserver struct {
	LoadDelay    time.Duration
	PollInterval time.Duration
}

func (URLObserver) Name() string { return "url" }

func (o URLObserver) Observe(ctx context.Context, surface Surface, emit Emit) error {
	interval := o.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	last := 0
	check := func() {
		raw, err := surface.CurrentURL(ctx)
		if err != nil {
			return
		}
		page, ok := PageFromURL(raw)
		if !ok || page == last {
			return
		}
		last = page
		emit(domain.NewPageSignal(page, nil))
	}

	load := time.NewTimer(o.LoadDelay)
	defer load.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-load.C:
			check()
		case <-ticker.C:
			check()
		}
	}
}

// PageFromURL reads a page number from the query string, then the fragment.
func PageFromURL(raw string) (int, bool) {
	if strings.TrimSpace(raw) == "" {
		return 0, false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return 0, false
	}

	query := u.Query()
	for _, key := range pageQueryKeys {
		if v := query.Get(key); v != "" {
			if n, ok := leadingInt(v); ok {
				return n, true
			}
		}
	}

	if u.Fragment != "" {
		if m := hashPageRe.FindStringSubmatch(u.Fragment); m != nil {
			if n, ok := leadingInt(m[1]); ok {
				return n, true
			}
		}
	}
	return 0, false
}
