// Package rodsurface drives a headless Chrome page as a tracker surface.
package rodsurface

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

type Config struct {
	// DebuggerURL attaches to a running Chrome; empty launches one.
	DebuggerURL  string
	Headless     bool
	PollInterval time.Duration
}

// Browser owns one Chrome connection shared by every opened surface.
type Browser struct {
	cfg Config

	mu      sync.Mutex
	browser *rod.Browser
}

func Connect(ctx context.Context, cfg Config) (*Browser, error) {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}

	controlURL := cfg.DebuggerURL
	if controlURL == "" {
		url, err := launcher.New().Headless(cfg.Headless).Launch()
		if err != nil {
			return nil, fmt.Errorf("launch chrome: %w", err)
		}
		controlURL = url
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}
	return &Browser{cfg: cfg, browser: browser}, nil
}

// Open loads url in a new page and starts relaying its window messages.
func (b *Browser) Open(ctx context.Context, url string) (*Surface, error) {
	b.mu.Lock()
	browser := b.browser
	b.mu.Unlock()
	if browser == nil {
		return nil, fmt.Errorf("browser is closed")
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	if err := page.Context(ctx).WaitLoad(); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("wait page load: %w", err)
	}
	return newSurface(page, b.cfg.PollInterval), nil
}

func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser == nil {
		return nil
	}
	err := b.browser.Close()
	b.browser = nil
	return err
}
