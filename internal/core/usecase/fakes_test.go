package usecase

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/kirillkom/lesson-portal/internal/core/domain"
	"github.com/kirillkom/lesson-portal/internal/core/ports"
)

type storageFake struct {
	data  []byte
	err   error
	calls atomic.Int32
}

func (f *storageFake) ReadAll(context.Context, string) ([]byte, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

type extractorFake struct {
	text string
	err  error
}

func (f *extractorFake) Extract(context.Context, []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type completerFake struct {
	readyErr error
	text     string
	usage    domain.Usage
	err      error
	gate     chan struct{}

	mu       sync.Mutex
	requests []ports.CompletionRequest
}

func (f *completerFake) Ready() error { return f.readyErr }

func (f *completerFake) Complete(ctx context.Context, req ports.CompletionRequest) (ports.Completion, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return ports.Completion{}, ctx.Err()
		}
	}
	if f.err != nil {
		return ports.Completion{}, f.err
	}
	return ports.Completion{Text: f.text, Usage: f.usage}, nil
}

func (f *completerFake) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *completerFake) last() ports.CompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func lessonDoc() domain.Document {
	return domain.Document{
		ID:      "toan-3-1",
		Name:    "Lesson 1",
		Subject: "Math",
		Grade:   "3",
		File:    "/pdfs/lop3/toan/lesson1.pdf",
	}
}
