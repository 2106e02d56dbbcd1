package tracker

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

const relayBuffer = 32

// RelaySurface is a Surface fed from outside the process: a browser relays
// the frame's messages and address through Push and SetURL.
type RelaySurface struct {
	id       string
	messages chan Message

	mu     sync.RWMutex
	url    string
	closed bool
}

func NewRelaySurface(initialURL string) *RelaySurface {
	return &RelaySurface{
		id:       uuid.NewString(),
		messages: make(chan Message, relayBuffer),
		url:      initialURL,
	}
}

func (s *RelaySurface) ID() string { return s.id }

func (s *RelaySurface) CurrentURL(context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.url, nil
}

func (s *RelaySurface) Messages() <-chan Message { return s.messages }

// Inject always fails: the relayed frame is never same-origin with the service.
func (s *RelaySurface) Inject(context.Context, string) error { return ErrCrossOrigin }

// Push queues msg. It reports false when the surface is closed or the
// buffer is full.
func (s *RelaySurface) Push(msg Message) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}
	select {
	case s.messages <- msg:
		return true
	default:
		return false
	}
}

func (s *RelaySurface) SetURL(u string) {
	s.mu.Lock()
	s.url = u
	s.mu.Unlock()
}

func (s *RelaySurface) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.messages)
}
