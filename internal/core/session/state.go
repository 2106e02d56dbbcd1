// Package session holds the per-viewer interaction state: the open
// document, the inferred page, the cached analysis and the chat transcript.
package session

import (
	"sync"

	"github.com/kirillkom/lesson-portal/internal/core/domain"
)

// State is the shared, mutex-guarded viewer context. Writes are
// last-write-wins; State never resets itself.
type State struct {
	mu         sync.RWMutex
	chatOpen   bool
	document   *domain.Document
	pageSignal *domain.PageSignal
	analysis   *domain.Analysis
}

type Snapshot struct {
	ChatOpen   bool               `json:"chatOpen"`
	Document   *domain.Document   `json:"document,omitempty"`
	PageSignal *domain.PageSignal `json:"pageSignal,omitempty"`
	Analysis   *domain.Analysis   `json:"analysis,omitempty"`
}

func NewState() *State {
	return &State{chatOpen: true}
}

func (s *State) SetChatOpen(open bool) {
	s.mu.Lock()
	s.chatOpen = open
	s.mu.Unlock()
}

// ToggleChat flips the chat-open flag and returns the new value.
func (s *State) ToggleChat() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chatOpen = !s.chatOpen
	return s.chatOpen
}

func (s *State) SetDocument(doc *domain.Document) {
	s.mu.Lock()
	s.document = copyDocument(doc)
	s.mu.Unlock()
}

func (s *State) SetPageSignal(signal *domain.PageSignal) {
	s.mu.Lock()
	s.pageSignal = copySignal(signal)
	s.mu.Unlock()
}

func (s *State) SetAnalysis(a *domain.Analysis) {
	s.mu.Lock()
	s.analysis = copyAnalysis(a)
	s.mu.Unlock()
}

func (s *State) Document() (domain.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.document == nil {
		return domain.Document{}, false
	}
	return *s.document, true
}

// Snapshot returns a copy that is safe to read without the lock.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		ChatOpen:   s.chatOpen,
		Document:   copyDocument(s.document),
		PageSignal: copySignal(s.pageSignal),
		Analysis:   copyAnalysis(s.analysis),
	}
}

func copyDocument(doc *domain.Document) *domain.Document {
	if doc == nil {
		return nil
	}
	c := *doc
	return &c
}

func copySignal(signal *domain.PageSignal) *domain.PageSignal {
	if signal == nil {
		return nil
	}
	c := *signal
	if signal.PageNumber != nil {
		n := *signal.PageNumber
		c.PageNumber = &n
	}
	if signal.TotalPages != nil {
		n := *signal.TotalPages
		c.TotalPages = &n
	}
	return &c
}

func copyAnalysis(a *domain.Analysis) *domain.Analysis {
	if a == nil {
		return nil
	}
	c := *a
	c.Topics = append([]string{}, a.Topics...)
	c.Keywords = append([]string{}, a.Keywords...)
	return &c
}
