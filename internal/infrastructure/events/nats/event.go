package nats

import (
	"time"

	"github.com/kirillkom/lesson-portal/internal/core/domain"
)

// Event is the wire shape of every published session event.
type Event struct {
	Type       string        `json:"type"`
	SessionID  string        `json:"session_id,omitempty"`
	DocumentID string        `json:"document_id"`
	Identity   string        `json:"identity"`
	Page       int           `json:"page,omitempty"`
	TotalPages int           `json:"total_pages,omitempty"`
	Fallback   bool          `json:"fallback,omitempty"`
	Usage      *domain.Usage `json:"usage,omitempty"`
	At         time.Time     `json:"at"`
}

func newPageSignalEvent(sessionID string, doc domain.Document, signal domain.PageSignal, at time.Time) Event {
	ev := Event{
		Type:       subjectPageSignal,
		SessionID:  sessionID,
		DocumentID: doc.ID,
		Identity:   doc.Identity(),
		Page:       signal.Page(),
		At:         at.UTC(),
	}
	if signal.TotalPages != nil {
		ev.TotalPages = *signal.TotalPages
	}
	return ev
}

func newAnalysisEvent(doc domain.Document, result domain.AnalysisResult, at time.Time) Event {
	usage := result.Usage
	return Event{
		Type:       subjectAnalysis,
		DocumentID: doc.ID,
		Identity:   doc.Identity(),
		Fallback:   result.Fallback,
		Usage:      &usage,
		At:         at.UTC(),
	}
}
