package ports

import (
	"context"

	"github.com/kirillkom/lesson-portal/internal/core/domain"
)

// DocumentStorage resolves a document file path to its raw bytes.
type DocumentStorage interface {
	ReadAll(ctx context.Context, path string) ([]byte, error)
}

// TextExtractor extracts plain text from raw document bytes.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

// Attachment is a binary document sent alongside a prompt.
type Attachment struct {
	Filename string
	MimeType string
	Data     []byte
}

type CompletionRequest struct {
	System      string
	Prompt      string
	Attachment  *Attachment
	Temperature float64
	MaxTokens   int
}

type Completion struct {
	Text  string
	Usage domain.Usage
}

// Completer is the large-language-model completion backend.
type Completer interface {
	// Ready reports a configuration error when the backend cannot be called at all.
	Ready() error
	Complete(ctx context.Context, req CompletionRequest) (Completion, error)
}

// EventPublisher fans out session events to other consumers.
type EventPublisher interface {
	PublishPageSignal(ctx context.Context, sessionID string, doc domain.Document, signal domain.PageSignal) error
	PublishAnalysis(ctx context.Context, doc domain.Document, result domain.AnalysisResult) error
}
