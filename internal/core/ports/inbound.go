package ports

import (
	"context"

	"github.com/kirillkom/lesson-portal/internal/core/domain"
)

// DocumentAnalyzer is the inbound contract for per-document analysis.
type DocumentAnalyzer interface {
	Analyze(ctx context.Context, doc domain.Document) (domain.AnalysisResult, error)
}

// Assistant answers one question grounded in the supplied document context.
type Assistant interface {
	Ask(ctx context.Context, req domain.AskRequest) (domain.ChatReply, error)
}

// CatalogReader is the read model over the static grade/subject/document catalog.
type CatalogReader interface {
	Grades() []domain.Grade
	Grade(slug string) (domain.Grade, bool)
	ByGradeSubject(gradeSlug, subjectSlug string) []domain.Document
	ByID(id string) (domain.Document, bool)
	All() []domain.Document
}
