package httpadapter

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/kirillkom/lesson-portal/internal/core/domain"
)

type catalogFake struct {
	docs []domain.Document
}

func newCatalogFake() catalogFake {
	return catalogFake{docs: []domain.Document{
		{
			ID: "1", Name: "Lesson 1", Subject: "Toán", Grade: "3",
			File: "/pdfs/lop3/toan/lesson1.pdf", GradeSlug: "lop-3", SubjectSlug: "toan",
		},
		{
			ID: "2", Name: "Lesson 2", Subject: "Toán", Grade: "3",
			File: "/pdfs/lop3/toan/lesson2.pdf", IframeURL: "https://viewer.example/book/2",
			GradeSlug: "lop-3", SubjectSlug: "toan",
		},
	}}
}

func (c catalogFake) Grades() []domain.Grade {
	g, _ := c.Grade("lop-3")
	return []domain.Grade{g}
}

func (c catalogFake) Grade(slug string) (domain.Grade, bool) {
	if slug != "lop-3" {
		return domain.Grade{}, false
	}
	return domain.Grade{Slug: "lop-3", Name: "Lớp 3", Subjects: []domain.Subject{{Slug: "toan", Name: "Toán"}}}, true
}

func (c catalogFake) ByGradeSubject(gradeSlug, subjectSlug string) []domain.Document {
	out := []domain.Document{}
	for _, d := range c.docs {
		if d.GradeSlug == gradeSlug && d.SubjectSlug == subjectSlug {
			out = append(out, d)
		}
	}
	return out
}

func (c catalogFake) ByID(id string) (domain.Document, bool) {
	for _, d := range c.docs {
		if d.ID == id {
			return d, true
		}
	}
	return domain.Document{}, false
}

func (c catalogFake) All() []domain.Document { return c.docs }

type analyzerFake struct {
	err   error
	gate  chan struct{}
	calls atomic.Int32

	mu   sync.Mutex
	docs []domain.Document
}

func (f *analyzerFake) Analyze(ctx context.Context, doc domain.Document) (domain.AnalysisResult, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.docs = append(f.docs, doc)
	f.mu.Unlock()
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return domain.AnalysisResult{}, ctx.Err()
		}
	}
	if f.err != nil {
		return domain.AnalysisResult{}, f.err
	}
	return domain.AnalysisResult{
		Analysis: domain.Analysis{
			Summary:  "Tóm tắt " + doc.Name,
			Topics:   []string{"Phép cộng"},
			Keywords: []string{"cộng", "trừ"},
		},
		Usage: domain.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}, nil
}

func (f *analyzerFake) lastDoc() domain.Document {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.docs) == 0 {
		return domain.Document{}
	}
	return f.docs[len(f.docs)-1]
}

type assistantFake struct {
	err error

	mu   sync.Mutex
	reqs []domain.AskRequest
}

func (f *assistantFake) Ask(_ context.Context, req domain.AskRequest) (domain.ChatReply, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	if f.err != nil {
		return domain.ChatReply{}, f.err
	}
	return domain.ChatReply{Message: "Trả lời: " + req.Question, Usage: domain.Usage{TotalTokens: 3}}, nil
}

func (f *assistantFake) last() domain.AskRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.reqs) == 0 {
		return domain.AskRequest{}
	}
	return f.reqs[len(f.reqs)-1]
}
