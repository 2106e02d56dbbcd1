package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/kirillkom/lesson-portal/internal/core/domain"
)

const validAnalysisJSON = "```json\n" + `{"summary":"Phép cộng","topics":["cộng"],"keywords":["số"],"content":"Nội dung","extractedText":"model text","extractedTextLength":99999}` + "\n```"

func TestAnalyzeDecodesFencedReply(t *testing.T) {
	completer := &completerFake{text: validAnalysisJSON, usage: domain.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}}
	uc := NewAnalyzeDocumentUseCase(&storageFake{data: []byte("%PDF")}, &extractorFake{text: "một hai ba"}, completer, DefaultAnalyzeOptions())

	res, err := uc.Analyze(context.Background(), lessonDoc())
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if res.Fallback {
		t.Fatalf("expected decoded analysis, got fallback")
	}
	if res.Analysis.Summary != "Phép cộng" {
		t.Fatalf("unexpected summary: %q", res.Analysis.Summary)
	}
	if res.Analysis.ExtractedTextLength != utf8.RuneCountInString("một hai ba") {
		t.Fatalf("extractedTextLength must be service-side, got %d", res.Analysis.ExtractedTextLength)
	}
	if res.Usage.TotalTokens != 15 {
		t.Fatalf("unexpected usage: %+v", res.Usage)
	}

	req := completer.last()
	if req.Temperature != 0.3 || req.MaxTokens != 4000 {
		t.Fatalf("unexpected completion params: %+v", req)
	}
	if req.Attachment == nil || req.Attachment.MimeType != "application/pdf" || req.Attachment.Filename != "lesson1.pdf" {
		t.Fatalf("expected pdf attachment, got %+v", req.Attachment)
	}
	if !strings.Contains(req.Prompt, "một hai ba") || !strings.Contains(req.Prompt, "Lớp: 3") {
		t.Fatalf("prompt missing document text or grade: %q", req.Prompt)
	}
}

func TestAnalyzeFallbackOnNonJSONReply(t *testing.T) {
	text := strings.Repeat("ắ", 1500)
	uc := NewAnalyzeDocumentUseCase(&storageFake{data: []byte("%PDF")}, &extractorFake{text: text}, &completerFake{text: "xin lỗi, không có JSON"}, DefaultAnalyzeOptions())

	res, err := uc.Analyze(context.Background(), lessonDoc())
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if !res.Fallback {
		t.Fatalf("expected fallback analysis")
	}
	a := res.Analysis
	if a.Summary != "Bài học Lesson 1 - Math lớp 3" {
		t.Fatalf("unexpected summary: %q", a.Summary)
	}
	if !strings.HasPrefix(a.Content, "Lesson 1 - Math lớp 3\n\n") || !strings.HasSuffix(a.Content, "...") {
		t.Fatalf("unexpected content: %q", a.Content)
	}
	if n := utf8.RuneCountInString(a.ExtractedText); n != 1000 {
		t.Fatalf("expected 1000 runes of extracted text, got %d", n)
	}
	if a.ExtractedTextLength != 1500 {
		t.Fatalf("expected extractedTextLength 1500, got %d", a.ExtractedTextLength)
	}
	if len(a.Topics) != 3 || len(a.Keywords) != 3 {
		t.Fatalf("unexpected fallback lists: %v %v", a.Topics, a.Keywords)
	}
}

func TestAnalyzeExtractionFailureUsesPlaceholder(t *testing.T) {
	completer := &completerFake{text: "not json"}
	extractor := &extractorFake{err: domain.WrapError(domain.ErrExtraction, "extract", errors.New("bad xref"))}
	uc := NewAnalyzeDocumentUseCase(&storageFake{data: []byte("garbage")}, extractor, completer, DefaultAnalyzeOptions())

	res, err := uc.Analyze(context.Background(), lessonDoc())
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	placeholder := "Không thể trích xuất text từ PDF. File: Lesson 1"
	if res.Analysis.ExtractedTextLength != 0 {
		t.Fatalf("expected length 0, got %d", res.Analysis.ExtractedTextLength)
	}
	if res.Analysis.ExtractedText != placeholder {
		t.Fatalf("unexpected extracted text: %q", res.Analysis.ExtractedText)
	}
	if !strings.Contains(res.Analysis.Content, placeholder) {
		t.Fatalf("fallback content missing placeholder: %q", res.Analysis.Content)
	}
	if !strings.Contains(completer.last().Prompt, placeholder) {
		t.Fatalf("prompt missing placeholder")
	}
}

func TestAnalyzeMissingCredentialMakesNoCalls(t *testing.T) {
	storage := &storageFake{data: []byte("%PDF")}
	completer := &completerFake{readyErr: domain.WrapError(domain.ErrConfiguration, "openai", errors.New("api key is not set"))}
	uc := NewAnalyzeDocumentUseCase(storage, &extractorFake{}, completer, DefaultAnalyzeOptions())

	_, err := uc.Analyze(context.Background(), lessonDoc())
	if !domain.IsKind(err, domain.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if storage.calls.Load() != 0 || completer.calls() != 0 {
		t.Fatalf("expected no IO, storage=%d completer=%d", storage.calls.Load(), completer.calls())
	}
}

func TestAnalyzeMissingFile(t *testing.T) {
	storage := &storageFake{err: domain.WrapError(domain.ErrDocumentNotFound, "read", errors.New("no such file"))}
	completer := &completerFake{text: validAnalysisJSON}
	uc := NewAnalyzeDocumentUseCase(storage, &extractorFake{}, completer, DefaultAnalyzeOptions())

	_, err := uc.Analyze(context.Background(), lessonDoc())
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if completer.calls() != 0 {
		t.Fatalf("expected no completion call")
	}
}

func TestAnalyzeUpstreamFailure(t *testing.T) {
	completer := &completerFake{err: errors.New("connection reset")}
	uc := NewAnalyzeDocumentUseCase(&storageFake{data: []byte("%PDF")}, &extractorFake{text: "x"}, completer, DefaultAnalyzeOptions())

	_, err := uc.Analyze(context.Background(), lessonDoc())
	if !domain.IsKind(err, domain.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}
