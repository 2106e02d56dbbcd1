package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/lesson-portal/internal/core/domain"
	"github.com/kirillkom/lesson-portal/internal/core/ports"
)

const (
	fallbackContentChars   = 500
	fallbackExtractedChars = 1000
)

type AnalyzeOptions struct {
	Temperature float64
	MaxTokens   int
}

func DefaultAnalyzeOptions() AnalyzeOptions {
	return AnalyzeOptions{Temperature: 0.3, MaxTokens: 4000}
}

type AnalyzeDocumentUseCase struct {
	storage   ports.DocumentStorage
	extractor ports.TextExtractor
	completer ports.Completer
	opts      AnalyzeOptions
}

func NewAnalyzeDocumentUseCase(
	storage ports.DocumentStorage,
	extractor ports.TextExtractor,
	completer ports.Completer,
	opts AnalyzeOptions,
) *AnalyzeDocumentUseCase {
	def := DefaultAnalyzeOptions()
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = def.MaxTokens
	}
	if opts.Temperature < 0 {
		opts.Temperature = def.Temperature
	}
	return &AnalyzeDocumentUseCase{
		storage:   storage,
		extractor: extractor,
		completer: completer,
		opts:      opts,
	}
}

// Analyze loads, extracts and summarizes doc. Extraction failures and
// undecodable model replies never fail the call.
func (uc *AnalyzeDocumentUseCase) Analyze(ctx context.Context, doc domain.Document) (domain.AnalysisResult, error) {
	if err := uc.completer.Ready(); err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("analyze document: %w", err)
	}

	data, err := uc.loadDocument(ctx, doc)
	if err != nil {
		return domain.AnalysisResult{}, err
	}

	text, extracted := uc.extractText(ctx, doc, data)

	completion, err := uc.complete(ctx, doc, text, extracted, data)
	if err != nil {
		return domain.AnalysisResult{}, err
	}

	return uc.decode(doc, completion, text, extracted), nil
}

func (uc *AnalyzeDocumentUseCase) loadDocument(ctx context.Context, doc domain.Document) ([]byte, error) {
	if strings.TrimSpace(doc.File) == "" {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "load document", errors.New("document has no file path"))
	}
	data, err := uc.storage.ReadAll(ctx, doc.File)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	return data, nil
}

// extractText returns the extracted text and whether extraction succeeded.
func (uc *AnalyzeDocumentUseCase) extractText(ctx context.Context, doc domain.Document, data []byte) (string, bool) {
	text, err := uc.extractor.Extract(ctx, data)
	if err != nil {
		slog.Warn("analysis_extraction_failed",
			"document", doc.Identity(),
			"error", err,
		)
		return "", false
	}
	return text, true
}

func (uc *AnalyzeDocumentUseCase) complete(ctx context.Context, doc domain.Document, text string, extracted bool, data []byte) (ports.Completion, error) {
	promptText := text
	if !extracted || promptText == "" {
		promptText = extractionPlaceholder(doc)
	}

	completion, err := uc.completer.Complete(ctx, ports.CompletionRequest{
		System: analysisSystemPrompt,
		Prompt: buildAnalysisPrompt(doc, promptText),
		Attachment: &ports.Attachment{
			Filename: attachmentName(doc),
			MimeType: "application/pdf",
			Data:     data,
		},
		Temperature: uc.opts.Temperature,
		MaxTokens:   uc.opts.MaxTokens,
	})
	if err != nil {
		return ports.Completion{}, upstreamError("complete analysis", err)
	}
	if strings.TrimSpace(completion.Text) == "" {
		return ports.Completion{}, domain.WrapError(domain.ErrUpstream, "complete analysis", errors.New("no response from model"))
	}
	return completion, nil
}

func (uc *AnalyzeDocumentUseCase) decode(doc domain.Document, completion ports.Completion, text string, extracted bool) domain.AnalysisResult {
	analysis, err := decodeAnalysis(completion.Text)
	fallback := err != nil
	if fallback {
		slog.Warn("analysis_fallback",
			"document", doc.Identity(),
			"error", err,
		)
		analysis = fallbackAnalysis(doc, text, extracted)
	}
	if !extracted {
		analysis.ExtractedText = extractionPlaceholder(doc)
	}
	analysis.ExtractedTextLength = utf8.RuneCountInString(text)

	return domain.AnalysisResult{
		Analysis: analysis,
		Usage:    completion.Usage,
		Fallback: fallback,
	}
}

func decodeAnalysis(raw string) (domain.Analysis, error) {
	var out domain.Analysis
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &out); err != nil {
		return domain.Analysis{}, fmt.Errorf("parse analysis json: %w", err)
	}
	if out.Topics == nil {
		out.Topics = []string{}
	}
	if out.Keywords == nil {
		out.Keywords = []string{}
	}
	return out, nil
}

func fallbackAnalysis(doc domain.Document, text string, extracted bool) domain.Analysis {
	header := fmt.Sprintf("%s - %s lớp %s", doc.Name, doc.Subject, doc.Grade)

	body := "Không thể trích xuất nội dung"
	if !extracted {
		body = extractionPlaceholder(doc)
	} else if text != "" {
		body = truncateRunes(text, fallbackContentChars) + "..."
	}

	return domain.Analysis{
		Summary:       "Bài học " + header,
		Topics:        []string{"Nội dung chính", "Bài tập", "Ứng dụng"},
		Keywords:      []string{"học tập", "kiến thức", "bài tập"},
		Content:       header + "\n\n" + body,
		ExtractedText: truncateRunes(text, fallbackExtractedChars),
	}
}

func extractionPlaceholder(doc domain.Document) string {
	return "Không thể trích xuất text từ PDF. File: " + doc.Name
}

func attachmentName(doc domain.Document) string {
	if base := path.Base(doc.File); base != "." && base != "/" {
		return base
	}
	return "document.pdf"
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}

// upstreamError tags completion failures as upstream unless they already
// carry a configuration or upstream kind.
func upstreamError(op string, err error) error {
	if domain.IsKind(err, domain.ErrConfiguration) || domain.IsKind(err, domain.ErrUpstream) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return domain.WrapError(domain.ErrUpstream, op, err)
}
