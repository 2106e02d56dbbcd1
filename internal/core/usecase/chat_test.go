package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kirillkom/lesson-portal/internal/core/domain"
)

func TestChatAskBuildsContextPrompt(t *testing.T) {
	completer := &completerFake{text: "  Phép cộng là gộp hai số.  ", usage: domain.Usage{TotalTokens: 42}}
	uc := NewChatUseCase(completer, DefaultChatOptions())
	doc := lessonDoc()
	signal := domain.NewPageSignal(4, nil)

	reply, err := uc.Ask(context.Background(), domain.AskRequest{
		Question:   "Phép cộng là gì?",
		Document:   &doc,
		PageSignal: &signal,
		Analysis:   &domain.Analysis{Summary: "Tóm tắt", Topics: []string{"cộng", "trừ"}, Keywords: []string{"số"}, Content: "Nội dung", ExtractedText: "trích"},
	})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if reply.Message != "Phép cộng là gộp hai số." || reply.Usage.TotalTokens != 42 {
		t.Fatalf("unexpected reply: %+v", reply)
	}

	req := completer.last()
	if req.Prompt != "Phép cộng là gì?" {
		t.Fatalf("expected only the current question, got %q", req.Prompt)
	}
	if req.Temperature != 0.7 || req.MaxTokens != 800 || req.Attachment != nil {
		t.Fatalf("unexpected completion params: %+v", req)
	}
	for _, want := range []string{"Tên bài: Lesson 1", "Trang hiện tại: 4", "Tổng số trang: Không rõ", "cộng, trừ", "TEXT TRÍCH XUẤT TỪ PDF:\ntrích", "học sinh lớp 3"} {
		if !strings.Contains(req.System, want) {
			t.Fatalf("system prompt missing %q:\n%s", want, req.System)
		}
	}
}

func TestChatAskWithoutContextUsesUnknown(t *testing.T) {
	completer := &completerFake{text: "ok"}
	uc := NewChatUseCase(completer, DefaultChatOptions())

	if _, err := uc.Ask(context.Background(), domain.AskRequest{Question: "hi"}); err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	sys := completer.last().System
	if !strings.Contains(sys, "Tên bài: Không rõ") || strings.Contains(sys, "TÓM TẮT") {
		t.Fatalf("unexpected system prompt:\n%s", sys)
	}
}

func TestChatAskRejectsEmptyQuestion(t *testing.T) {
	completer := &completerFake{text: "ok"}
	_, err := NewChatUseCase(completer, DefaultChatOptions()).Ask(context.Background(), domain.AskRequest{Question: "  "})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if completer.calls() != 0 {
		t.Fatalf("expected no completion call")
	}
}

func TestChatAskMissingCredential(t *testing.T) {
	completer := &completerFake{readyErr: domain.WrapError(domain.ErrConfiguration, "openai", errors.New("api key is not set"))}
	_, err := NewChatUseCase(completer, DefaultChatOptions()).Ask(context.Background(), domain.AskRequest{Question: "hi"})
	if !domain.IsKind(err, domain.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if completer.calls() != 0 {
		t.Fatalf("expected no completion call")
	}
}

func TestChatAskUpstreamFailure(t *testing.T) {
	completer := &completerFake{err: errors.New("503")}
	_, err := NewChatUseCase(completer, DefaultChatOptions()).Ask(context.Background(), domain.AskRequest{Question: "hi"})
	if !domain.IsKind(err, domain.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}
