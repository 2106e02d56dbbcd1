package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kirillkom/lesson-portal/internal/core/domain"
	"github.com/kirillkom/lesson-portal/internal/core/ports"
)

type ChatOptions struct {
	Temperature float64
	MaxTokens   int
}

func DefaultChatOptions() ChatOptions {
	return ChatOptions{Temperature: 0.7, MaxTokens: 800}
}

type ChatUseCase struct {
	completer ports.Completer
	opts      ChatOptions
}

func NewChatUseCase(completer ports.Completer, opts ChatOptions) *ChatUseCase {
	def := DefaultChatOptions()
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = def.MaxTokens
	}
	if opts.Temperature < 0 {
		opts.Temperature = def.Temperature
	}
	return &ChatUseCase{completer: completer, opts: opts}
}

// Ask sends exactly one completion: the context-bearing system prompt and the
// current question. Earlier turns are not resent.
func (uc *ChatUseCase) Ask(ctx context.Context, req domain.AskRequest) (domain.ChatReply, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return domain.ChatReply{}, domain.WrapError(domain.ErrInvalidInput, "ask", errors.New("message is required"))
	}
	if err := uc.completer.Ready(); err != nil {
		return domain.ChatReply{}, fmt.Errorf("ask: %w", err)
	}

	completion, err := uc.completer.Complete(ctx, ports.CompletionRequest{
		System:      buildChatSystemPrompt(req),
		Prompt:      question,
		Temperature: uc.opts.Temperature,
		MaxTokens:   uc.opts.MaxTokens,
	})
	if err != nil {
		return domain.ChatReply{}, upstreamError("ask", err)
	}

	message := strings.TrimSpace(completion.Text)
	if message == "" {
		return domain.ChatReply{}, domain.WrapError(domain.ErrUpstream, "ask", errors.New("no response from model"))
	}
	return domain.ChatReply{Message: message, Usage: completion.Usage}, nil
}
