package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	sdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/kirillkom/lesson-portal/internal/core/domain"
	"github.com/kirillkom/lesson-portal/internal/core/ports"
	"github.com/kirillkom/lesson-portal/internal/infrastructure/resilience"
)

const (
	DefaultModel   = "gpt-4o"
	DefaultTimeout = 120 * time.Second
	operationChat  = "openai.chat_completion"
)

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client is a Completer backed by the OpenAI chat completions API.
type Client struct {
	cfg      Config
	api      sdk.Client
	executor *resilience.Executor
}

func New(cfg Config, executor *resilience.Executor) *Client {
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if executor == nil {
		executor = resilience.NewExecutor(resilience.Config{BreakerEnabled: false})
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(base, "/")+"/"))
	}

	return &Client{
		cfg:      cfg,
		api:      sdk.NewClient(opts...),
		executor: executor,
	}
}

func (c *Client) Ready() error {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return domain.WrapError(domain.ErrConfiguration, "openai", errors.New("OPENAI_API_KEY is not set"))
	}
	return nil
}

func (c *Client) Complete(ctx context.Context, req ports.CompletionRequest) (ports.Completion, error) {
	if err := c.Ready(); err != nil {
		return ports.Completion{}, err
	}

	params := sdk.ChatCompletionNewParams{
		Model:       sdk.ChatModel(c.cfg.Model),
		Messages:    buildMessages(req),
		Temperature: sdk.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = sdk.Int(int64(req.MaxTokens))
	}

	var resp *sdk.ChatCompletion
	err := c.executor.Execute(ctx, operationChat, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()

		out, err := c.api.Chat.Completions.New(callCtx, params)
		if err != nil {
			return err
		}
		resp = out
		return nil
	}, classifyOpenAIError)
	if err != nil {
		return ports.Completion{}, domain.WrapError(domain.ErrUpstream, operationChat, describeError(err))
	}
	if resp == nil || len(resp.Choices) == 0 {
		return ports.Completion{}, domain.WrapError(domain.ErrUpstream, operationChat, errors.New("no choices in response"))
	}

	return ports.Completion{
		Text: resp.Choices[0].Message.Content,
		Usage: domain.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

func buildMessages(req ports.CompletionRequest) []sdk.ChatCompletionMessageParamUnion {
	messages := make([]sdk.ChatCompletionMessageParamUnion, 0, 2)
	if strings.TrimSpace(req.System) != "" {
		messages = append(messages, sdk.SystemMessage(req.System))
	}

	if req.Attachment == nil {
		return append(messages, sdk.UserMessage(req.Prompt))
	}

	parts := []sdk.ChatCompletionContentPartUnionParam{
		sdk.TextContentPart(req.Prompt),
		sdk.FileContentPart(sdk.ChatCompletionContentPartFileFileParam{
			FileData: sdk.String(dataURL(req.Attachment)),
			Filename: sdk.String(req.Attachment.Filename),
		}),
	}
	return append(messages, sdk.UserMessage(parts))
}

func dataURL(a *ports.Attachment) string {
	mime := a.MimeType
	if mime == "" {
		mime = "application/octet-stream"
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(a.Data))
}
