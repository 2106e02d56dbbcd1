package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/lesson-portal/internal/config"
	"github.com/kirillkom/lesson-portal/internal/core/ports"
	"github.com/kirillkom/lesson-portal/internal/core/session"
	"github.com/kirillkom/lesson-portal/internal/core/usecase"
	"github.com/kirillkom/lesson-portal/internal/infrastructure/catalog"
	eventsnats "github.com/kirillkom/lesson-portal/internal/infrastructure/events/nats"
	"github.com/kirillkom/lesson-portal/internal/infrastructure/extractor/pdftext"
	"github.com/kirillkom/lesson-portal/internal/infrastructure/llm/openai"
	"github.com/kirillkom/lesson-portal/internal/infrastructure/resilience"
	"github.com/kirillkom/lesson-portal/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/lesson-portal/internal/observability/metrics"
	"github.com/kirillkom/lesson-portal/internal/tracker"
)

type App struct {
	Config config.Config

	Catalog   *catalog.Catalog
	Analyzer  ports.DocumentAnalyzer
	Assistant ports.Assistant
	Sessions  *session.Store
	Metrics   *metrics.HTTPServerMetrics
	// Events is nil when NATS_URL is empty.
	Events *eventsnats.Publisher

	closeFn func()
}

func New(_ context.Context, cfg config.Config) (*App, error) {
	cat, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	storage, err := localfs.New(cfg.PublicDir)
	if err != nil {
		return nil, fmt.Errorf("init document storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.Config{
		BreakerEnabled:      cfg.BreakerEnabled,
		BreakerMinRequests:  uint32(max(cfg.BreakerMinRequests, 0)),
		BreakerFailureRatio: cfg.BreakerFailureRatio,
		BreakerOpenTimeout:  cfg.BreakerOpenTimeout,
	})

	completer := openai.New(openai.Config{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModel,
		Timeout: cfg.LLMTimeout,
	}, executor)
	if err := completer.Ready(); err != nil {
		slog.Warn("llm_not_configured", "error", err)
	}

	httpMetrics := metrics.NewHTTPServerMetrics("api")

	analyzer := instrumentedAnalyzer{
		next: usecase.NewAnalyzeDocumentUseCase(storage, pdftext.NewExtractor(), completer, usecase.AnalyzeOptions{
			Temperature: cfg.AnalysisTemperature,
			MaxTokens:   cfg.AnalysisMaxTokens,
		}),
		metrics: httpMetrics,
	}
	assistant := instrumentedAssistant{
		next: usecase.NewChatUseCase(completer, usecase.ChatOptions{
			Temperature: cfg.ChatTemperature,
			MaxTokens:   cfg.ChatMaxTokens,
		}),
		metrics: httpMetrics,
	}

	var (
		publisher *eventsnats.Publisher
		events    ports.EventPublisher
	)
	if cfg.NATSURL != "" {
		publisher, err = eventsnats.NewWithOptions(cfg.NATSURL, cfg.NATSSubjectPrefix, eventsnats.Options{
			ResilienceExecutor: executor,
		})
		if err != nil {
			return nil, fmt.Errorf("init event publisher: %w", err)
		}
		events = publisher
	}

	sessions := session.NewStore(session.Dependencies{
		Analyzer:  analyzer,
		Assistant: assistant,
		Events:    events,
		TrackerOptions: []tracker.Option{
			tracker.WithTimings(cfg.TrackerLoadDelay, cfg.TrackerPollInterval),
			tracker.WithRecorder(httpMetrics.RecordPageSignal),
		},
	}, cfg.SessionTTL, session.WithCountHook(httpMetrics.SetSessionsActive))

	return &App{
		Config:    cfg,
		Catalog:   cat,
		Analyzer:  analyzer,
		Assistant: assistant,
		Sessions:  sessions,
		Metrics:   httpMetrics,
		Events:    publisher,

		closeFn: func() {
			sessions.Close()
			if publisher != nil {
				publisher.Close()
			}
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.Load(path)
}
