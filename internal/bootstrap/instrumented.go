package bootstrap

import (
	"context"

	"github.com/kirillkom/lesson-portal/internal/core/domain"
	"github.com/kirillkom/lesson-portal/internal/core/ports"
	"github.com/kirillkom/lesson-portal/internal/observability/metrics"
)

type instrumentedAnalyzer struct {
	next    ports.DocumentAnalyzer
	metrics *metrics.HTTPServerMetrics
}

func (a instrumentedAnalyzer) Analyze(ctx context.Context, doc domain.Document) (domain.AnalysisResult, error) {
	done := a.metrics.AnalysisStarted()
	res, err := a.next.Analyze(ctx, doc)
	done(metrics.Outcome(err, res.Fallback))
	if err == nil {
		a.metrics.RecordTokenUsage("analyze", res.Usage)
	}
	return res, err
}

type instrumentedAssistant struct {
	next    ports.Assistant
	metrics *metrics.HTTPServerMetrics
}

func (a instrumentedAssistant) Ask(ctx context.Context, req domain.AskRequest) (domain.ChatReply, error) {
	reply, err := a.next.Ask(ctx, req)
	a.metrics.RecordChat(metrics.Outcome(err, false))
	if err == nil {
		a.metrics.RecordTokenUsage("chat", reply.Usage)
	}
	return reply, err
}
