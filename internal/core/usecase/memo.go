package usecase

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/kirillkom/lesson-portal/internal/core/domain"
)

// AnalysisMemo collapses concurrent analyses of the same document into one
// call and, when caching is enabled, keeps successful results by identity.
type AnalysisMemo struct {
	group singleflight.Group
	cache bool

	mu      sync.RWMutex
	results map[string]domain.AnalysisResult
}

func NewAnalysisMemo() *AnalysisMemo {
	return &AnalysisMemo{cache: true, results: make(map[string]domain.AnalysisResult)}
}

// NewSingleFlight returns a memo that only collapses in-flight calls.
func NewSingleFlight() *AnalysisMemo {
	return &AnalysisMemo{results: make(map[string]domain.AnalysisResult)}
}

// GetOrStart returns the cached result for key or runs factory, sharing one
// in-flight call between concurrent callers.
func (m *AnalysisMemo) GetOrStart(
	ctx context.Context,
	key string,
	factory func(ctx context.Context) (domain.AnalysisResult, error),
) (domain.AnalysisResult, error) {
	if res, ok := m.Get(key); ok {
		return res, nil
	}

	ch := m.group.DoChan(key, func() (any, error) {
		res, err := factory(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		if m.cache {
			m.mu.Lock()
			m.results[key] = res
			m.mu.Unlock()
		}
		return res, nil
	})

	select {
	case <-ctx.Done():
		return domain.AnalysisResult{}, ctx.Err()
	case out := <-ch:
		if out.Err != nil {
			return domain.AnalysisResult{}, out.Err
		}
		return out.Val.(domain.AnalysisResult), nil
	}
}

func (m *AnalysisMemo) Get(key string) (domain.AnalysisResult, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res, ok := m.results[key]
	return res, ok
}

// Forget drops the cached result for key. An in-flight call for key keeps
// running and later callers still join it.
func (m *AnalysisMemo) Forget(key string) {
	m.mu.Lock()
	delete(m.results, key)
	m.mu.Unlock()
}

func (m *AnalysisMemo) Reset() {
	m.mu.Lock()
	m.results = make(map[string]domain.AnalysisResult)
	m.mu.Unlock()
}
