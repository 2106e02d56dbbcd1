// Package tracker infers the page a user is viewing inside an embedded
// document viewer. Every signal it produces is best-effort.
package tracker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kirillkom/lesson-portal/internal/core/domain"
)

// ErrCrossOrigin reports that the surface refused script injection.
var ErrCrossOrigin = fmt.Errorf("%w: cross-origin frame", domain.ErrTracking)

// Message is one cross-frame message received from a surface.
type Message struct {
	Source string          `json:"source"`
	Data   json.RawMessage `json:"data"`
}

// Surface is an embedded viewing surface the tracker can observe.
type Surface interface {
	ID() string
	CurrentURL(ctx context.Context) (string, error)
	Messages() <-chan Message
	Inject(ctx context.Context, script string) error
}
