package rodsurface

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"

	"github.com/kirillkom/lesson-portal/internal/core/domain"
	"github.com/kirillkom/lesson-portal/internal/tracker"
)

// drainScript installs the message hook when missing and returns the
// messages buffered since the last call. Only messages posted by the viewer
// page itself are kept; nested frames are not the surface.
const drainScript = `
() => {
	const w = window;
	if (!Array.isArray(w.__lessonPortalMessages)) {
		w.__lessonPortalMessages = [];
		w.addEventListener('message', (ev) => {
			if (ev.source !== w && ev.source !== w.top) return;
			try {
				const data = typeof ev.data === 'string' ? JSON.parse(ev.data) : ev.data;
				if (data && typeof data === 'object') w.__lessonPortalMessages.push(data);
			} catch (e) {}
		});
	}
	const buf = w.__lessonPortalMessages;
	w.__lessonPortalMessages = [];
	return buf;
}
`

// Surface is a tracker.Surface backed by a live Chrome page.
type Surface struct {
	id       string
	page     *rod.Page
	messages chan tracker.Message

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func newSurface(page *rod.Page, poll time.Duration) *Surface {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Surface{
		id:       string(page.TargetID),
		page:     page,
		messages: make(chan tracker.Message, 64),
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go s.pump(ctx, poll)
	return s
}

func (s *Surface) ID() string { return s.id }

func (s *Surface) CurrentURL(ctx context.Context) (string, error) {
	info, err := s.page.Context(ctx).Info()
	if err != nil {
		return "", domain.WrapError(domain.ErrTracking, "page info", err)
	}
	return info.URL, nil
}

func (s *Surface) Messages() <-chan tracker.Message { return s.messages }

func (s *Surface) Inject(ctx context.Context, script string) error {
	_, err := s.page.Context(ctx).Evaluate(&rod.EvalOptions{
		JS:           script,
		ByValue:      true,
		AwaitPromise: true,
	})
	if err != nil {
		return domain.WrapError(domain.ErrTracking, "inject script", err)
	}
	return nil
}

// Close stops the message pump and closes the page.
func (s *Surface) Close() error {
	var err error
	s.once.Do(func() {
		s.cancel()
		<-s.done
		close(s.messages)
		err = s.page.Close()
	})
	return err
}

func (s *Surface) pump(ctx context.Context, poll time.Duration) {
	defer close(s.done)
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res, err := s.page.Context(ctx).Evaluate(&rod.EvalOptions{
				JS:           drainScript,
				ByValue:      true,
				AwaitPromise: true,
			})
			if err != nil || res == nil || res.Value.Nil() {
				continue
			}
			raw, err := res.Value.MarshalJSON()
			if err != nil {
				continue
			}
			for _, msg := range decodeQueue(s.id, raw) {
				select {
				case s.messages <- msg:
				case <-ctx.Done():
					return
				default:
					slog.Debug("rodsurface_message_dropped", "surface", s.id)
				}
			}
		}
	}
}

// decodeQueue turns the drained page-side buffer into tracker messages
// attributed to this surface.
func decodeQueue(source string, raw []byte) []tracker.Message {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	out := make([]tracker.Message, 0, len(items))
	for _, item := range items {
		out = append(out, tracker.Message{Source: source, Data: item})
	}
	return out
}
