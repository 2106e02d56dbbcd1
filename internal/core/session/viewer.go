package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/lesson-portal/internal/core/domain"
	"github.com/kirillkom/lesson-portal/internal/core/ports"
	"github.com/kirillkom/lesson-portal/internal/core/usecase"
	"github.com/kirillkom/lesson-portal/internal/tracker"
)

const (
	WelcomeMessageID = "welcome"
	ApologyMessage   = "Xin lỗi, tôi đang gặp sự cố. Vui lòng thử lại sau."
	welcomeKeywords  = 5
)

// ErrDocumentChanged reports a result computed for a document that is no
// longer the active one. The result is discarded.
var ErrDocumentChanged = errors.New("document changed")

type Dependencies struct {
	Analyzer  ports.DocumentAnalyzer
	Assistant ports.Assistant
	// Events is optional.
	Events         ports.EventPublisher
	TrackerOptions []tracker.Option
}

// Viewer is one user's document viewing session. It owns the State, the
// chat transcript, the analysis memo and the page tracker.
type Viewer struct {
	id    string
	deps  Dependencies
	state *State
	memo  *usecase.AnalysisMemo
	now   func() time.Time

	mu       sync.Mutex
	messages []domain.ChatMessage
	tracker  *tracker.Tracker
	relay    *tracker.RelaySurface
}

func NewViewer(id string, deps Dependencies) *Viewer {
	return &Viewer{
		id:    id,
		deps:  deps,
		state: NewState(),
		memo:  usecase.NewAnalysisMemo(),
		now:   time.Now,
	}
}

func (v *Viewer) ID() string { return v.id }

func (v *Viewer) State() *State { return v.state }

// Open makes doc the active document. Switching to a different identity
// clears the transcript, page signal and analysis.
func (v *Viewer) Open(doc domain.Document) {
	v.mu.Lock()
	defer v.mu.Unlock()

	// The old tracker must be stopped before the reset so none of its
	// signals land on the new document.
	v.stopTrackerLocked()

	if prev, ok := v.state.Document(); !ok || prev.Identity() != doc.Identity() {
		v.messages = nil
		v.state.SetPageSignal(nil)
		v.state.SetAnalysis(nil)
		if ok {
			v.memo.Forget(prev.Identity())
		}
	}
	v.state.SetDocument(&doc)

	if doc.IframeURL != "" {
		v.startTrackerLocked(doc)
	}
}

// Close stops tracking and clears all session content.
func (v *Viewer) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.stopTrackerLocked()
	v.messages = nil
	v.state.SetDocument(nil)
	v.state.SetPageSignal(nil)
	v.state.SetAnalysis(nil)
	v.memo.Reset()
}

// EnsureAnalysis analyzes the active document once and greets the user
// with the result. A failed analysis still posts a generic greeting.
func (v *Viewer) EnsureAnalysis(ctx context.Context) (domain.Analysis, error) {
	snap := v.state.Snapshot()
	if snap.Document == nil {
		return domain.Analysis{}, domain.WrapError(domain.ErrInvalidInput, "ensure analysis", errors.New("no document open"))
	}
	if snap.Analysis != nil {
		return *snap.Analysis, nil
	}

	doc := *snap.Document
	res, err := v.memo.GetOrStart(ctx, doc.Identity(), func(ctx context.Context) (domain.AnalysisResult, error) {
		return v.deps.Analyzer.Analyze(ctx, doc)
	})

	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.isActiveLocked(doc) {
		return domain.Analysis{}, ErrDocumentChanged
	}

	if err != nil {
		slog.Warn("session_analysis_failed",
			"session_id", v.id,
			"document", doc.Identity(),
			"error", err,
		)
		v.putWelcomeLocked(fallbackWelcome(doc))
		return domain.Analysis{}, fmt.Errorf("ensure analysis: %w", err)
	}

	if current := v.state.Snapshot().Analysis; current != nil {
		return *current, nil
	}
	v.state.SetAnalysis(&res.Analysis)
	v.putWelcomeLocked(analysisWelcome(doc, res.Analysis))

	if v.deps.Events != nil {
		if err := v.deps.Events.PublishAnalysis(context.WithoutCancel(ctx), doc, res); err != nil {
			slog.Warn("session_event_publish_failed", "session_id", v.id, "error", err)
		}
	}
	return res.Analysis, nil
}

// Send posts a user question and the assistant reply. Upstream failures
// become an apology message; configuration failures are returned.
func (v *Viewer) Send(ctx context.Context, question string) (domain.ChatMessage, error) {
	if strings.TrimSpace(question) == "" {
		return domain.ChatMessage{}, domain.WrapError(domain.ErrInvalidInput, "send", errors.New("message is required"))
	}

	asked := v.newMessage(question, true)
	v.mu.Lock()
	v.messages = append(v.messages, asked)
	v.mu.Unlock()

	snap := v.state.Snapshot()
	reply, err := v.deps.Assistant.Ask(ctx, domain.AskRequest{
		Question:   question,
		Document:   snap.Document,
		Analysis:   snap.Analysis,
		PageSignal: snap.PageSignal,
	})
	if err != nil && domain.IsKind(err, domain.ErrConfiguration) {
		v.mu.Lock()
		v.dropMessageLocked(asked.ID)
		v.mu.Unlock()
		return domain.ChatMessage{}, fmt.Errorf("send: %w", err)
	}

	content := reply.Message
	if err != nil {
		slog.Warn("session_chat_failed", "session_id", v.id, "error", err)
		content = ApologyMessage
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if snap.Document != nil && !v.isActiveLocked(*snap.Document) {
		return domain.ChatMessage{}, ErrDocumentChanged
	}
	msg := v.newMessage(content, false)
	v.messages = append(v.messages, msg)
	return msg, nil
}

func (v *Viewer) ToggleChat() bool { return v.state.ToggleChat() }

func (v *Viewer) SetChatOpen(open bool) { v.state.SetChatOpen(open) }

// Messages returns a copy of the transcript.
func (v *Viewer) Messages() []domain.ChatMessage {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]domain.ChatMessage{}, v.messages...)
}

// Relay returns the surface fed by the client, or nil when nothing is tracked.
func (v *Viewer) Relay() *tracker.RelaySurface {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.relay
}

func (v *Viewer) startTrackerLocked(doc domain.Document) {
	relay := tracker.NewRelaySurface(doc.IframeURL)
	tr := tracker.New(relay, v.deps.TrackerOptions...)
	tr.OnSignal(func(signal domain.PageSignal) {
		if cur, ok := v.state.Document(); !ok || cur.Identity() != doc.Identity() {
			return
		}
		v.state.SetPageSignal(&signal)
		if v.deps.Events != nil {
			if err := v.deps.Events.PublishPageSignal(context.Background(), v.id, doc, signal); err != nil {
				slog.Warn("session_event_publish_failed", "session_id", v.id, "error", err)
			}
		}
	})
	if err := tr.Start(context.Background()); err != nil {
		slog.Warn("session_tracker_start_failed", "session_id", v.id, "error", err)
		relay.Close()
		return
	}
	v.tracker = tr
	v.relay = relay
}

func (v *Viewer) stopTrackerLocked() {
	if v.tracker != nil {
		v.tracker.Stop()
		v.tracker = nil
	}
	if v.relay != nil {
		v.relay.Close()
		v.relay = nil
	}
}

func (v *Viewer) isActiveLocked(doc domain.Document) bool {
	cur, ok := v.state.Document()
	return ok && cur.Identity() == doc.Identity()
}

// dropMessageLocked removes an unanswered question from the transcript.
func (v *Viewer) dropMessageLocked(id string) {
	for i, m := range v.messages {
		if m.ID == id {
			v.messages = append(v.messages[:i], v.messages[i+1:]...)
			return
		}
	}
}

// putWelcomeLocked places the welcome message first, replacing an older one.
func (v *Viewer) putWelcomeLocked(content string) {
	welcome := domain.ChatMessage{ID: WelcomeMessageID, Content: content, Timestamp: v.now()}
	rest := make([]domain.ChatMessage, 0, len(v.messages)+1)
	rest = append(rest, welcome)
	for _, m := range v.messages {
		if m.ID != WelcomeMessageID {
			rest = append(rest, m)
		}
	}
	v.messages = rest
}

func (v *Viewer) newMessage(content string, isUser bool) domain.ChatMessage {
	return domain.ChatMessage{
		ID:        uuid.NewString(),
		Content:   content,
		IsUser:    isUser,
		Timestamp: v.now(),
	}
}

func analysisWelcome(doc domain.Document, a domain.Analysis) string {
	keywords := a.Keywords
	if len(keywords) > welcomeKeywords {
		keywords = keywords[:welcomeKeywords]
	}
	return fmt.Sprintf("Xin chào! Tôi đã phân tích bài học \"%s\" và sẵn sàng giúp bạn.\n\n"+
		"**Tóm tắt bài học:**\n%s\n\n"+
		"**Chủ đề chính:**\n%s\n\n"+
		"**Từ khóa quan trọng:**\n%s\n\n"+
		"Bạn có thể hỏi tôi về bất kỳ nội dung nào trong bài học này!",
		doc.Name, a.Summary, strings.Join(a.Topics, ", "), strings.Join(keywords, ", "))
}

func fallbackWelcome(doc domain.Document) string {
	return fmt.Sprintf("Xin chào! Tôi là AI trợ lý giáo dục. Tôi sẽ giúp bạn về bài học \"%s\" - %s lớp %s. Hãy đặt câu hỏi về nội dung bài học nhé!",
		doc.Name, doc.Subject, doc.Grade)
}
