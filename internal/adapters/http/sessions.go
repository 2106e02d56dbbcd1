package httpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kirillkom/lesson-portal/internal/core/domain"
	"github.com/kirillkom/lesson-portal/internal/core/session"
	"github.com/kirillkom/lesson-portal/internal/tracker"
)

type sessionResponse struct {
	ID string `json:"id"`
	// FrameID tags relayed frame messages; empty when nothing is tracked.
	FrameID string `json:"frameId,omitempty"`
	session.Snapshot
	Messages []domain.ChatMessage `json:"messages"`
}

type openDocumentRequest struct {
	DocumentID string `json:"documentId" validate:"required"`
}

type sendMessageRequest struct {
	Message string `json:"message" validate:"required"`
}

type chatPanelRequest struct {
	Open *bool `json:"open" validate:"required"`
}

// signalRequest relays what the browser observed of the embedded viewer:
// a frame message, a new frame address, or both. Source defaults to the
// session's frame id.
type signalRequest struct {
	Source string          `json:"source"`
	URL    string          `json:"url" validate:"omitempty,url"`
	Data   json.RawMessage `json:"data"`
}

func (rt *Router) createSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	v := rt.sessions.Create()
	writeJSON(w, http.StatusCreated, newSessionResponse(v))
}

// sessionRoutes dispatches /v1/sessions/{id}[/{resource}].
func (rt *Router) sessionRoutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/sessions/"), "/")
	id, resource, _ := strings.Cut(rest, "/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "session id is required"})
		return
	}

	if resource == "" && r.Method == http.MethodDelete {
		if err := rt.sessions.Delete(id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	v, err := rt.sessions.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}

	switch resource {
	case "":
		rt.getSession(w, r, v)
	case "document":
		rt.sessionDocument(w, r, v)
	case "analysis":
		rt.sessionAnalysis(w, r, v)
	case "messages":
		rt.sessionMessages(w, r, v)
	case "chat":
		rt.sessionChatPanel(w, r, v)
	case "signals":
		rt.sessionSignals(w, r, v)
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	}
}

func (rt *Router) getSession(w http.ResponseWriter, r *http.Request, v *session.Viewer) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(v))
}

func (rt *Router) sessionDocument(w http.ResponseWriter, r *http.Request, v *session.Viewer) {
	switch r.Method {
	case http.MethodPut:
		var req openDocumentRequest
		if !rt.decodeJSON(w, r, &req) {
			return
		}
		doc, ok := rt.catalog.ByID(req.DocumentID)
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "document not found"})
			return
		}
		annotateLog(r.Context(), "document_id", doc.ID)
		v.Open(doc)
		go rt.warmAnalysis(context.WithoutCancel(r.Context()), v)
		writeJSON(w, http.StatusAccepted, newSessionResponse(v))
	case http.MethodDelete:
		v.Close()
		w.WriteHeader(http.StatusNoContent)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

// warmAnalysis runs the first analysis of a freshly opened document so the
// welcome message is ready when the chat panel is read.
func (rt *Router) warmAnalysis(ctx context.Context, v *session.Viewer) {
	if _, err := v.EnsureAnalysis(ctx); err != nil {
		slog.Warn("session_analysis_warmup_failed",
			"request_id", requestIDFromContext(ctx),
			"session_id", v.ID(),
			"error", err,
		)
	}
}

func (rt *Router) sessionAnalysis(w http.ResponseWriter, r *http.Request, v *session.Viewer) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	analysis, err := v.EnsureAnalysis(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (rt *Router) sessionMessages(w http.ResponseWriter, r *http.Request, v *session.Viewer) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, v.Messages())
	case http.MethodPost:
		var req sendMessageRequest
		if !rt.decodeJSON(w, r, &req) {
			return
		}
		msg, err := v.Send(r.Context(), req.Message)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, msg)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (rt *Router) sessionChatPanel(w http.ResponseWriter, r *http.Request, v *session.Viewer) {
	if r.Method != http.MethodPut {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	var req chatPanelRequest
	if !rt.decodeJSON(w, r, &req) {
		return
	}
	v.SetChatOpen(*req.Open)
	writeJSON(w, http.StatusOK, map[string]bool{"chatOpen": *req.Open})
}

func (rt *Router) sessionSignals(w http.ResponseWriter, r *http.Request, v *session.Viewer) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	var req signalRequest
	if !rt.decodeJSON(w, r, &req) {
		return
	}
	if req.URL == "" && len(req.Data) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "url or data is required"})
		return
	}

	relay := v.Relay()
	if relay == nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "no tracked document is open"})
		return
	}
	if req.URL != "" {
		relay.SetURL(req.URL)
	}
	source := req.Source
	if source == "" {
		source = relay.ID()
	}
	if len(req.Data) > 0 && !relay.Push(tracker.Message{Source: source, Data: req.Data}) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "signal queue is full"})
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func newSessionResponse(v *session.Viewer) sessionResponse {
	res := sessionResponse{
		ID:       v.ID(),
		Snapshot: v.State().Snapshot(),
		Messages: v.Messages(),
	}
	if relay := v.Relay(); relay != nil {
		res.FrameID = relay.ID()
	}
	return res
}
