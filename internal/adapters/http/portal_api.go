package httpadapter

import (
	"context"
	"net/http"
	"strings"

	"github.com/kirillkom/lesson-portal/internal/core/domain"
)

type analyzeDocumentRequest struct {
	DocumentName string `json:"documentName"`
	Subject      string `json:"subject"`
	Grade        string `json:"grade"`
	DocumentPath string `json:"documentPath" validate:"required"`
}

type analyzeDocumentResponse struct {
	Success  bool            `json:"success"`
	Analysis domain.Analysis `json:"analysis"`
	Usage    domain.Usage    `json:"usage"`
}

type chatRequest struct {
	Message           string             `json:"message" validate:"required"`
	CurrentDocument   *domain.Document   `json:"currentDocument"`
	CurrentPageSignal *domain.PageSignal `json:"currentPageSignal"`
	Analysis          *domain.Analysis   `json:"analysis"`
}

// analyzeDocument analyzes the file at documentPath under the public
// directory. Identical concurrent requests share one analysis.
func (rt *Router) analyzeDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req analyzeDocumentRequest
	if !rt.decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.DocumentPath) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "documentPath is required"})
		return
	}

	doc := domain.Document{
		Name:    strings.TrimSpace(req.DocumentName),
		Subject: strings.TrimSpace(req.Subject),
		Grade:   strings.TrimSpace(req.Grade),
		File:    strings.TrimSpace(req.DocumentPath),
	}
	annotateLog(r.Context(), "document_path", doc.File)

	res, err := rt.inflight.GetOrStart(r.Context(), doc.Identity(), func(ctx context.Context) (domain.AnalysisResult, error) {
		return rt.analyzer.Analyze(ctx, doc)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	annotateLog(r.Context(), "analysis_fallback", res.Fallback)

	writeJSON(w, http.StatusOK, analyzeDocumentResponse{
		Success:  true,
		Analysis: res.Analysis,
		Usage:    res.Usage,
	})
}

// chat answers one stateless question grounded in the supplied context.
func (rt *Router) chat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req chatRequest
	if !rt.decodeJSON(w, r, &req) {
		return
	}

	if req.CurrentDocument != nil {
		annotateLog(r.Context(), "document_path", req.CurrentDocument.File)
	}

	reply, err := rt.assistant.Ask(r.Context(), domain.AskRequest{
		Question:   req.Message,
		Document:   req.CurrentDocument,
		Analysis:   req.Analysis,
		PageSignal: req.CurrentPageSignal,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}
