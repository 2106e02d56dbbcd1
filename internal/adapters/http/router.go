package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kirillkom/lesson-portal/internal/core/ports"
	"github.com/kirillkom/lesson-portal/internal/core/session"
	"github.com/kirillkom/lesson-portal/internal/core/usecase"
	"github.com/kirillkom/lesson-portal/internal/observability/metrics"
)

const (
	serviceName     = "api"
	maxRequestBytes = 1 << 20
)

type Router struct {
	catalog   ports.CatalogReader
	analyzer  ports.DocumentAnalyzer
	assistant ports.Assistant
	sessions  *session.Store
	metrics   *metrics.HTTPServerMetrics

	inflight *usecase.AnalysisMemo
	validate *validator.Validate
}

// NewRouter wires the HTTP surface. sessions and httpMetrics may be nil, in
// which case the session routes and /metrics are not mounted.
func NewRouter(
	catalog ports.CatalogReader,
	analyzer ports.DocumentAnalyzer,
	assistant ports.Assistant,
	sessions *session.Store,
	httpMetrics *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		catalog:   catalog,
		analyzer:  analyzer,
		assistant: assistant,
		sessions:  sessions,
		metrics:   httpMetrics,
		inflight:  usecase.NewSingleFlight(),
		validate:  newValidator(),
	}
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/analyze-document", rt.analyzeDocument)
	mux.HandleFunc("/chat", rt.chat)
	mux.HandleFunc("/v1/grades", rt.listGrades)
	mux.HandleFunc("/v1/grades/", rt.gradeRoutes)
	mux.HandleFunc("/v1/documents", rt.listDocuments)
	mux.HandleFunc("/v1/documents/", rt.getDocumentByID)
	if rt.sessions != nil {
		mux.HandleFunc("/v1/sessions", rt.createSession)
		mux.HandleFunc("/v1/sessions/", rt.sessionRoutes)
	}

	var handler http.Handler = recoverMiddleware(mux)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) listGrades(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, rt.catalog.Grades())
}

// gradeRoutes serves /v1/grades/{grade} and
// /v1/grades/{grade}/subjects/{subject}/documents.
func (rt *Router) gradeRoutes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/grades/"), "/"), "/")
	if parts[0] == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "grade is required"})
		return
	}
	grade, ok := rt.catalog.Grade(parts[0])
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "grade not found"})
		return
	}

	switch {
	case len(parts) == 1:
		writeJSON(w, http.StatusOK, grade)
	case len(parts) == 4 && parts[1] == "subjects" && parts[3] == "documents":
		if _, ok := grade.FindSubject(parts[2]); !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "subject not found"})
			return
		}
		writeJSON(w, http.StatusOK, rt.catalog.ByGradeSubject(grade.Slug, parts[2]))
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	}
}

func (rt *Router) listDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, rt.catalog.All())
}

func (rt *Router) getDocumentByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	annotateLog(r.Context(), "document_id", id)

	doc, ok := rt.catalog.ByID(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "document not found"})
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// decodeJSON reads a bounded JSON body into dst and validates it.
func (rt *Router) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return false
	}
	if err := rt.validate.Struct(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": validationMessage(err)})
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		field := verrs[0].Field()
		if verrs[0].Tag() == "required" {
			return field + " is required"
		}
		return field + " is invalid"
	}
	return "invalid request"
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
