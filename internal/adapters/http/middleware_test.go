package httpadapter

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestIDMiddlewareGeneratesID(t *testing.T) {
	var seen string
	handler := requestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestIDFromContext(r.Context())
	}))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if seen == "" {
		t.Fatalf("expected generated request id in context")
	}
	if res.Header().Get(requestIDHeader) != seen {
		t.Fatalf("expected response header %q, got %q", seen, res.Header().Get(requestIDHeader))
	}
}

func TestRecoverMiddlewareReturns500(t *testing.T) {
	handler := accessLogMiddleware(recoverMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/sessions/s-1/messages", nil))

	if res.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.Code)
	}
}

func TestSessionIDFromPath(t *testing.T) {
	cases := map[string]string{
		"/v1/sessions/abc":          "abc",
		"/v1/sessions/abc/messages": "abc",
		"/v1/sessions":              "",
		"/chat":                     "",
	}
	for path, want := range cases {
		if got := sessionIDFromPath(path); got != want {
			t.Fatalf("sessionIDFromPath(%q): expected %q, got %q", path, want, got)
		}
	}
}

func TestAccessLogIncludesDocumentFields(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	handler := NewRouter(newCatalogFake(), &analyzerFake{}, &assistantFake{}, nil, nil).Handler()
	res := doJSON(t, handler, http.MethodPost, "/analyze-document", map[string]any{
		"documentName": "Lesson 1", "documentPath": "/pdfs/lop3/toan/lesson1.pdf",
	})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}

	var record map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var r map[string]any
		if err := json.Unmarshal([]byte(line), &r); err == nil && r["msg"] == "http_request" {
			record = r
		}
	}
	if record == nil {
		t.Fatalf("expected an http_request record, got %q", buf.String())
	}
	if record["document_path"] != "/pdfs/lop3/toan/lesson1.pdf" {
		t.Fatalf("expected document_path in access log, got %v", record["document_path"])
	}
	if record["analysis_fallback"] != false {
		t.Fatalf("expected analysis_fallback in access log, got %v", record["analysis_fallback"])
	}
}
