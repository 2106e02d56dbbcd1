package localfs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/kirillkom/lesson-portal/internal/core/domain"
)

func TestReadAllResolvesPublicPath(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "pdfs", "lop3"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "pdfs", "lop3", "a.pdf"), []byte("%PDF"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	s, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	data, err := s.ReadAll(context.Background(), "/pdfs/lop3/a.pdf")
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(data) != "%PDF" {
		t.Fatalf("unexpected data %q", data)
	}
	if !s.Exists("pdfs/lop3/a.pdf") {
		t.Fatalf("Exists() = false")
	}
}

func TestReadAllMissingFileIsNotFound(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	_, err = s.ReadAll(context.Background(), "/pdfs/missing.pdf")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestReadAllStaysInsideBase(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "secret.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	base := filepath.Join(root, "public")
	if err := os.MkdirAll(base, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	s, err := New(base)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	_, err = s.ReadAll(context.Background(), "../secret.txt")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected not found for traversal, got %v", err)
	}
	_, err = s.ReadAll(context.Background(), "")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected not found for empty path, got %v", err)
	}
}
