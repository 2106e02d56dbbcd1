package pdftext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/lesson-portal/internal/core/domain"
)

// Extractor pulls plain text out of PDF bytes page by page.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract joins the text runs of each page with a space and ends every page
// with a newline. Malformed documents yield an ErrExtraction.
func (e *Extractor) Extract(ctx context.Context, data []byte) (text string, err error) {
	if len(data) == 0 {
		return "", domain.WrapError(domain.ErrExtraction, "extract pdf", errors.New("empty document"))
	}

	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = domain.WrapError(domain.ErrExtraction, "extract pdf", fmt.Errorf("pdf reader panic: %v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", domain.WrapError(domain.ErrExtraction, "open pdf", err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			b.WriteString("\n")
			continue
		}

		runs := page.Content().Text
		parts := make([]string, 0, len(runs))
		for _, run := range runs {
			parts = append(parts, run.S)
		}
		b.WriteString(strings.Join(parts, " "))
		b.WriteString("\n")
	}
	return b.String(), nil
}
