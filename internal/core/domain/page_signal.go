package domain

import "fmt"

// PageSignal is a best-effort snapshot of the page visible in an embedded
// viewer. It may be stale or wrong and is never authoritative.
type PageSignal struct {
	PageNumber *int   `json:"pageNumber,omitempty"`
	TotalPages *int   `json:"totalPages,omitempty"`
	Content    string `json:"content,omitempty"`
}

// NewPageSignal builds a signal for page with the default viewing note.
func NewPageSignal(page int, total *int) PageSignal {
	p := page
	return PageSignal{
		PageNumber: &p,
		TotalPages: total,
		Content:    fmt.Sprintf("Đang xem trang %d", page),
	}
}

// Page returns the page number, or 0 when unknown.
func (s PageSignal) Page() int {
	if s.PageNumber == nil {
		return 0
	}
	return *s.PageNumber
}
