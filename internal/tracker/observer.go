package tracker

import (
	"context"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/kirillkom/lesson-portal/internal/core/domain"
)

// Emit receives a candidate page signal from an observer.
type Emit func(domain.PageSignal)

// PageObserver is one page-inference strategy.
type PageObserver interface {
	Name() string
	Observe(ctx context.Context, surface Surface, emit Emit) error
}

// MessageObserver reads page reports posted by the viewer frame.
type MessageObserver struct{}

func (MessageObserver) Name() string { return "message" }

func (MessageObserver) Observe(ctx context.Context, surface Surface, emit Emit) error {
	messages := surface.Messages()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			if msg.Source != surface.ID() {
				continue
			}
			if signal, ok := ParsePageMessage(msg.Data); ok {
				emit(signal)
			}
		}
	}
}

// ParsePageMessage recognizes the page-report shapes used by common
// flipbook viewers. Later shapes take precedence over earlier ones.
func ParsePageMessage(data []byte) (domain.PageSignal, bool) {
	if !gjson.ValidBytes(data) {
		return domain.PageSignal{}, false
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return domain.PageSignal{}, false
	}

	var (
		page  int
		total *int
		found bool
	)

	if t := doc.Get("type").String(); t == "pageChange" || t == "page-change" {
		page = firstInt(doc, "pageNumber", "page", "currentPage")
		total = optionalInt(doc, "totalPages", "total")
		found = true
	}
	if doc.Get("event").String() == "page" || doc.Get("action").String() == "page" {
		page = firstInt(doc, "page", "pageNumber")
		total = optionalInt(doc, "totalPages")
		found = true
	}
	if generic := firstInt(doc, "page", "pageNumber", "currentPage"); generic != 0 {
		page = generic
		total = optionalInt(doc, "totalPages", "total")
		found = true
	}

	if !found || page <= 0 {
		return domain.PageSignal{}, false
	}
	return domain.NewPageSignal(page, total), true
}

func firstInt(doc gjson.Result, keys ...string) int {
	for _, k := range keys {
		if n, ok := asInt(doc.Get(k)); ok && n != 0 {
			return n
		}
	}
	return 0
}

func optionalInt(doc gjson.Result, keys ...string) *int {
	if n := firstInt(doc, keys...); n > 0 {
		return &n
	}
	return nil
}

func asInt(r gjson.Result) (int, bool) {
	switch r.Type {
	case gjson.Number:
		return int(r.Int()), true
	case gjson.String:
		return leadingInt(r.Str)
	default:
		return 0, false
	}
}

// leadingInt parses the leading decimal digits of s, ignoring the rest.
func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
