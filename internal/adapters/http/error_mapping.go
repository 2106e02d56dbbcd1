package httpadapter

import (
	"errors"
	"net/http"

	"github.com/kirillkom/lesson-portal/internal/core/domain"
	"github.com/kirillkom/lesson-portal/internal/core/session"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrDocumentNotFound), domain.IsKind(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrDocumentChanged):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
