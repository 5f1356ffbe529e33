package http

import (
	"context"
	"net/http"

	"finapp-backend/internal/domain/session"

	"github.com/labstack/echo/v4"
)

type Logouter interface {
	Logout(ctx context.Context, sess session.Session) error
}

type SessionHandler struct{ auth Logouter }

func NewSessionHandler(a Logouter) *SessionHandler { return &SessionHandler{auth: a} }

// Logout revokes the presented token for the rest of its lifetime.
func (h *SessionHandler) Logout(c echo.Context) error {
	if err := h.auth.Logout(c.Request().Context(), sessionOf(c)); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
