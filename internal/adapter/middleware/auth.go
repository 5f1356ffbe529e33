package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"finapp-backend/internal/domain/session"
	"finapp-backend/internal/domain/user"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

type TokenParser interface {
	Parse(ctx context.Context, raw string) (session.Session, error)
}

// tokenFrom reads "Authorization: Bearer <token>"; websocket clients that
// cannot set headers may pass ?access_token= instead.
func tokenFrom(c echo.Context) string {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return ""
		}
		return strings.TrimSpace(parts[1])
	}
	return c.QueryParam("access_token")
}

// Auth resolves the caller's session and puts it on the request context.
func Auth(p TokenParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := tokenFrom(c)
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
			}
			req := c.Request()
			sess, err := p.Parse(req.Context(), raw)
			if err != nil {
				if errors.Is(err, session.ErrUnauthenticated) {
					return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid or expired token"})
				}
				log.WithError(err).Error("auth: session lookup")
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "session store unavailable"})
			}
			c.SetRequest(req.WithContext(session.NewContext(req.Context(), sess)))
			return next(c)
		}
	}
}

// RequireRole lets only the given roles through. It must run after Auth.
func RequireRole(roles ...user.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, ok := SessionFrom(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing session"})
			}
			for _, r := range roles {
				if sess.Role == r {
					return next(c)
				}
			}
			return c.JSON(http.StatusForbidden, map[string]string{"error": session.ErrForbidden.Error()})
		}
	}
}

func SessionFrom(c echo.Context) (session.Session, bool) {
	return session.FromContext(c.Request().Context())
}
