// Package session carries the caller identity explicitly through every
// operation that needs it. A Session lives from login until logout or expiry.
package session

import (
	"context"
	"errors"
	"time"

	"finapp-backend/internal/domain/user"
)

var (
	ErrUnauthenticated = errors.New("missing or invalid session")
	ErrForbidden       = errors.New("operation not allowed for this role")
)

type Session struct {
	UserID    string
	Role      user.Role
	TokenID   string
	ExpiresAt time.Time
}

func (s Session) IsAdmin() bool { return s.Role == user.RoleAdmin }

// Owns reports whether the session is the owning client of a resource.
func (s Session) Owns(ownerID string) bool {
	return s.Role == user.RoleClient && s.UserID != "" && s.UserID == ownerID
}

// CanView lets admins see everything and clients see their own records.
func (s Session) CanView(ownerID string) bool { return s.IsAdmin() || s.UserID == ownerID }

func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

type ctxKey struct{}

func NewContext(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok
}
