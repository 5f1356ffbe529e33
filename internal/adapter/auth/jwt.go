// Package auth issues and verifies the bearer tokens that carry a session.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finapp-backend/internal/domain/session"
	"finapp-backend/internal/domain/user"
	"finapp-backend/pkg/id"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Revoker remembers logged-out token ids until they would have expired anyway.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	Revoked(ctx context.Context, tokenID string) (bool, error)
}

type JWTManager struct {
	secret  []byte
	issuer  string
	ttl     time.Duration
	revoker Revoker
	now     func() time.Time
}

// NewJWTManager signs HS256 tokens. A nil revoker disables logout checks.
func NewJWTManager(secret, issuer string, ttl time.Duration, r Revoker) *JWTManager {
	return &JWTManager{
		secret:  []byte(secret),
		issuer:  issuer,
		ttl:     ttl,
		revoker: r,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Issue creates a token for userID in role and the session it stands for.
func (j *JWTManager) Issue(userID string, role user.Role) (string, session.Session, error) {
	if userID == "" || !role.Valid() {
		return "", session.Session{}, fmt.Errorf("issue token: bad subject %q or role %q", userID, role)
	}
	now := j.now()
	sess := session.Session{
		UserID:    userID,
		Role:      role,
		TokenID:   id.NewID32(),
		ExpiresAt: now.Add(j.ttl).Truncate(time.Second),
	}
	claims := &Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.TokenID,
			Subject:   userID,
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", session.Session{}, err
	}
	return signed, sess, nil
}

// Parse verifies the token and returns its session. Every failure is
// reported as session.ErrUnauthenticated.
func (j *JWTManager) Parse(ctx context.Context, raw string) (session.Session, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return j.secret, nil
	},
		jwt.WithIssuer(j.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil || !token.Valid {
		return session.Session{}, fmt.Errorf("%w: %v", session.ErrUnauthenticated, err)
	}

	role := user.Role(claims.Role)
	if claims.Subject == "" || claims.ID == "" || !role.Valid() {
		return session.Session{}, fmt.Errorf("%w: incomplete claims", session.ErrUnauthenticated)
	}
	if j.revoker != nil {
		revoked, err := j.revoker.Revoked(ctx, claims.ID)
		if err != nil {
			return session.Session{}, fmt.Errorf("check token revocation: %w", err)
		}
		if revoked {
			return session.Session{}, fmt.Errorf("%w: logged out", session.ErrUnauthenticated)
		}
	}
	return session.Session{
		UserID:    claims.Subject,
		Role:      role,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Logout ends sess; its token is refused from now on.
func (j *JWTManager) Logout(ctx context.Context, sess session.Session) error {
	if j.revoker == nil {
		return nil
	}
	return j.revoker.Revoke(ctx, sess.TokenID, sess.ExpiresAt)
}
