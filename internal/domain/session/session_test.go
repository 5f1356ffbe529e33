package session

import (
	"context"
	"testing"
	"time"

	"finapp-backend/internal/domain/user"

	"github.com/stretchr/testify/assert"
)

func TestSession_Access(t *testing.T) {
	client := Session{UserID: "c1", Role: user.RoleClient}
	admin := Session{UserID: "a1", Role: user.RoleAdmin}

	assert.True(t, client.Owns("c1"))
	assert.False(t, client.Owns("c2"))
	assert.False(t, admin.Owns("a1"))
	assert.False(t, Session{Role: user.RoleClient}.Owns(""))

	assert.True(t, client.CanView("c1"))
	assert.False(t, client.CanView("c2"))
	assert.True(t, admin.CanView("c2"))
	assert.True(t, admin.IsAdmin())
}

func TestSession_Expired(t *testing.T) {
	now := time.Now()
	assert.False(t, Session{}.Expired(now))
	assert.False(t, Session{ExpiresAt: now.Add(time.Minute)}.Expired(now))
	assert.True(t, Session{ExpiresAt: now.Add(-time.Minute)}.Expired(now))
}

func TestSession_Context(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := NewContext(context.Background(), Session{UserID: "c1", Role: user.RoleClient})
	got, ok := FromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "c1", got.UserID)
}
