package user

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("user not found")

type Role string

const (
	RoleClient Role = "CLIENT"
	RoleAdmin  Role = "ADMIN"
)

func (r Role) Valid() bool { return r == RoleClient || r == RoleAdmin }

// Table: users
type User struct {
	ID          uint64    `gorm:"primaryKey;column:id" json:"-"`
	UserID      string    `gorm:"column:user_id;size:64;uniqueIndex:ux_users_user_id" json:"user_id"`
	PhoneNumber string    `gorm:"column:phone_number;size:32" json:"phone_number"`
	Name        string    `gorm:"column:name;size:128" json:"name"`
	Role        Role      `gorm:"column:role;size:16;index:idx_users_role" json:"role"`
	PushToken   string    `gorm:"column:push_token;type:text" json:"-"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string { return "users" }

type Repository interface {
	// Upsert inserts or updates the profile keyed by UserID.
	Upsert(ctx context.Context, u *User) error
	GetByUserID(ctx context.Context, userID string) (*User, error)
	ListByRole(ctx context.Context, role Role) ([]*User, error)
}
