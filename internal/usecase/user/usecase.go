package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"finapp-backend/internal/domain/loan"
	"finapp-backend/internal/domain/session"
	"finapp-backend/internal/domain/user"

	"gorm.io/gorm"
)

type ProfileInput struct {
	Name        string
	PhoneNumber string
	PushToken   string
}

type ProfileDTO struct {
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`
	PhoneNumber  string    `json:"phone_number"`
	Role         string    `json:"role"`
	HasPushToken bool      `json:"has_push_token"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Usecase struct {
	repo user.Repository
	now  func() time.Time
}

func NewUsecase(r user.Repository) *Usecase {
	return &Usecase{repo: r, now: func() time.Time { return time.Now().UTC() }}
}

func toDTO(u *user.User) *ProfileDTO {
	return &ProfileDTO{
		UserID:       u.UserID,
		Name:         u.Name,
		PhoneNumber:  u.PhoneNumber,
		Role:         string(u.Role),
		HasPushToken: u.PushToken != "",
		UpdatedAt:    u.UpdatedAt,
	}
}

// Upsert stores the caller's profile under the session's user id and role.
// An empty push token keeps the stored one.
func (u *Usecase) Upsert(ctx context.Context, sess session.Session, in ProfileInput) (*ProfileDTO, error) {
	if sess.UserID == "" {
		return nil, session.ErrUnauthenticated
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", loan.ErrInvalidInput)
	}

	prof := &user.User{
		UserID:      sess.UserID,
		Name:        name,
		PhoneNumber: strings.TrimSpace(in.PhoneNumber),
		Role:        sess.Role,
		PushToken:   in.PushToken,
	}
	if prof.PushToken == "" {
		cur, err := u.repo.GetByUserID(ctx, sess.UserID)
		switch {
		case err == nil:
			prof.PushToken = cur.PushToken
		case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, user.ErrNotFound):
		default:
			return nil, err
		}
	}
	prof.UpdatedAt = u.now()
	if err := u.repo.Upsert(ctx, prof); err != nil {
		return nil, err
	}
	return toDTO(prof), nil
}

func (u *Usecase) Get(ctx context.Context, sess session.Session) (*ProfileDTO, error) {
	if sess.UserID == "" {
		return nil, session.ErrUnauthenticated
	}
	p, err := u.repo.GetByUserID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, err
	}
	return toDTO(p), nil
}
