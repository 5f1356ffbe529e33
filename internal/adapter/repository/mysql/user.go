package mysql

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	userDomain "finapp-backend/internal/domain/user"
)

type UserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) *UserRepository { return &UserRepository{db: db} }

func (r *UserRepository) Upsert(ctx context.Context, u *userDomain.User) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"phone_number", "name", "role", "push_token", "updated_at"}),
		}).
		Create(u).Error
}

func (r *UserRepository) GetByUserID(ctx context.Context, userID string) (*userDomain.User, error) {
	var out userDomain.User
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *UserRepository) ListByRole(ctx context.Context, role userDomain.Role) ([]*userDomain.User, error) {
	var out []*userDomain.User
	err := r.db.WithContext(ctx).Where("role = ?", role).Order("id ASC").Find(&out).Error
	return out, err
}
