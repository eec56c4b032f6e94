package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"datacenter-audit-backend/internal/model"
)

// CreateUser inserts a new technician account with a server-generated id.
func (s *gormStore) CreateUser(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Active = true
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return fmt.Errorf("create user: %w", translate(err))
	}
	return nil
}

func (s *gormStore) UserByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *gormStore) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).First(&u, "email = ?", email).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// UpdateUser applies the supplied profile fields and returns the updated record.
func (s *gormStore) UpdateUser(ctx context.Context, id string, fields UserUpdate) (*model.User, error) {
	updates := map[string]any{}
	if fields.FirstName != nil {
		updates["first_name"] = *fields.FirstName
	}
	if fields.LastName != nil {
		updates["last_name"] = *fields.LastName
	}
	if fields.Email != nil {
		updates["email"] = *fields.Email
	}
	if len(updates) > 0 {
		res := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, fmt.Errorf("update user: %w", translate(res.Error))
		}
		if res.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}
	return s.UserByID(ctx, id)
}

// TouchLastLogin stamps the last successful login time.
func (s *gormStore) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	res := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).
		Update("last_login_at", at)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeactivateUser flags the account inactive. Accounts are never hard-deleted.
func (s *gormStore) DeactivateUser(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).
		Update("active", false)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
