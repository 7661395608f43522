package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskhub/internal/model"
)

// UserRepository defines user persistence operations, including the session
// token set and the avatar blob.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByIDAndToken(ctx context.Context, id uuid.UUID, token string) (*model.User, error)
	AddToken(ctx context.Context, userID uuid.UUID, token string) error
	RemoveToken(ctx context.Context, userID uuid.UUID, token string) error
	ClearTokens(ctx context.Context, userID uuid.UUID) error
	SetAvatar(ctx context.Context, userID uuid.UUID, data []byte) error
	Delete(ctx context.Context, user *model.User) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository builds a GORM-backed repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByIDAndToken returns the user only when the token is still present in
// their session token set.
func (r *userRepository) FindByIDAndToken(ctx context.Context, id uuid.UUID, token string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Joins("JOIN session_tokens ON session_tokens.user_id = users.id AND session_tokens.token = ?", token).
		Where("users.id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) AddToken(ctx context.Context, userID uuid.UUID, token string) error {
	return r.db.WithContext(ctx).Create(&model.SessionToken{
		UserID: userID,
		Token:  token,
	}).Error
}

// RemoveToken removes exactly one matching token row. A token that is already
// gone is not an error.
func (r *userRepository) RemoveToken(ctx context.Context, userID uuid.UUID, token string) error {
	var session model.SessionToken
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND token = ?", userID, token).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	return r.db.WithContext(ctx).Delete(&session).Error
}

func (r *userRepository) ClearTokens(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.SessionToken{}).Error
}

func (r *userRepository) SetAvatar(ctx context.Context, userID uuid.UUID, data []byte) error {
	return r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Update("avatar", data).Error
}

// Delete removes the user together with their tasks and session tokens in a
// single transaction, so no observer sees the user gone with tasks remaining.
func (r *userRepository) Delete(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("owner_id = ?", user.ID).Delete(&model.Task{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&model.SessionToken{}).Error; err != nil {
			return err
		}
		return tx.Delete(user).Error
	})
}
