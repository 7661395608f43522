package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskhub/internal/cache"
	apperrors "taskhub/internal/errors"
	"taskhub/internal/model"
	"taskhub/internal/repository"
)

const (
	maxAvatarBytes  = 1_000_000
	avatarDimension = 250
	avatarCacheTTL  = 5 * time.Minute
)

// avatarExtensions lists accepted upload extensions. The match is
// case-sensitive: ".JPG" is rejected.
var avatarExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// AvatarService validates, normalizes and serves avatar images. Whatever
// comes in, what is stored is always a 250x250 PNG.
type AvatarService interface {
	Upload(ctx context.Context, user *model.User, filename string, data []byte) error
	Delete(ctx context.Context, user *model.User) error
	Serve(ctx context.Context, userID uuid.UUID) ([]byte, error)
}

type avatarService struct {
	users repository.UserRepository
	cache *cache.Client
}

// NewAvatarService creates a new avatar service.
func NewAvatarService(users repository.UserRepository, cacheClient *cache.Client) AvatarService {
	return &avatarService{users: users, cache: cacheClient}
}

// Upload re-encodes the uploaded image to a 250x250 PNG and stores it on the
// user record. The original bytes are discarded.
func (s *avatarService) Upload(ctx context.Context, user *model.User, filename string, data []byte) error {
	if !avatarExtensions[path.Ext(filename)] {
		return apperrors.ErrInvalidFileType
	}
	if len(data) > maxAvatarBytes {
		return apperrors.ErrFileTooLarge
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return apperrors.ErrInvalidFileType
	}

	// both dimensions forced: the aspect ratio is not preserved
	resized := imaging.Resize(img, avatarDimension, avatarDimension, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.PNG); err != nil {
		return fmt.Errorf("encode avatar: %w", err)
	}

	if err := s.users.SetAvatar(ctx, user.ID, buf.Bytes()); err != nil {
		return fmt.Errorf("store avatar: %w", err)
	}
	user.Avatar = buf.Bytes()
	_ = s.cache.Delete(ctx, avatarCacheKey(user.ID))
	return nil
}

// Delete clears the stored avatar.
func (s *avatarService) Delete(ctx context.Context, user *model.User) error {
	if err := s.users.SetAvatar(ctx, user.ID, nil); err != nil {
		return fmt.Errorf("clear avatar: %w", err)
	}
	user.Avatar = nil
	_ = s.cache.Delete(ctx, avatarCacheKey(user.ID))
	return nil
}

// Serve returns the stored PNG bytes for any user id. Missing user and
// missing avatar both surface as ErrAvatarNotFound.
func (s *avatarService) Serve(ctx context.Context, userID uuid.UUID) ([]byte, error) {
	if data, _ := s.cache.Get(ctx, avatarCacheKey(userID)); data != nil {
		return data, nil
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAvatarNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if len(user.Avatar) == 0 {
		return nil, apperrors.ErrAvatarNotFound
	}

	_ = s.cache.Set(ctx, avatarCacheKey(userID), user.Avatar, avatarCacheTTL)
	return user.Avatar, nil
}

func avatarCacheKey(id uuid.UUID) string {
	return "avatar:" + id.String()
}
