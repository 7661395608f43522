package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"taskhub/internal/auth"
	"taskhub/internal/cache"
	apperrors "taskhub/internal/errors"
	"taskhub/internal/model"
	"taskhub/internal/notification"
	"taskhub/internal/repository"
)

const bcryptCost = 10

var validate = validator.New()

// UserService handles account lifecycle and session operations.
type UserService interface {
	Register(ctx context.Context, name, email, password string, age int) (*model.User, string, error)
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	Logout(ctx context.Context, user *model.User, token string) error
	LogoutAll(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User, patch map[string]interface{}) (*model.User, error)
	Delete(ctx context.Context, user *model.User) error
}

type userService struct {
	users      repository.UserRepository
	jwtService *auth.JWTService
	notifier   notification.Notifier
	cache      *cache.Client
}

// NewUserService creates a new user service.
func NewUserService(users repository.UserRepository, jwtService *auth.JWTService, notifier notification.Notifier, cacheClient *cache.Client) UserService {
	return &userService{
		users:      users,
		jwtService: jwtService,
		notifier:   notifier,
		cache:      cacheClient,
	}
}

// Register creates a new user with a hashed password and opens the first
// session. The welcome notification is fire-and-forget.
func (s *userService) Register(ctx context.Context, name, email, password string, age int) (*model.User, string, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	password = strings.TrimSpace(password)

	var fields []string
	if !validName(name) {
		fields = append(fields, "name")
	}
	if !validEmail(email) {
		fields = append(fields, "email")
	}
	if !validPassword(password) {
		fields = append(fields, "password")
	}
	if !validAge(age) {
		fields = append(fields, "age")
	}
	if len(fields) > 0 {
		return nil, "", &apperrors.ValidationError{Fields: fields}
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, "", apperrors.ErrEmailTaken
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", fmt.Errorf("check email uniqueness: %w", err)
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, "", err
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Age:          age,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	if err := s.notifier.SendWelcome(ctx, user.Email, user.Name); err != nil {
		log.Printf("welcome notification for %s: %v", user.Email, err)
	}

	token, err := s.issueToken(ctx, user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login authenticates by email and password and opens a new session. Unknown
// email and wrong password fail with the same error on purpose.
func (s *userService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	email = normalizeEmail(email)
	password = strings.TrimSpace(password)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", apperrors.ErrUnableToLogin
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", apperrors.ErrUnableToLogin
	}

	token, err := s.issueToken(ctx, user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Logout revokes exactly the presented session token.
func (s *userService) Logout(ctx context.Context, user *model.User, token string) error {
	return s.users.RemoveToken(ctx, user.ID, token)
}

// LogoutAll revokes every session the user holds.
func (s *userService) LogoutAll(ctx context.Context, user *model.User) error {
	return s.users.ClearTokens(ctx, user.ID)
}

var allowedUserUpdates = map[string]bool{
	"name":     true,
	"email":    true,
	"password": true,
	"age":      true,
}

// Update applies a restricted-field patch. A patch containing any key outside
// the allow-set is rejected in full; a password change re-hashes.
func (s *userService) Update(ctx context.Context, user *model.User, patch map[string]interface{}) (*model.User, error) {
	var invalid []string
	for key := range patch {
		if !allowedUserUpdates[key] {
			invalid = append(invalid, key)
		}
	}
	if len(invalid) > 0 {
		sort.Strings(invalid)
		return nil, &apperrors.InvalidUpdateError{Keys: invalid}
	}

	updated := *user
	var fields []string
	for key, value := range patch {
		switch key {
		case "name":
			v, ok := value.(string)
			v = strings.TrimSpace(v)
			if !ok || !validName(v) {
				fields = append(fields, "name")
				continue
			}
			updated.Name = v
		case "email":
			v, ok := value.(string)
			v = normalizeEmail(v)
			if !ok || !validEmail(v) {
				fields = append(fields, "email")
				continue
			}
			updated.Email = v
		case "password":
			v, ok := value.(string)
			v = strings.TrimSpace(v)
			if !ok || !validPassword(v) {
				fields = append(fields, "password")
				continue
			}
			hash, err := hashPassword(v)
			if err != nil {
				return nil, err
			}
			updated.PasswordHash = hash
		case "age":
			v, ok := value.(float64)
			if !ok || v != float64(int(v)) || !validAge(int(v)) {
				fields = append(fields, "age")
				continue
			}
			updated.Age = int(v)
		}
	}
	if len(fields) > 0 {
		sort.Strings(fields)
		return nil, &apperrors.ValidationError{Fields: fields}
	}

	if updated.Email != user.Email {
		existing, err := s.users.FindByEmail(ctx, updated.Email)
		if err == nil && existing != nil && existing.ID != user.ID {
			return nil, apperrors.ErrEmailTaken
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("check email uniqueness: %w", err)
		}
	}

	if err := s.users.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	*user = updated
	return user, nil
}

// Delete removes the user and, in the same transaction, every task they own.
// The cancellation notification is fire-and-forget.
func (s *userService) Delete(ctx context.Context, user *model.User) error {
	if err := s.users.Delete(ctx, user); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	_ = s.cache.Delete(ctx, avatarCacheKey(user.ID))

	if err := s.notifier.SendCancellation(ctx, user.Email, user.Name); err != nil {
		log.Printf("cancellation notification for %s: %v", user.Email, err)
	}
	return nil
}

func (s *userService) issueToken(ctx context.Context, user *model.User) (string, error) {
	token, err := s.jwtService.GenerateToken(user.ID)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	if err := s.users.AddToken(ctx, user.ID, token); err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}
	return token, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validName(name string) bool {
	return name != ""
}

func validEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}

// validPassword enforces the minimum length and forbids the substring
// "password" in any case.
func validPassword(password string) bool {
	return len(password) >= 7 && !strings.Contains(strings.ToLower(password), "password")
}

func validAge(age int) bool {
	return age >= 0
}
