package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"taskhub/internal/auth"
	apperrors "taskhub/internal/errors"
	"taskhub/internal/model"
)

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByIDAndToken(ctx context.Context, id uuid.UUID, token string) (*model.User, error) {
	args := m.Called(ctx, id, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) AddToken(ctx context.Context, userID uuid.UUID, token string) error {
	args := m.Called(ctx, userID, token)
	return args.Error(0)
}

func (m *MockUserRepository) RemoveToken(ctx context.Context, userID uuid.UUID, token string) error {
	args := m.Called(ctx, userID, token)
	return args.Error(0)
}

func (m *MockUserRepository) ClearTokens(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockUserRepository) SetAvatar(ctx context.Context, userID uuid.UUID, data []byte) error {
	args := m.Called(ctx, userID, data)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockNotifier is a mock implementation of notification.Notifier.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendWelcome(ctx context.Context, email, name string) error {
	args := m.Called(ctx, email, name)
	return args.Error(0)
}

func (m *MockNotifier) SendCancellation(ctx context.Context, email, name string) error {
	args := m.Called(ctx, email, name)
	return args.Error(0)
}

func newUserService(repo *MockUserRepository, notifier *MockNotifier) UserService {
	return NewUserService(repo, auth.NewJWTService("test-secret"), notifier, nil)
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestUserService_Register(t *testing.T) {
	tests := []struct {
		name          string
		userName      string
		email         string
		password      string
		age           int
		setupMock     func(*MockUserRepository, *MockNotifier)
		expectedError error
		badFields     []string
	}{
		{
			name:     "successful registration",
			userName: "Mike",
			email:    "M@X.com",
			password: "Mi123456",
			setupMock: func(repo *MockUserRepository, notifier *MockNotifier) {
				repo.On("FindByEmail", mock.Anything, "m@x.com").Return(nil, gorm.ErrRecordNotFound)
				repo.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
				notifier.On("SendWelcome", mock.Anything, "m@x.com", "Mike").Return(nil)
				repo.On("AddToken", mock.Anything, mock.Anything, mock.AnythingOfType("string")).Return(nil)
			},
		},
		{
			name:      "password containing the forbidden word",
			userName:  "Mike",
			email:     "m@x.com",
			password:  "myPassWord1",
			badFields: []string{"password"},
		},
		{
			name:      "password too short",
			userName:  "Mike",
			email:     "m@x.com",
			password:  "abc12",
			badFields: []string{"password"},
		},
		{
			name:      "invalid email and negative age",
			userName:  "Mike",
			email:     "not-an-email",
			password:  "Mi123456",
			age:       -3,
			badFields: []string{"email", "age"},
		},
		{
			name:     "email already taken",
			userName: "Mike",
			email:    "taken@x.com",
			password: "Mi123456",
			setupMock: func(repo *MockUserRepository, notifier *MockNotifier) {
				repo.On("FindByEmail", mock.Anything, "taken@x.com").
					Return(&model.User{ID: uuid.New(), Email: "taken@x.com"}, nil)
			},
			expectedError: apperrors.ErrEmailTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			notifier := new(MockNotifier)
			if tt.setupMock != nil {
				tt.setupMock(repo, notifier)
			}
			svc := newUserService(repo, notifier)

			user, token, err := svc.Register(context.Background(), tt.userName, tt.email, tt.password, tt.age)

			if tt.badFields != nil {
				var validationErr *apperrors.ValidationError
				require.ErrorAs(t, err, &validationErr)
				assert.Equal(t, tt.badFields, validationErr.Fields)
				return
			}
			if tt.expectedError != nil {
				require.ErrorIs(t, err, tt.expectedError)
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, token)
			assert.Equal(t, "m@x.com", user.Email)
			assert.NotEqual(t, tt.password, user.PasswordHash)
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(tt.password)))
			repo.AssertExpectations(t)
			notifier.AssertExpectations(t)
		})
	}
}

func TestUserService_Login_FailuresAreIndistinguishable(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("FindByEmail", mock.Anything, "nobody@x.com").Return(nil, gorm.ErrRecordNotFound)
	repo.On("FindByEmail", mock.Anything, "mike@x.com").Return(&model.User{
		ID:           uuid.New(),
		Email:        "mike@x.com",
		PasswordHash: mustHash(t, "Mi123456"),
	}, nil)
	svc := newUserService(repo, new(MockNotifier))

	_, _, unknownEmailErr := svc.Login(context.Background(), "nobody@x.com", "Mi123456")
	_, _, wrongPasswordErr := svc.Login(context.Background(), "mike@x.com", "wrong-pass")

	require.Error(t, unknownEmailErr)
	require.Error(t, wrongPasswordErr)
	assert.Equal(t, unknownEmailErr, wrongPasswordErr)
	assert.ErrorIs(t, unknownEmailErr, apperrors.ErrUnableToLogin)
}

func TestUserService_Login_OpensNewSession(t *testing.T) {
	userID := uuid.New()
	repo := new(MockUserRepository)
	repo.On("FindByEmail", mock.Anything, "mike@x.com").Return(&model.User{
		ID:           userID,
		Email:        "mike@x.com",
		PasswordHash: mustHash(t, "Mi123456"),
	}, nil)
	repo.On("AddToken", mock.Anything, userID, mock.AnythingOfType("string")).Return(nil)
	svc := newUserService(repo, new(MockNotifier))

	user, token, err := svc.Login(context.Background(), "Mike@X.com", "Mi123456")

	require.NoError(t, err)
	assert.Equal(t, userID, user.ID)
	assert.NotEmpty(t, token)
	repo.AssertExpectations(t)
}

func TestUserService_Logout(t *testing.T) {
	user := &model.User{ID: uuid.New()}
	repo := new(MockUserRepository)
	repo.On("RemoveToken", mock.Anything, user.ID, "the-token").Return(nil)
	svc := newUserService(repo, new(MockNotifier))

	require.NoError(t, svc.Logout(context.Background(), user, "the-token"))
	repo.AssertExpectations(t)
}

func TestUserService_LogoutAll(t *testing.T) {
	user := &model.User{ID: uuid.New()}
	repo := new(MockUserRepository)
	repo.On("ClearTokens", mock.Anything, user.ID).Return(nil)
	svc := newUserService(repo, new(MockNotifier))

	require.NoError(t, svc.LogoutAll(context.Background(), user))
	repo.AssertExpectations(t)
}

func TestUserService_Update_RejectsDisallowedKeysEntirely(t *testing.T) {
	user := &model.User{ID: uuid.New(), Name: "Mike", Email: "mike@x.com"}
	repo := new(MockUserRepository)
	svc := newUserService(repo, new(MockNotifier))

	_, err := svc.Update(context.Background(), user, map[string]interface{}{
		"name": "New Name",
		"foo":  "bar",
	})

	var updateErr *apperrors.InvalidUpdateError
	require.ErrorAs(t, err, &updateErr)
	assert.Equal(t, []string{"foo"}, updateErr.Keys)
	// nothing applied, including the otherwise-valid name
	assert.Equal(t, "Mike", user.Name)
	repo.AssertExpectations(t)
}

func TestUserService_Update_PasswordChangeRehashes(t *testing.T) {
	oldHash := mustHash(t, "OldSecret1")
	user := &model.User{ID: uuid.New(), Name: "Mike", Email: "mike@x.com", PasswordHash: oldHash}

	repo := new(MockUserRepository)
	repo.On("Update", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
	svc := newUserService(repo, new(MockNotifier))

	updated, err := svc.Update(context.Background(), user, map[string]interface{}{
		"password": "NewSecret1",
	})

	require.NoError(t, err)
	assert.NotEqual(t, oldHash, updated.PasswordHash)
	assert.NotEqual(t, "NewSecret1", updated.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("NewSecret1")))
	repo.AssertExpectations(t)
}

func TestUserService_Update_EmailConflict(t *testing.T) {
	user := &model.User{ID: uuid.New(), Name: "Mike", Email: "mike@x.com"}
	repo := new(MockUserRepository)
	repo.On("FindByEmail", mock.Anything, "taken@x.com").
		Return(&model.User{ID: uuid.New(), Email: "taken@x.com"}, nil)
	svc := newUserService(repo, new(MockNotifier))

	_, err := svc.Update(context.Background(), user, map[string]interface{}{
		"email": "taken@x.com",
	})

	require.ErrorIs(t, err, apperrors.ErrEmailTaken)
	assert.Equal(t, "mike@x.com", user.Email)
	repo.AssertExpectations(t)
}

func TestUserService_Update_RejectsInvalidValues(t *testing.T) {
	user := &model.User{ID: uuid.New(), Name: "Mike", Email: "mike@x.com", Age: 30}
	repo := new(MockUserRepository)
	svc := newUserService(repo, new(MockNotifier))

	_, err := svc.Update(context.Background(), user, map[string]interface{}{
		"age":      float64(-1),
		"password": "short",
	})

	var validationErr *apperrors.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, []string{"age", "password"}, validationErr.Fields)
	assert.Equal(t, 30, user.Age)
	repo.AssertExpectations(t)
}

func TestUserService_Delete_CascadesAndNotifies(t *testing.T) {
	user := &model.User{ID: uuid.New(), Name: "Mike", Email: "mike@x.com"}

	repo := new(MockUserRepository)
	repo.On("Delete", mock.Anything, user).Return(nil)
	notifier := new(MockNotifier)
	notifier.On("SendCancellation", mock.Anything, "mike@x.com", "Mike").Return(nil)
	svc := newUserService(repo, notifier)

	require.NoError(t, svc.Delete(context.Background(), user))
	repo.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestUserService_Delete_NotificationFailureIsSwallowed(t *testing.T) {
	user := &model.User{ID: uuid.New(), Name: "Mike", Email: "mike@x.com"}

	repo := new(MockUserRepository)
	repo.On("Delete", mock.Anything, user).Return(nil)
	notifier := new(MockNotifier)
	notifier.On("SendCancellation", mock.Anything, "mike@x.com", "Mike").
		Return(assert.AnError)
	svc := newUserService(repo, notifier)

	require.NoError(t, svc.Delete(context.Background(), user))
	notifier.AssertExpectations(t)
}
