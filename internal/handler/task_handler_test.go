package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"taskhub/internal/auth"
	apperrors "taskhub/internal/errors"
	"taskhub/internal/model"
	"taskhub/internal/service"
)

// MockTaskService is a mock implementation of service.TaskService.
type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) Create(ctx context.Context, ownerID uuid.UUID, description string) (*model.Task, error) {
	args := m.Called(ctx, ownerID, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Task), args.Error(1)
}

func (m *MockTaskService) List(ctx context.Context, ownerID uuid.UUID, opts service.ListOptions) ([]model.Task, error) {
	args := m.Called(ctx, ownerID, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Task), args.Error(1)
}

func (m *MockTaskService) Get(ctx context.Context, id, ownerID uuid.UUID) (*model.Task, error) {
	args := m.Called(ctx, id, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Task), args.Error(1)
}

func (m *MockTaskService) Update(ctx context.Context, id, ownerID uuid.UUID, patch map[string]interface{}) (*model.Task, error) {
	args := m.Called(ctx, id, ownerID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Task), args.Error(1)
}

func (m *MockTaskService) Delete(ctx context.Context, id, ownerID uuid.UUID) (*model.Task, error) {
	args := m.Called(ctx, id, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Task), args.Error(1)
}

type testValidator struct {
	validator *validator.Validate
}

func (v *testValidator) Validate(i interface{}) error {
	return v.validator.Struct(i)
}

func newTestContext(t *testing.T, method, target, body string, user *model.User) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = &testValidator{validator: validator.New()}

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(auth.ContextUserKey, user)
	return c, rec
}

func TestTaskHandler_Create(t *testing.T) {
	user := &model.User{ID: uuid.New()}
	created := &model.Task{ID: uuid.New(), Description: "walk the dog", OwnerID: user.ID}

	svc := new(MockTaskService)
	svc.On("Create", mock.Anything, user.ID, "walk the dog").Return(created, nil)
	h := NewTaskHandler(svc)

	c, rec := newTestContext(t, http.MethodPost, "/tasks", `{"description":"walk the dog"}`, user)

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "walk the dog")
	svc.AssertExpectations(t)
}

func TestTaskHandler_Create_MissingDescription(t *testing.T) {
	svc := new(MockTaskService)
	h := NewTaskHandler(svc)

	c, _ := newTestContext(t, http.MethodPost, "/tasks", `{}`, &model.User{ID: uuid.New()})

	err := h.Create(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
	svc.AssertExpectations(t)
}

func TestTaskHandler_List_PlumbsQueryParams(t *testing.T) {
	user := &model.User{ID: uuid.New()}
	completed := true

	svc := new(MockTaskService)
	svc.On("List", mock.Anything, user.ID, service.ListOptions{
		Completed: &completed,
		Limit:     10,
		Skip:      5,
		SortBy:    "createdAt_desc",
	}).Return([]model.Task{{ID: uuid.New(), Description: "buy milk", OwnerID: user.ID}}, nil)
	h := NewTaskHandler(svc)

	c, rec := newTestContext(t, http.MethodGet, "/tasks?completed=true&limit=10&skip=5&sortBy=createdAt_desc", "", user)

	require.NoError(t, h.List(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "buy milk")
	svc.AssertExpectations(t)
}

func TestTaskHandler_List_RejectsBadQueryParams(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{name: "completed not a boolean", target: "/tasks?completed=banana"},
		{name: "limit not an integer", target: "/tasks?limit=ten"},
		{name: "skip not an integer", target: "/tasks?skip=few"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockTaskService)
			h := NewTaskHandler(svc)
			c, _ := newTestContext(t, http.MethodGet, tt.target, "", &model.User{ID: uuid.New()})

			err := h.List(c)

			var httpErr *echo.HTTPError
			require.ErrorAs(t, err, &httpErr)
			assert.Equal(t, http.StatusBadRequest, httpErr.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestTaskHandler_Update_StrayKey(t *testing.T) {
	user := &model.User{ID: uuid.New()}
	taskID := uuid.New()

	svc := new(MockTaskService)
	svc.On("Update", mock.Anything, taskID, user.ID, map[string]interface{}{"completed": true, "owner": "x"}).
		Return(nil, &apperrors.InvalidUpdateError{Keys: []string{"owner"}})
	h := NewTaskHandler(svc)

	c, rec := newTestContext(t, http.MethodPatch, "/tasks/"+taskID.String(), `{"completed":true,"owner":"x"}`, user)
	c.SetParamNames("id")
	c.SetParamValues(taskID.String())

	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_UPDATE")
	svc.AssertExpectations(t)
}

func TestTaskHandler_Get_MalformedIDLooksLikeMiss(t *testing.T) {
	svc := new(MockTaskService)
	h := NewTaskHandler(svc)

	c, rec := newTestContext(t, http.MethodGet, "/tasks/not-a-uuid", "", &model.User{ID: uuid.New()})
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "TASK_NOT_FOUND")
	svc.AssertExpectations(t)
}

func TestTaskHandler_Delete_ReturnsDeletedTask(t *testing.T) {
	user := &model.User{ID: uuid.New()}
	task := &model.Task{ID: uuid.New(), Description: "buy milk", OwnerID: user.ID}

	svc := new(MockTaskService)
	svc.On("Delete", mock.Anything, task.ID, user.ID).Return(task, nil)
	h := NewTaskHandler(svc)

	c, rec := newTestContext(t, http.MethodDelete, "/tasks/"+task.ID.String(), "", user)
	c.SetParamNames("id")
	c.SetParamValues(task.ID.String())

	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), task.ID.String())
	svc.AssertExpectations(t)
}
