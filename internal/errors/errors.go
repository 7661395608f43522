package errors

import (
	"errors"
	"net/http"
	"strings"
)

var (
	// ErrUnableToLogin is returned on bad credentials. Unknown email and wrong
	// password deliberately share this error so callers cannot enumerate users.
	ErrUnableToLogin = errors.New("unable to login")
	// ErrEmailTaken is returned when the email uniqueness check fails.
	ErrEmailTaken = errors.New("email is already taken")
	// ErrUserNotFound is returned when a user lookup by id misses.
	ErrUserNotFound = errors.New("user not found")
	// ErrTaskNotFound is returned when a task does not exist or belongs to
	// someone else; the two cases are reported identically.
	ErrTaskNotFound = errors.New("task not found")
	// ErrAvatarNotFound is returned when a user has no stored avatar.
	ErrAvatarNotFound = errors.New("avatar not found")
	// ErrInvalidFileType is returned for uploads that are not jpg, jpeg or png.
	ErrInvalidFileType = errors.New("please upload a jpg, jpeg or png image")
	// ErrFileTooLarge is returned for uploads over the size limit.
	ErrFileTooLarge = errors.New("file exceeds the 1MB size limit")
	// ErrUnauthenticated is returned for missing, invalid or revoked tokens.
	ErrUnauthenticated = errors.New("please authenticate")
)

// ValidationError reports the fields that violated their constraints.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, ", ")
}

// InvalidUpdateError reports patch keys outside the allow-set. The whole patch
// is rejected, including any valid keys it carried.
type InvalidUpdateError struct {
	Keys []string
}

func (e *InvalidUpdateError) Error() string {
	return "body contains invalid keys: " + strings.Join(e.Keys, ", ")
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error  string   `json:"error"`
	Code   string   `json:"code"`
	Fields []string `json:"fields,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	Fields     []string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error:  e.Message,
		Code:   e.Code,
		Fields: e.Fields,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		he := NewHTTPError(http.StatusBadRequest, validationErr.Error(), "VALIDATION_FAILED")
		he.Fields = validationErr.Fields
		return he
	}
	var updateErr *InvalidUpdateError
	if errors.As(err, &updateErr) {
		return NewHTTPError(http.StatusBadRequest, updateErr.Error(), "INVALID_UPDATE")
	}

	switch {
	case errors.Is(err, ErrUnableToLogin):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "UNABLE_TO_LOGIN")
	case errors.Is(err, ErrEmailTaken):
		return NewHTTPError(http.StatusConflict, err.Error(), "EMAIL_TAKEN")
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "USER_NOT_FOUND")
	case errors.Is(err, ErrTaskNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "TASK_NOT_FOUND")
	case errors.Is(err, ErrAvatarNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "AVATAR_NOT_FOUND")
	case errors.Is(err, ErrInvalidFileType):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_FILE_TYPE")
	case errors.Is(err, ErrFileTooLarge):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "FILE_TOO_LARGE")
	case errors.Is(err, ErrUnauthenticated):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "UNAUTHENTICATED")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
