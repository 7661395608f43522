package router

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	apperrors "taskhub/internal/errors"
	"taskhub/internal/handler"
)

// Register wires routes and middleware. Routes that operate on the caller's
// data carry the auth middleware; sign-up, login and public avatar serving
// stay open.
func Register(
	e *echo.Echo,
	authMiddleware echo.MiddlewareFunc,
	userHandler *handler.UserHandler,
	taskHandler *handler.TaskHandler,
	avatarHandler *handler.AvatarHandler,
) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	// avatar cap is 1MB; leave headroom for multipart framing
	e.Use(middleware.BodyLimit("2M"))
	e.HTTPErrorHandler = errorHandler

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// User routes
	e.POST("/users", userHandler.Register)
	e.POST("/users/login", userHandler.Login)
	e.POST("/users/logout", userHandler.Logout, authMiddleware)
	e.POST("/users/logoutAll", userHandler.LogoutAll, authMiddleware)
	e.GET("/users/me", userHandler.Me, authMiddleware)
	e.PATCH("/users/me", userHandler.UpdateMe, authMiddleware)
	e.DELETE("/users/me", userHandler.DeleteMe, authMiddleware)

	// Avatar routes
	e.POST("/user/me/avatar", avatarHandler.Upload, authMiddleware)
	e.DELETE("/user/me/avatar", avatarHandler.Delete, authMiddleware)
	e.GET("/user/:id/avatar", avatarHandler.Get)

	// Task routes
	e.POST("/tasks", taskHandler.Create, authMiddleware)
	e.GET("/tasks", taskHandler.List, authMiddleware)
	e.GET("/tasks/:id", taskHandler.Get, authMiddleware)
	e.PATCH("/tasks/:id", taskHandler.Update, authMiddleware)
	e.DELETE("/tasks/:id", taskHandler.Delete, authMiddleware)
}

// errorHandler renders errors echo raises on its own, like bind and
// validation failures or the body limit, in the same envelope the handlers
// use for domain errors.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "internal server error"
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		message = fmt.Sprint(he.Message)
	}

	var resp apperrors.ErrorResponse
	switch status {
	case http.StatusRequestEntityTooLarge:
		// the transport cap reports like the avatar size gate
		he := apperrors.MapErrorToHTTP(apperrors.ErrFileTooLarge)
		status = he.StatusCode
		resp = he.ToErrorResponse()
	case http.StatusBadRequest:
		resp = apperrors.ErrorResponse{Error: message, Code: "BAD_REQUEST"}
	case http.StatusUnauthorized:
		resp = apperrors.ErrorResponse{Error: apperrors.ErrUnauthenticated.Error(), Code: "UNAUTHENTICATED"}
	case http.StatusNotFound:
		resp = apperrors.ErrorResponse{Error: message, Code: "NOT_FOUND"}
	default:
		resp = apperrors.ErrorResponse{Error: message, Code: "INTERNAL_ERROR"}
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, resp)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
