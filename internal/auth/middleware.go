package auth

import (
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	apperrors "taskhub/internal/errors"
	"taskhub/internal/model"
	"taskhub/internal/repository"
)

const (
	// ContextUserKey is the echo context key holding the resolved *model.User.
	ContextUserKey = "user"
	// ContextTokenKey is the echo context key holding the raw bearer token.
	ContextTokenKey = "token"
)

// NewMiddleware builds the request gate for authenticated routes. It extracts
// the bearer token, verifies the signature, then loads the user by the
// embedded id while confirming the token is still in the user's token set.
// The set membership check is what makes logout revoke a token immediately
// instead of relying on signature validity alone.
func NewMiddleware(jwtService *JWTService, users repository.UserRepository) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  ContextUserKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, raw string) (interface{}, error) {
			userID, err := jwtService.ValidateToken(raw)
			if err != nil {
				return nil, err
			}
			user, err := users.FindByIDAndToken(c.Request().Context(), userID, raw)
			if err != nil {
				return nil, err
			}
			c.Set(ContextTokenKey, raw)
			return user, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			he := apperrors.NewHTTPError(http.StatusUnauthorized, apperrors.ErrUnauthenticated.Error(), "UNAUTHENTICATED")
			return c.JSON(he.StatusCode, he.ToErrorResponse())
		},
	})
}

// CurrentUser returns the authenticated user attached by the middleware.
func CurrentUser(c echo.Context) *model.User {
	user, _ := c.Get(ContextUserKey).(*model.User)
	return user
}

// CurrentToken returns the raw bearer token attached by the middleware.
func CurrentToken(c echo.Context) string {
	token, _ := c.Get(ContextTokenKey).(string)
	return token
}
