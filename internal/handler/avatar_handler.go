package handler

import (
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"taskhub/internal/auth"
	apperrors "taskhub/internal/errors"
	"taskhub/internal/service"
)

// AvatarHandler handles avatar upload, removal and serving.
type AvatarHandler struct {
	svc service.AvatarService
}

// NewAvatarHandler creates a new avatar handler.
func NewAvatarHandler(svc service.AvatarService) *AvatarHandler {
	return &AvatarHandler{svc: svc}
}

// Upload godoc
// @Summary Upload the caller's avatar
// @Tags avatars
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param avatar formData file true "Avatar image (jpg, jpeg or png, max 1MB)"
// @Success 200 {object} map[string]string
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /user/me/avatar [post]
func (h *AvatarHandler) Upload(c echo.Context) error {
	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "avatar file is required")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unable to read avatar file")
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unable to read avatar file")
	}

	if err := h.svc.Upload(c.Request().Context(), auth.CurrentUser(c), fileHeader.Filename, data); err != nil {
		// upload failures always surface as 400 with the error message
		he := apperrors.NewHTTPError(http.StatusBadRequest, err.Error(), "AVATAR_UPLOAD_FAILED")
		return c.JSON(he.StatusCode, he.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "avatar uploaded"})
}

// Delete godoc
// @Summary Delete the caller's avatar
// @Tags avatars
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]string
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /user/me/avatar [delete]
func (h *AvatarHandler) Delete(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), auth.CurrentUser(c)); err != nil {
		he := apperrors.MapErrorToHTTP(err)
		return c.JSON(he.StatusCode, he.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "avatar deleted"})
}

// Get godoc
// @Summary Get a user's avatar
// @Tags avatars
// @Produce png
// @Param id path string true "User ID"
// @Success 200 {string} binary "PNG image bytes"
// @Failure 404 {object} errors.ErrorResponse
// @Router /user/{id}/avatar [get]
func (h *AvatarHandler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		he := apperrors.MapErrorToHTTP(apperrors.ErrAvatarNotFound)
		return c.JSON(he.StatusCode, he.ToErrorResponse())
	}

	data, err := h.svc.Serve(c.Request().Context(), id)
	if err != nil {
		he := apperrors.MapErrorToHTTP(err)
		return c.JSON(he.StatusCode, he.ToErrorResponse())
	}

	// stored avatars are always PNG regardless of the uploaded format
	return c.Blob(http.StatusOK, "image/png", data)
}
