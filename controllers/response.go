package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Avishkar-x/Video-Streaming/apperrors"
	"github.com/gin-gonic/gin"
)

// Response is the uniform envelope every endpoint answers with.
type Response struct {
	StatusCode int      `json:"statusCode"`
	Data       any      `json:"data,omitempty"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors,omitempty"`
}

func respond(c *gin.Context, status int, data any, message string) {
	c.JSON(status, Response{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    true,
	})
}

func respondError(c *gin.Context, status int, message string, errs ...string) {
	c.AbortWithStatusJSON(status, Response{
		StatusCode: status,
		Message:    message,
		Success:    false,
		Errors:     errs,
	})
}

// respondAppError maps the error taxonomy onto HTTP statuses. Anything
// outside the taxonomy is an internal error; its details are logged, not
// leaked.
func respondAppError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperrors.ErrUnauthorized),
		errors.Is(err, apperrors.ErrInvalidCredentials),
		errors.Is(err, apperrors.ErrTokenExpired),
		errors.Is(err, apperrors.ErrTokenInvalid):
		respondError(c, http.StatusUnauthorized, apperrors.ErrUnauthorized.Error())
	case errors.Is(err, apperrors.ErrUserNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, apperrors.ErrUserExists):
		respondError(c, http.StatusConflict, err.Error())
	case errors.Is(err, apperrors.ErrUploadFailed):
		respondError(c, http.StatusInternalServerError, err.Error())
	default:
		slog.Error("unexpected error", "error", err, "path", c.Request.URL.Path)
		respondError(c, http.StatusInternalServerError, "Something went wrong, please try again later")
	}
}
