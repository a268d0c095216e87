package api

import (
	"alcyxob/workout-scheduler/internal/logger"
	"alcyxob/workout-scheduler/internal/service"
	"alcyxob/workout-scheduler/internal/storage"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// statusForError maps service errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, service.ErrValidationFailed):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrDateConflict),
		errors.Is(err, service.ErrScheduleExists),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrUserAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, service.ErrAuthenticationFailed):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, service.ErrScheduledWorkoutNotFound),
		errors.Is(err, service.ErrScheduleNotFound),
		errors.Is(err, service.ErrEnrollmentNotFound),
		errors.Is(err, service.ErrProgramNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrScheduleHasNoWorkouts):
		return http.StatusUnprocessableEntity
	case errors.Is(err, storage.ErrStorageDisabled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// respondWithError writes the mapped status. Internal errors are logged and
// replaced by a generic message.
func respondWithError(c *gin.Context, log *logger.Logger, err error, fallback string) {
	code := statusForError(err)
	if code == http.StatusInternalServerError {
		_ = c.Error(err)
		log.WithContext(c.Request.Context()).Error(fallback, "path", c.FullPath(), "error", err)
		abortWithError(c, code, fallback)
		return
	}
	abortWithError(c, code, err.Error())
}
