package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/emilythestrangee/postboard/backend/internal/apperror"
	"github.com/emilythestrangee/postboard/backend/internal/auth"
	"github.com/emilythestrangee/postboard/backend/internal/middleware"
	"github.com/emilythestrangee/postboard/backend/internal/validation"
)

// statusFor maps an error kind to its HTTP status and public message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, apperror.ErrUnauthenticated):
		return http.StatusUnauthorized, "Authentication required"
	case errors.Is(err, apperror.ErrInvalidToken):
		return http.StatusBadRequest, "Invalid token"
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden, "You can only modify your own posts"
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, "Resource not found"
	case errors.Is(err, apperror.ErrDuplicateEmail):
		// Kept generic so registration does not confirm which emails exist.
		return http.StatusBadRequest, "Unable to register with the supplied details"
	case errors.Is(err, auth.ErrPasswordTooLong):
		return http.StatusBadRequest, "Password must be at most 72 bytes"
	case errors.Is(err, apperror.ErrInvalidInput):
		return http.StatusBadRequest, "Invalid request body"
	case errors.Is(err, apperror.ErrAuthFailed):
		return http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, apperror.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "Service temporarily unavailable"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func writeError(c *gin.Context, logger *logrus.Logger, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.WithError(err).WithFields(logrus.Fields{
			"request_id": c.GetString(middleware.RequestIDKey),
			"path":       c.FullPath(),
		}).Error("request failed")
	}
	c.JSON(status, gin.H{"error": msg})
}

func writeBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request body",
		"details": validation.ToDetails(err),
	})
}

// paramID parses a positive integer path parameter.
func paramID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

// currentIdentity returns the identity attached by the auth middleware.
func currentIdentity(c *gin.Context) (auth.Identity, bool) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return auth.Identity{}, false
	}
	return id, true
}
