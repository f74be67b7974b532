package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/emilythestrangee/postboard/backend/internal/apperror"
	"github.com/emilythestrangee/postboard/backend/internal/auth"
)

const identityKey = "identity"

// TokenVerifier checks a raw bearer token.
type TokenVerifier interface {
	Verify(raw string) (auth.Identity, error)
}

// Authenticate parses an Authorization header value. A missing header, a
// scheme other than Bearer or a missing token gives apperror.ErrUnauthenticated;
// a token that fails verification gives an error wrapping apperror.ErrInvalidToken.
func Authenticate(v TokenVerifier, header string) (auth.Identity, error) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return auth.Identity{}, apperror.ErrUnauthenticated
	}
	id, err := v.Verify(parts[1])
	if err != nil {
		if !errors.Is(err, apperror.ErrInvalidToken) {
			err = fmt.Errorf("%w: %w", apperror.ErrInvalidToken, err)
		}
		return auth.Identity{}, err
	}
	return id, nil
}

// RequireAuth rejects requests without a valid bearer token and stores the
// verified identity in the gin context.
func RequireAuth(v TokenVerifier, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := Authenticate(v, c.GetHeader("Authorization"))
		if err != nil {
			if errors.Is(err, apperror.ErrUnauthenticated) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
				return
			}
			reason := "malformed"
			if errors.Is(err, auth.ErrTokenExpired) {
				reason = "expired"
			}
			logger.WithFields(logrus.Fields{
				"request_id": c.GetString(RequestIDKey),
				"reason":     reason,
			}).Info("token rejected")
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid token"})
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

// IdentityFrom returns the identity RequireAuth attached to c.
func IdentityFrom(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok
}
