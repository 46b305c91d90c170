package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/billdesk/internal/presentation/http/dto/response"
	"github.com/sangkips/billdesk/pkg/apperror"
	"github.com/sangkips/billdesk/pkg/utils"
)

const (
	// SessionTokenHeader carries the token issued when a composer session is opened
	SessionTokenHeader = "X-Session-Token"

	sessionIDKey = "session_id"
)

// SessionMiddleware resolves the composer session from X-Session-Token, falling back
// to an "Authorization: Bearer <token>" header.
func SessionMiddleware(tokens *utils.SessionTokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(SessionTokenHeader)
		if token == "" {
			parts := strings.Split(c.GetHeader("Authorization"), " ")
			if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
				token = parts[1]
			}
		}
		if token == "" {
			response.Unauthorized(c, "X-Session-Token header is required")
			c.Abort()
			return
		}

		sessionID, err := tokens.Verify(token)
		if err != nil {
			if errors.Is(err, utils.ErrSessionTokenExpired) {
				response.Error(c, apperror.ErrTokenExpired)
			} else {
				response.Error(c, apperror.ErrInvalidToken)
			}
			c.Abort()
			return
		}

		c.Set(sessionIDKey, sessionID)
		c.Next()
	}
}

// GetSessionID returns the session resolved by SessionMiddleware, or uuid.Nil
func GetSessionID(c *gin.Context) uuid.UUID {
	v, exists := c.Get(sessionIDKey)
	if !exists {
		return uuid.Nil
	}
	id, _ := v.(uuid.UUID)
	return id
}
