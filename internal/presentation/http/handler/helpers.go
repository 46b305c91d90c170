package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/billdesk/internal/presentation/http/dto/response"
	"github.com/sangkips/billdesk/internal/presentation/http/middleware"
)

// sessionID returns the composer session of the request, writing a 401 when there is none
func sessionID(c *gin.Context) (uuid.UUID, bool) {
	id := middleware.GetSessionID(c)
	if id == uuid.Nil {
		response.Unauthorized(c, "Composer session is required")
		return uuid.Nil, false
	}
	return id, true
}

// idParam parses the :id path parameter, writing a 400 naming resource when it is malformed
func idParam(c *gin.Context, resource string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid "+resource+" ID")
		return uuid.Nil, false
	}
	return id, true
}
