package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"postnest/internal/web"
)

func requestIDFromHeader(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	return requestID
}

func userIDFromContext(c *gin.Context) *int64 {
	if userID, ok := web.UserID(c); ok {
		return &userID
	}
	return nil
}

// callerID returns the authenticated user id. Routes using it sit behind
// RequireAuth, so a missing id means the router is misconfigured.
func callerID(c *gin.Context) int64 {
	if id := userIDFromContext(c); id != nil {
		return *id
	}
	return 0
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
