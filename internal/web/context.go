package web

import "github.com/gin-gonic/gin"

const (
	ContextUserIDKey    = "userID"
	ContextSessionIDKey = "sessionID"
)

// UserID returns the caller set by the session gate, if any.
func UserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(ContextUserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
