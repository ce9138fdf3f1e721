package middleware

import (
	nethttp "net/http"

	"github.com/gin-gonic/gin"

	"postnest/internal/auth"
	"postnest/internal/logger"
	"postnest/internal/web"
)

const loginRequiredNotice = "Please log in to access this page."

// RequireAuth resolves the session token from the cookie or bearer header.
// Anonymous callers get a notice and a 303 to /login.
func RequireAuth(sessions *auth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := sessions.Resolve(c.Request.Context(), auth.TokenFromRequest(c.Request))
		if err != nil {
			logger.Debug("rejected anonymous request", "path", c.Request.URL.Path)
			web.SetNotice(c, web.LevelDanger, loginRequiredNotice)
			c.Redirect(nethttp.StatusSeeOther, "/login")
			c.Abort()
			return
		}

		c.Set(web.ContextUserIDKey, identity.UserID)
		c.Set(web.ContextSessionIDKey, identity.SessionID)
		c.Next()
	}
}
