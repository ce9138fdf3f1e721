package handlers

import (
	nethttp "net/http"

	"github.com/gin-gonic/gin"

	"postnest/internal/apperrors"
	"postnest/internal/auth"
	"postnest/internal/logger"
	"postnest/internal/metrics"
	"postnest/internal/services"
	"postnest/internal/telemetry"
	"postnest/internal/web"
)

type AuthHandler struct {
	users    *services.UserService
	sessions *auth.Manager
	audit    *telemetry.AuditEmitter
}

func NewAuthHandler(users *services.UserService, sessions *auth.Manager, audit *telemetry.AuditEmitter) *AuthHandler {
	return &AuthHandler{users: users, sessions: sessions, audit: audit}
}

type signupForm struct {
	Name     string `form:"name" binding:"required"`
	Email    string `form:"email" binding:"required"`
	Password string `form:"password" binding:"required"`
}

type loginForm struct {
	Email    string `form:"email" binding:"required"`
	Password string `form:"password" binding:"required"`
}

func (h *AuthHandler) Signup(c *gin.Context) {
	requestID := requestIDFromHeader(c)
	var form signupForm
	if err := c.ShouldBind(&form); err != nil {
		web.RedirectWithNotice(c, web.LevelWarning, "Name, email and password are required.", "/signup")
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.Signup(ctx, form.Name, form.Email, form.Password)
	if err != nil {
		h.audit.EmitAudit(ctx, telemetry.LevelError, "signup failed: "+apperrors.MessageOf(err), requestID, nil)
		redirectWithError(c, err, "/signup")
		return
	}

	h.audit.EmitAudit(ctx, telemetry.LevelInfo, "Account created", requestID, &user.ID)
	web.RedirectWithNotice(c, web.LevelSuccess, "Account Created Successfully!", "/login")
}

func (h *AuthHandler) Login(c *gin.Context) {
	requestID := requestIDFromHeader(c)
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		metrics.IncLogin(metrics.StatusFailed)
		web.RedirectWithNotice(c, web.LevelWarning, "Incorrect Email or Password", "/login")
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.Authenticate(ctx, form.Email, form.Password)
	if err != nil {
		metrics.IncLogin(metrics.StatusFailed)
		h.audit.EmitAudit(ctx, telemetry.LevelWarn, "login failed", requestID, nil)
		redirectWithError(c, err, "/login")
		return
	}

	token, identity, err := h.sessions.Start(ctx, user.ID)
	if err != nil {
		metrics.IncLogin(metrics.StatusFailed)
		redirectWithError(c, apperrors.Internal(err, "Could not log in."), "/login")
		return
	}
	h.sessions.SetCookie(c.Writer, token)

	metrics.IncLogin(metrics.StatusSuccess)
	h.audit.EmitAudit(ctx, telemetry.LevelInfo, "Logged in", requestID, &user.ID)
	logger.Info("user logged in", "user_id", user.ID, "session_id", identity.SessionID)

	web.SetNotice(c, web.LevelSuccess, "Successfully Logged In!")
	c.Header("Location", "/home")
	c.JSON(nethttp.StatusSeeOther, gin.H{"token": token, "user": user})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	ctx := c.Request.Context()
	if sessionID := c.GetString(web.ContextSessionIDKey); sessionID != "" {
		if err := h.sessions.End(ctx, sessionID); err != nil {
			logger.Warn("failed to delete session", "session_id", sessionID, "error", err)
		}
	}
	h.sessions.ClearCookie(c.Writer)
	h.audit.EmitAudit(ctx, telemetry.LevelInfo, "Logged out", requestIDFromHeader(c), userIDFromContext(c))
	web.RedirectWithNotice(c, web.LevelSuccess, "Successfully Logged Out.", "/login")
}
