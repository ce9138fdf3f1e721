package handlers

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"postnest/internal/apperrors"
	"postnest/internal/metrics"
	"postnest/internal/services"
	"postnest/internal/telemetry"
	"postnest/internal/web"
)

type FriendHandler struct {
	friends *services.FriendService
	audit   *telemetry.AuditEmitter
}

func NewFriendHandler(friends *services.FriendService, audit *telemetry.AuditEmitter) *FriendHandler {
	return &FriendHandler{friends: friends, audit: audit}
}

type searchForm struct {
	Username string `form:"username" binding:"required"`
}

func (h *FriendHandler) Connect(c *gin.Context) {
	users, err := h.friends.ListOthers(c.Request.Context(), callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, gin.H{"users": users})
}

func (h *FriendHandler) Search(c *gin.Context) {
	var form searchForm
	if err := c.ShouldBind(&form); err != nil || strings.TrimSpace(form.Username) == "" {
		web.RedirectWithNotice(c, web.LevelWarning, "Please enter a name to search.", "/connect")
		return
	}

	users, err := h.friends.SearchUsers(c.Request.Context(), callerID(c), form.Username)
	if err != nil {
		redirectWithError(c, err, "/connect")
		return
	}
	if len(users) == 0 {
		web.RedirectWithNotice(c, web.LevelWarning, "No users found with that name.", "/connect")
		return
	}
	respondJSON(c, gin.H{"users": users, "term": form.Username})
}

func (h *FriendHandler) Requests(c *gin.Context) {
	lists, err := h.friends.ListRequests(c.Request.Context(), callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, gin.H{"outgoing": lists.Outgoing, "incoming": lists.Incoming})
}

func (h *FriendHandler) SendRequest(c *gin.Context) {
	requestID := requestIDFromHeader(c)
	caller := callerID(c)
	fromID, okFrom := parseIDParam(c, "from")
	toID, okTo := parseIDParam(c, "to")
	if !okFrom || !okTo {
		metrics.IncFriendRequest(metrics.StatusFailed)
		h.audit.EmitAudit(c.Request.Context(), telemetry.LevelError, "invalid request path", requestID, &caller)
		web.RedirectWithNotice(c, web.LevelDanger, "Invalid request.", "/connect")
		return
	}

	ctx := c.Request.Context()
	_, created, err := h.friends.SendRequest(ctx, caller, fromID, toID)
	if err != nil {
		metrics.IncFriendRequest(metrics.StatusFailed)
		h.audit.EmitAudit(ctx, telemetry.LevelError, "friend request failed: "+apperrors.MessageOf(err), requestID, &caller)
		redirectWithError(c, err, "/connect")
		return
	}
	if !created {
		metrics.IncFriendRequest(metrics.StatusDuplicate)
		web.RedirectWithNotice(c, web.LevelPrimary, "Request Already Sent", "/connect")
		return
	}

	metrics.IncFriendRequest(metrics.StatusSuccess)
	h.audit.EmitAudit(ctx, telemetry.LevelInfo, fmt.Sprintf("Friend request sent to '%d'", toID), requestID, &caller)
	web.RedirectWithNotice(c, web.LevelSuccess, "Friend Request Sent!", "/connect")
}

func (h *FriendHandler) CancelRequest(c *gin.Context) {
	requestID := requestIDFromHeader(c)
	caller := callerID(c)
	fromID, okFrom := parseIDParam(c, "from")
	toID, okTo := parseIDParam(c, "to")
	if !okFrom || !okTo {
		metrics.IncFriendCancel(metrics.StatusFailed)
		web.RedirectWithNotice(c, web.LevelDanger, "Invalid request.", "/connect")
		return
	}

	ctx := c.Request.Context()
	if err := h.friends.CancelRequest(ctx, caller, fromID, toID); err != nil {
		metrics.IncFriendCancel(metrics.StatusFailed)
		h.audit.EmitAudit(ctx, telemetry.LevelError, "friend cancel failed: "+apperrors.MessageOf(err), requestID, &caller)
		redirectWithError(c, err, "/connect")
		return
	}

	metrics.IncFriendCancel(metrics.StatusSuccess)
	h.audit.EmitAudit(ctx, telemetry.LevelInfo, fmt.Sprintf("Friend request between '%d' and '%d' cancelled", fromID, toID), requestID, &caller)
	web.RedirectWithNotice(c, web.LevelWarning, "Friend Request Cancelled", "/connect")
}
