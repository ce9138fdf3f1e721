package handlers

import (
	nethttp "net/http"

	"github.com/gin-gonic/gin"

	"postnest/internal/apperrors"
	"postnest/internal/logger"
	"postnest/internal/web"
)

// redirectWithError turns a service error into a notice and redirect.
// Internal failures are logged; their details never reach the client.
func redirectWithError(c *gin.Context, err error, location string) {
	level := web.LevelDanger
	switch apperrors.KindOf(err) {
	case apperrors.KindValidation, apperrors.KindConflict, apperrors.KindAuth:
		level = web.LevelWarning
	case apperrors.KindInternal:
		logger.Error("request failed", "path", c.Request.URL.Path, "error", err)
	}
	web.RedirectWithNotice(c, level, apperrors.MessageOf(err), location)
}

// respondJSON writes a read response and attaches any pending notice.
func respondJSON(c *gin.Context, body gin.H) {
	if n := web.PopNotice(c); n != nil {
		body["notice"] = n
	}
	c.JSON(nethttp.StatusOK, body)
}

// respondError answers a read request that failed.
func respondError(c *gin.Context, err error) {
	status := nethttp.StatusInternalServerError
	switch apperrors.KindOf(err) {
	case apperrors.KindValidation:
		status = nethttp.StatusBadRequest
	case apperrors.KindNotFound:
		status = nethttp.StatusNotFound
	case apperrors.KindForbidden:
		status = nethttp.StatusForbidden
	case apperrors.KindAuth:
		status = nethttp.StatusUnauthorized
	case apperrors.KindConflict:
		status = nethttp.StatusConflict
	case apperrors.KindUpstream:
		status = nethttp.StatusBadGateway
	default:
		logger.Error("request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.JSON(status, gin.H{"error": apperrors.MessageOf(err)})
}
