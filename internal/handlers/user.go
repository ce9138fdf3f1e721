package handlers

import (
	"errors"
	"mime/multipart"
	nethttp "net/http"

	"github.com/gin-gonic/gin"

	"postnest/internal/apperrors"
	"postnest/internal/security"
	"postnest/internal/services"
	"postnest/internal/telemetry"
	"postnest/internal/web"
)

type UserHandler struct {
	users         *services.UserService
	audit         *telemetry.AuditEmitter
	maxUploadSize int64
}

func NewUserHandler(users *services.UserService, audit *telemetry.AuditEmitter, maxUploadSize int64) *UserHandler {
	return &UserHandler{users: users, audit: audit, maxUploadSize: maxUploadSize}
}

type editProfileForm struct {
	Name  string `form:"name" binding:"required"`
	Email string `form:"email" binding:"required"`
}

func (h *UserHandler) MyProfile(c *gin.Context) {
	user, err := h.users.Profile(c.Request.Context(), callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, gin.H{"user": user})
}

func (h *UserHandler) EditProfile(c *gin.Context) {
	requestID := requestIDFromHeader(c)
	userID := callerID(c)
	c.Request.Body = nethttp.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize+multipartOverhead)

	var form editProfileForm
	if err := c.ShouldBind(&form); err != nil {
		web.RedirectWithNotice(c, web.LevelWarning, "Name and email are required.", "/myprofile")
		return
	}

	upload, closeFile, err := optionalUpload(c, "file", h.maxUploadSize)
	if err != nil {
		redirectWithError(c, err, "/myprofile")
		return
	}
	defer closeFile()

	ctx := c.Request.Context()
	if _, err := h.users.EditProfile(ctx, userID, form.Name, form.Email, upload); err != nil {
		h.audit.EmitAudit(ctx, telemetry.LevelError, "profile update failed: "+apperrors.MessageOf(err), requestID, &userID)
		redirectWithError(c, err, "/myprofile")
		return
	}

	h.audit.EmitAudit(ctx, telemetry.LevelInfo, "Profile updated", requestID, &userID)
	web.RedirectWithNotice(c, web.LevelSuccess, "Profile Updated Successfully", "/myprofile")
}

// multipartOverhead leaves room for form fields and boundaries on top of the
// file itself.
const multipartOverhead = 1 << 20

var allowedImageTypes = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

// optionalUpload returns the named multipart file, or nil when the client did
// not send one.
func optionalUpload(c *gin.Context, field string, maxSize int64) (*services.FileUpload, func(), error) {
	noop := func() {}
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, nethttp.ErrMissingFile) || errors.Is(err, nethttp.ErrNotMultipart) {
			return nil, noop, nil
		}
		return nil, noop, apperrors.Validation("Please provide a valid file to upload.")
	}
	if header.Size == 0 {
		return nil, noop, nil
	}
	return openUpload(header, maxSize)
}

func openUpload(header *multipart.FileHeader, maxSize int64) (*services.FileUpload, func(), error) {
	noop := func() {}
	if !security.ValidateFileSize(header.Size, maxSize) {
		return nil, noop, apperrors.Validation("File is too large.")
	}
	if !security.ValidateFileType(header.Filename, allowedImageTypes) {
		return nil, noop, apperrors.Validation("Only image files can be uploaded.")
	}
	file, err := header.Open()
	if err != nil {
		return nil, noop, apperrors.Validation("Please provide a valid file to upload.")
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &services.FileUpload{
		Filename:    header.Filename,
		Body:        file,
		Size:        header.Size,
		ContentType: contentType,
	}, func() { _ = file.Close() }, nil
}
