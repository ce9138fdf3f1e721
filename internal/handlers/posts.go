package handlers

import (
	"fmt"
	nethttp "net/http"

	"github.com/gin-gonic/gin"

	"postnest/internal/apperrors"
	"postnest/internal/metrics"
	"postnest/internal/services"
	"postnest/internal/telemetry"
	"postnest/internal/web"
)

type PostHandler struct {
	posts         *services.PostService
	audit         *telemetry.AuditEmitter
	maxUploadSize int64
}

func NewPostHandler(posts *services.PostService, audit *telemetry.AuditEmitter, maxUploadSize int64) *PostHandler {
	return &PostHandler{posts: posts, audit: audit, maxUploadSize: maxUploadSize}
}

type createPostForm struct {
	Title       string `form:"title"`
	Description string `form:"desc"`
}

type commentForm struct {
	Comment     string `form:"comment" binding:"required"`
	CommentedOn string `form:"commented_on"`
}

func (h *PostHandler) Home(c *gin.Context) {
	feed, err := h.posts.ListFeed(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, gin.H{"posts": feed, "user_id": callerID(c)})
}

func (h *PostHandler) MyPosts(c *gin.Context) {
	posts, err := h.posts.ListByOwner(c.Request.Context(), callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, gin.H{"posts": posts})
}

func (h *PostHandler) CreatePost(c *gin.Context) {
	requestID := requestIDFromHeader(c)
	userID := callerID(c)
	c.Request.Body = nethttp.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize+multipartOverhead)

	var form createPostForm
	if err := c.ShouldBind(&form); err != nil {
		metrics.IncPost(metrics.StatusFailed)
		web.RedirectWithNotice(c, web.LevelWarning, "Please provide a valid file to upload.", "/home")
		return
	}

	upload, closeFile, err := optionalUpload(c, "file", h.maxUploadSize)
	if err != nil {
		metrics.IncPost(metrics.StatusFailed)
		redirectWithError(c, err, "/home")
		return
	}
	defer closeFile()

	ctx := c.Request.Context()
	post, err := h.posts.CreatePost(ctx, userID, form.Title, form.Description, upload)
	if err != nil {
		metrics.IncPost(metrics.StatusFailed)
		h.audit.EmitAudit(ctx, telemetry.LevelError, "post upload failed: "+apperrors.MessageOf(err), requestID, &userID)
		redirectWithError(c, err, "/home")
		return
	}

	metrics.IncPost(metrics.StatusSuccess)
	h.audit.EmitAudit(ctx, telemetry.LevelInfo, fmt.Sprintf("Post '%d' uploaded", post.ID), requestID, &userID)
	web.RedirectWithNotice(c, web.LevelInfo, "Post Uploaded Successfully", "/home")
}

func (h *PostHandler) AddComment(c *gin.Context) {
	requestID := requestIDFromHeader(c)
	caller := callerID(c)
	postID, okPost := parseIDParam(c, "postId")
	userID, okUser := parseIDParam(c, "userId")
	if !okPost || !okUser {
		metrics.IncComment(metrics.StatusFailed)
		web.RedirectWithNotice(c, web.LevelDanger, "Invalid request.", "/home")
		return
	}
	back := fmt.Sprintf("/comments/%d", postID)

	var form commentForm
	if err := c.ShouldBind(&form); err != nil {
		metrics.IncComment(metrics.StatusFailed)
		web.RedirectWithNotice(c, web.LevelWarning, "Comment cannot be empty.", back)
		return
	}

	ctx := c.Request.Context()
	if _, err := h.posts.AddComment(ctx, caller, postID, userID, form.Comment, form.CommentedOn); err != nil {
		metrics.IncComment(metrics.StatusFailed)
		h.audit.EmitAudit(ctx, telemetry.LevelError, "comment failed: "+apperrors.MessageOf(err), requestID, &caller)
		if apperrors.Is(err, apperrors.KindNotFound) {
			back = "/home"
		}
		redirectWithError(c, err, back)
		return
	}

	metrics.IncComment(metrics.StatusSuccess)
	h.audit.EmitAudit(ctx, telemetry.LevelInfo, fmt.Sprintf("Commented on post '%d'", postID), requestID, &caller)
	web.RedirectWithNotice(c, web.LevelSuccess, "Comment Added Successfully", back)
}

func (h *PostHandler) Comments(c *gin.Context) {
	postID, ok := parseIDParam(c, "postId")
	if !ok {
		respondError(c, apperrors.Validation("Invalid post id."))
		return
	}
	thread, err := h.posts.ListComments(c.Request.Context(), postID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, gin.H{"post_id": thread.PostID, "count": thread.Count, "comments": thread.Comments})
}

func (h *PostHandler) Like(c *gin.Context) {
	requestID := requestIDFromHeader(c)
	caller := callerID(c)
	postID, okPost := parseIDParam(c, "postId")
	userID, okUser := parseIDParam(c, "userId")
	if !okPost || !okUser {
		metrics.IncLike(metrics.StatusFailed)
		web.RedirectWithNotice(c, web.LevelDanger, "Invalid request.", "/home")
		return
	}

	ctx := c.Request.Context()
	if err := h.posts.LikePost(ctx, caller, postID, userID); err != nil {
		if apperrors.Is(err, apperrors.KindConflict) {
			metrics.IncLike(metrics.StatusDuplicate)
		} else {
			metrics.IncLike(metrics.StatusFailed)
		}
		h.audit.EmitAudit(ctx, telemetry.LevelWarn, "like rejected: "+apperrors.MessageOf(err), requestID, &caller)
		redirectWithError(c, err, "/home")
		return
	}

	metrics.IncLike(metrics.StatusSuccess)
	h.audit.EmitAudit(ctx, telemetry.LevelInfo, fmt.Sprintf("Liked post '%d'", postID), requestID, &caller)
	web.RedirectWithNotice(c, web.LevelSuccess, "You liked this post!", "/home")
}
