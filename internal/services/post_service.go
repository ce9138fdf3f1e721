package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"postnest/internal/apperrors"
	"postnest/internal/logger"
	"postnest/internal/models"
	"postnest/internal/repositories"
	"postnest/internal/security"
	"postnest/internal/storage"
)

const (
	maxTitleLength       = 100
	maxDescriptionLength = 200
	maxCommentLength     = 200
	maxLabelLength       = 100
)

type PostService struct {
	posts repositories.PostRepository
	store storage.ObjectStore
	now   func() time.Time
}

func NewPostService(posts repositories.PostRepository, store storage.ObjectStore) *PostService {
	return &PostService{posts: posts, store: store, now: time.Now}
}

// CommentThread is the comment list of a single post.
type CommentThread struct {
	PostID   int64                      `json:"post_id"`
	Count    int                        `json:"count"`
	Comments []models.CommentWithAuthor `json:"comments"`
}

// CreatePost uploads the image and stores the post. Without a file nothing is
// uploaded or written.
func (s *PostService) CreatePost(ctx context.Context, ownerID int64, title, description string, file *FileUpload) (*models.Post, error) {
	title = security.SanitizeText(title)
	description = security.SanitizeText(description)
	if file == nil {
		return nil, apperrors.Validation("Please provide a valid file to upload.")
	}
	if title == "" {
		return nil, apperrors.Validation("Title is required.")
	}
	if err := checkLength("Title", title, maxTitleLength); err != nil {
		return nil, err
	}
	if err := checkLength("Description", description, maxDescriptionLength); err != nil {
		return nil, err
	}

	image, err := uploadFile(ctx, s.store, "posts", file)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	post, err := s.posts.Create(ctx, &models.Post{
		UserID:      ownerID,
		Title:       title,
		Image:       image,
		Description: description,
		Date:        now.Format(models.DateLayout),
		CreatedAt:   now,
	})
	if err != nil {
		// The object stays in the bucket; there is no compensating delete.
		logger.Error("post insert failed after upload", "image", image, "error", err)
		return nil, apperrors.Internal(err, "An error occurred while saving the post.")
	}
	return post, nil
}

func (s *PostService) AddComment(ctx context.Context, callerID, postID, userID int64, body, label string) (*models.Comment, error) {
	if callerID != userID {
		return nil, apperrors.Forbidden("You can only comment as yourself.")
	}
	body = security.SanitizeText(body)
	label = security.SanitizeText(label)
	if body == "" {
		return nil, apperrors.Validation("Comment cannot be empty.")
	}
	if err := checkLength("Comment", body, maxCommentLength); err != nil {
		return nil, err
	}
	if err := checkLength("Label", label, maxLabelLength); err != nil {
		return nil, err
	}

	comment, err := s.posts.AddComment(ctx, &models.Comment{
		PostID:      postID,
		UserID:      userID,
		Body:        body,
		CommentedOn: label,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("Post not found.")
		}
		return nil, apperrors.Internal(err, "Could not add comment.")
	}
	return comment, nil
}

func (s *PostService) LikePost(ctx context.Context, callerID, postID, userID int64) error {
	if callerID != userID {
		return apperrors.Forbidden("You can only like posts as yourself.")
	}
	if err := s.posts.Like(ctx, postID, userID); err != nil {
		switch {
		case errors.Is(err, repositories.ErrAlreadyLiked):
			return apperrors.Conflict("You have already liked this post!")
		case errors.Is(err, sql.ErrNoRows):
			return apperrors.NotFound("Post not found.")
		default:
			return apperrors.Internal(err, "Could not like post.")
		}
	}
	return nil
}

func (s *PostService) ListFeed(ctx context.Context) ([]models.PostWithAuthor, error) {
	posts, err := s.posts.ListAll(ctx)
	if err != nil {
		return nil, apperrors.Internal(err, "Could not load posts.")
	}
	return posts, nil
}

func (s *PostService) ListByOwner(ctx context.Context, userID int64) ([]models.Post, error) {
	posts, err := s.posts.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal(err, "Could not load posts.")
	}
	return posts, nil
}

func (s *PostService) ListComments(ctx context.Context, postID int64) (*CommentThread, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("Post not found.")
		}
		return nil, apperrors.Internal(err, "Could not load comments.")
	}
	comments, err := s.posts.ListComments(ctx, postID)
	if err != nil {
		return nil, apperrors.Internal(err, "Could not load comments.")
	}
	return &CommentThread{PostID: postID, Count: len(comments), Comments: comments}, nil
}
