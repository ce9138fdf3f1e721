package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"postnest/internal/models"
	"postnest/internal/rabbitmq"
)

var ErrAlreadyLiked = errors.New("post already liked by user")

type PostRepository interface {
	Create(ctx context.Context, post *models.Post) (*models.Post, error)
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	ListAll(ctx context.Context) ([]models.PostWithAuthor, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Post, error)
	AddComment(ctx context.Context, comment *models.Comment) (*models.Comment, error)
	ListComments(ctx context.Context, postID int64) ([]models.CommentWithAuthor, error)
	Like(ctx context.Context, postID, userID int64) error
}

type postRepository struct {
	db        *sqlx.DB
	publisher rabbitmq.Publisher
}

func NewPostRepository(db *sqlx.DB, publisher rabbitmq.Publisher) PostRepository {
	return &postRepository{db: db, publisher: publisher}
}

const postColumns = `p.id, p.user_id, p.title, COALESCE(p.image, '') AS image,
	COALESCE(p.description, '') AS description, p.likes, p.comments, p.date, p.created_at`

func (r *postRepository) Create(ctx context.Context, post *models.Post) (*models.Post, error) {
	created := *post
	created.Likes = 0
	created.Comments = 0
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}
	if created.Date == "" {
		created.Date = created.CreatedAt.Format(models.DateLayout)
	}

	err := r.db.QueryRowxContext(ctx, r.db.Rebind(`
INSERT INTO posts (user_id, title, image, description, likes, comments, date, created_at)
VALUES (?, ?, ?, ?, 0, 0, ?, ?)
RETURNING id
`), created.UserID, created.Title, nullIfEmpty(created.Image), nullIfEmpty(created.Description),
		created.Date, created.CreatedAt).Scan(&created.ID)
	if err != nil {
		return nil, err
	}

	logPublish(ctx, r.publisher, rabbitmq.EventPostCreated, map[string]any{
		"post_id": created.ID,
		"user_id": created.UserID,
		"image":   created.Image,
	})

	return &created, nil
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	var post models.Post
	err := r.db.GetContext(ctx, &post, r.db.Rebind(`SELECT `+postColumns+` FROM posts p WHERE p.id=?`), id)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) ListAll(ctx context.Context) ([]models.PostWithAuthor, error) {
	posts := []models.PostWithAuthor{}
	err := r.db.SelectContext(ctx, &posts, `
SELECT `+postColumns+`, u.name AS author_name, COALESCE(u.profile_image, '') AS author_image
FROM posts p
JOIN users u ON u.id = p.user_id
ORDER BY p.created_at DESC, p.id DESC
`)
	return posts, err
}

func (r *postRepository) ListByUser(ctx context.Context, userID int64) ([]models.Post, error) {
	posts := []models.Post{}
	err := r.db.SelectContext(ctx, &posts, r.db.Rebind(`
SELECT `+postColumns+`
FROM posts p
WHERE p.user_id=?
ORDER BY p.created_at DESC, p.id DESC
`), userID)
	return posts, err
}

// AddComment stores the comment and bumps the post's comment counter in one
// transaction. sql.ErrNoRows means the post does not exist.
func (r *postRepository) AddComment(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	created := *comment
	created.CreatedAt = time.Now().UTC()

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := incrementCounter(ctx, tx, "comments", created.PostID); err != nil {
			return err
		}
		return tx.QueryRowxContext(ctx, tx.Rebind(`
INSERT INTO comments (post_id, user_id, body, commented_on, created_at)
VALUES (?, ?, ?, ?, ?)
RETURNING id
`), created.PostID, created.UserID, created.Body, nullIfEmpty(created.CommentedOn), created.CreatedAt).Scan(&created.ID)
	})
	if err != nil {
		return nil, err
	}

	logPublish(ctx, r.publisher, rabbitmq.EventCommentCreated, map[string]any{
		"comment_id": created.ID,
		"post_id":    created.PostID,
		"user_id":    created.UserID,
	})

	return &created, nil
}

func (r *postRepository) ListComments(ctx context.Context, postID int64) ([]models.CommentWithAuthor, error) {
	comments := []models.CommentWithAuthor{}
	err := r.db.SelectContext(ctx, &comments, r.db.Rebind(`
SELECT c.id, c.post_id, c.user_id, c.body, COALESCE(c.commented_on, '') AS commented_on, c.created_at,
	u.name AS author_name, COALESCE(u.profile_image, '') AS author_image
FROM comments c
JOIN users u ON u.id = c.user_id
WHERE c.post_id=?
ORDER BY c.created_at, c.id
`), postID)
	return comments, err
}

// Like records that userID likes postID and bumps the like counter. A second
// like for the same pair returns ErrAlreadyLiked with no changes.
func (r *postRepository) Like(ctx context.Context, postID, userID int64) error {
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var exists int
		if err := tx.GetContext(ctx, &exists, tx.Rebind(`SELECT COUNT(1) FROM posts WHERE id=?`), postID); err != nil {
			return err
		}
		if exists == 0 {
			return sql.ErrNoRows
		}

		res, err := tx.ExecContext(ctx, tx.Rebind(`
INSERT INTO likes (post_id, user_id) VALUES (?, ?)
ON CONFLICT (post_id, user_id) DO NOTHING
`), postID, userID)
		if err != nil {
			return err
		}
		inserted, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if inserted == 0 {
			return ErrAlreadyLiked
		}

		return incrementCounter(ctx, tx, "likes", postID)
	})
	if err != nil {
		return err
	}

	logPublish(ctx, r.publisher, rabbitmq.EventPostLiked, map[string]any{
		"post_id":  postID,
		"user_id":  userID,
		"liked_at": time.Now().UTC(),
	})

	return nil
}

// incrementCounter adds one to a denormalized post counter. column is never
// user input.
func incrementCounter(ctx context.Context, tx *sqlx.Tx, column string, postID int64) error {
	res, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE posts SET `+column+` = COALESCE(`+column+`, 0) + 1 WHERE id=?`), postID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return sql.ErrNoRows
	}
	return nil
}
