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

var ErrRequestExists = errors.New("friend request already sent")

type FriendRepository interface {
	CreateRequest(ctx context.Context, fromUserID, toUserID int64) (*models.FriendRequest, error)
	CancelRequest(ctx context.Context, fromUserID, toUserID int64) (int64, error)
	HasRequest(ctx context.Context, fromUserID, toUserID int64) (bool, error)
	ListOutgoing(ctx context.Context, userID int64) ([]models.FriendRequestView, error)
	ListIncoming(ctx context.Context, userID int64) ([]models.FriendRequestView, error)
}

type friendRepository struct {
	db        *sqlx.DB
	publisher rabbitmq.Publisher
}

func NewFriendRepository(db *sqlx.DB, publisher rabbitmq.Publisher) FriendRepository {
	return &friendRepository{db: db, publisher: publisher}
}

// CreateRequest inserts a pending edge. An existing edge for the same ordered
// pair yields ErrRequestExists and leaves the table untouched.
func (r *friendRepository) CreateRequest(ctx context.Context, fromUserID, toUserID int64) (*models.FriendRequest, error) {
	req := models.FriendRequest{
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		Status:     models.FriendRequestPending,
		CreatedAt:  time.Now().UTC(),
	}
	err := r.db.QueryRowxContext(ctx, r.db.Rebind(`
INSERT INTO friend_requests (from_user_id, to_user_id, status, created_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (from_user_id, to_user_id) DO NOTHING
RETURNING id
`), req.FromUserID, req.ToUserID, req.Status, req.CreatedAt).Scan(&req.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestExists
		}
		return nil, err
	}

	logPublish(ctx, r.publisher, rabbitmq.EventFriendRequestCreated, map[string]any{
		"request_id":   req.ID,
		"from_user_id": req.FromUserID,
		"to_user_id":   req.ToUserID,
		"created_at":   req.CreatedAt,
	})

	return &req, nil
}

// CancelRequest removes the edge in both directions and returns how many rows
// went away. sql.ErrNoRows means neither direction existed.
func (r *friendRepository) CancelRequest(ctx context.Context, fromUserID, toUserID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
DELETE FROM friend_requests
WHERE (from_user_id=? AND to_user_id=?) OR (from_user_id=? AND to_user_id=?)
`), fromUserID, toUserID, toUserID, fromUserID)
	if err != nil {
		return 0, err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, sql.ErrNoRows
	}

	logPublish(ctx, r.publisher, rabbitmq.EventFriendRequestCancelled, map[string]any{
		"from_user_id": fromUserID,
		"to_user_id":   toUserID,
		"removed":      count,
		"cancelled_at": time.Now().UTC(),
	})

	return count, nil
}

func (r *friendRepository) HasRequest(ctx context.Context, fromUserID, toUserID int64) (bool, error) {
	var count int
	err := r.db.GetContext(ctx, &count, r.db.Rebind(`
SELECT COUNT(1) FROM friend_requests
WHERE from_user_id=? AND to_user_id=?
`), fromUserID, toUserID)
	return count > 0, err
}

func (r *friendRepository) ListOutgoing(ctx context.Context, userID int64) ([]models.FriendRequestView, error) {
	reqs := []models.FriendRequestView{}
	err := r.db.SelectContext(ctx, &reqs, r.db.Rebind(`
SELECT f.id, f.from_user_id, f.to_user_id, f.status, f.created_at,
	u.name AS other_name, COALESCE(u.profile_image, '') AS other_image
FROM friend_requests f
JOIN users u ON u.id = f.to_user_id
WHERE f.from_user_id=?
ORDER BY f.created_at DESC, f.id DESC
`), userID)
	return reqs, err
}

func (r *friendRepository) ListIncoming(ctx context.Context, userID int64) ([]models.FriendRequestView, error) {
	reqs := []models.FriendRequestView{}
	err := r.db.SelectContext(ctx, &reqs, r.db.Rebind(`
SELECT f.id, f.from_user_id, f.to_user_id, f.status, f.created_at,
	u.name AS other_name, COALESCE(u.profile_image, '') AS other_image
FROM friend_requests f
JOIN users u ON u.id = f.from_user_id
WHERE f.to_user_id=?
ORDER BY f.created_at DESC, f.id DESC
`), userID)
	return reqs, err
}
