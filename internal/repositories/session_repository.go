package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"postnest/internal/models"
)

type SessionRepository interface {
	Create(ctx context.Context, userID int64) (*models.Session, error)
	Get(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
}

type sessionRepository struct {
	db *sqlx.DB
}

func NewSessionRepository(db *sqlx.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, userID int64) (*models.Session, error) {
	session := models.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`INSERT INTO sessions (id, user_id, created_at) VALUES (?, ?, ?)`),
		session.ID, session.UserID, session.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) Get(ctx context.Context, id string) (*models.Session, error) {
	var session models.Session
	err := r.db.GetContext(ctx, &session, r.db.Rebind(`SELECT id, user_id, created_at FROM sessions WHERE id=?`), id)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM sessions WHERE id=?`), id)
	return err
}
