package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"postnest/internal/logger"
	"postnest/internal/rabbitmq"
)

func withTx(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func logPublish(ctx context.Context, publisher rabbitmq.Publisher, eventType string, payload any) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, eventType, payload); err != nil {
		logger.Warn("failed to publish event", "event", eventType, "error", err)
	}
}
