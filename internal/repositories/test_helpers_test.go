package repositories

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"postnest/internal/db"
	"postnest/internal/models"
)

// newTestDB opens a migrated in-memory SQLite database.
func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	conn, err := db.Connect(db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.Migrate(context.Background(), conn))
	return conn
}

func createTestUser(t *testing.T, users UserRepository, name, email string) *models.User {
	t.Helper()
	user, err := users.Create(context.Background(), name, email, "hash", "https://cdn.example.com/default.png")
	require.NoError(t, err)
	return user
}

func createTestPost(t *testing.T, posts PostRepository, ownerID int64, title string) *models.Post {
	t.Helper()
	post, err := posts.Create(context.Background(), &models.Post{
		UserID: ownerID,
		Title:  title,
		Image:  "https://bucket.example.com/" + title + ".png",
	})
	require.NoError(t, err)
	return post
}
