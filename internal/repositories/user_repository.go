package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"postnest/internal/db"
	"postnest/internal/models"
)

var ErrEmailTaken = errors.New("email already registered")

type UserRepository interface {
	Create(ctx context.Context, name, email, passwordHash, profileImage string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, id int64, name, email, profileImage string) error
	ListExcept(ctx context.Context, id int64) ([]models.User, error)
	SearchByName(ctx context.Context, term string, excludeID int64) ([]models.User, error)
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, name, email, password_hash, COALESCE(profile_image, '') AS profile_image, created_at`

func (r *userRepository) Create(ctx context.Context, name, email, passwordHash, profileImage string) (*models.User, error) {
	user := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		ProfileImage: profileImage,
		CreatedAt:    time.Now().UTC(),
	}
	err := r.db.QueryRowxContext(ctx, r.db.Rebind(`
INSERT INTO users (name, email, password_hash, profile_image, created_at)
VALUES (?, ?, ?, ?, ?)
RETURNING id
`), user.Name, user.Email, user.PasswordHash, nullIfEmpty(user.ProfileImage), user.CreatedAt).Scan(&user.ID)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, r.db.Rebind(`SELECT `+userColumns+` FROM users WHERE id=?`), id)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, r.db.Rebind(`SELECT `+userColumns+` FROM users WHERE email=?`), email)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, id int64, name, email, profileImage string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
UPDATE users SET name=?, email=?, profile_image=?
WHERE id=?
`), name, email, nullIfEmpty(profileImage), id)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrEmailTaken
		}
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *userRepository) ListExcept(ctx context.Context, id int64) ([]models.User, error) {
	users := []models.User{}
	err := r.db.SelectContext(ctx, &users, r.db.Rebind(`
SELECT `+userColumns+`
FROM users
WHERE id<>?
ORDER BY name, id
`), id)
	return users, err
}

// SearchByName matches term as a case-insensitive substring of the name.
func (r *userRepository) SearchByName(ctx context.Context, term string, excludeID int64) ([]models.User, error) {
	users := []models.User{}
	err := r.db.SelectContext(ctx, &users, r.db.Rebind(`
SELECT `+userColumns+`
FROM users
WHERE LOWER(name) LIKE LOWER(?) ESCAPE '\' AND id<>?
ORDER BY name, id
`), "%"+escapeLike(term)+"%", excludeID)
	return users, err
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
