package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"postnest/internal/apperrors"
	"postnest/internal/auth"
	"postnest/internal/models"
	"postnest/internal/repositories"
	"postnest/internal/security"
	"postnest/internal/storage"
)

const (
	maxNameLength     = 20
	maxEmailLength    = 30
	maxPasswordLength = 72
)

var errBadCredentials = apperrors.Auth("Incorrect Email or Password")

type UserService struct {
	users        repositories.UserRepository
	store        storage.ObjectStore
	defaultImage string
}

func NewUserService(users repositories.UserRepository, store storage.ObjectStore, defaultImage string) *UserService {
	return &UserService{users: users, store: store, defaultImage: defaultImage}
}

func (s *UserService) Signup(ctx context.Context, name, email, password string) (*models.User, error) {
	name = security.SanitizeText(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return nil, apperrors.Validation("Name, email and password are required.")
	}
	if err := validateIdentity(name, email); err != nil {
		return nil, err
	}
	if len(password) > maxPasswordLength {
		return nil, apperrors.Validation("Password must be at most 72 bytes.")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, apperrors.Internal(err, "Could not create account.")
	}

	user, err := s.users.Create(ctx, name, email, hash, s.defaultImage)
	if err != nil {
		if errors.Is(err, repositories.ErrEmailTaken) {
			return nil, apperrors.Conflict("An account with that email already exists.")
		}
		return nil, apperrors.Internal(err, "Could not create account.")
	}
	return user, nil
}

// Authenticate checks credentials. Unknown email and wrong password return
// the same error.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errBadCredentials
		}
		return nil, apperrors.Internal(err, "Could not log in.")
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		return nil, errBadCredentials
	}
	return user, nil
}

func (s *UserService) Profile(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("User not found.")
		}
		return nil, apperrors.Internal(err, "Could not load user.")
	}
	return user, nil
}

// EditProfile overwrites name and email. The profile image changes only when
// a new file is supplied.
func (s *UserService) EditProfile(ctx context.Context, userID int64, name, email string, file *FileUpload) (*models.User, error) {
	name = security.SanitizeText(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" {
		return nil, apperrors.Validation("Name and email are required.")
	}
	if err := validateIdentity(name, email); err != nil {
		return nil, err
	}

	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	image := user.ProfileImage
	if file != nil {
		image, err = uploadFile(ctx, s.store, "profiles", file)
		if err != nil {
			return nil, err
		}
	}

	if err := s.users.UpdateProfile(ctx, userID, name, email, image); err != nil {
		if errors.Is(err, repositories.ErrEmailTaken) {
			return nil, apperrors.Conflict("An account with that email already exists.")
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("User not found.")
		}
		return nil, apperrors.Internal(err, "Could not update profile.")
	}

	user.Name = name
	user.Email = email
	user.ProfileImage = image
	return user, nil
}

func validateIdentity(name, email string) error {
	if err := checkLength("Name", name, maxNameLength); err != nil {
		return err
	}
	if err := checkLength("Email", email, maxEmailLength); err != nil {
		return err
	}
	if !strings.Contains(email, "@") {
		return apperrors.Validation("Please provide a valid email address.")
	}
	return nil
}
