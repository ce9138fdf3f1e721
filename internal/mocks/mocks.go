package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"postnest/internal/models"
	"postnest/internal/rabbitmq"
	"postnest/internal/repositories"
	"postnest/internal/storage"
)

// MockUserRepository mocks UserRepository behavior for services and handlers.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, name, email, passwordHash, profileImage string) (*models.User, error) {
	args := m.Called(ctx, name, email, passwordHash, profileImage)
	var user *models.User
	if val := args.Get(0); val != nil {
		user = val.(*models.User)
	}
	return user, args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	var user *models.User
	if val := args.Get(0); val != nil {
		user = val.(*models.User)
	}
	return user, args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	var user *models.User
	if val := args.Get(0); val != nil {
		user = val.(*models.User)
	}
	return user, args.Error(1)
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, id int64, name, email, profileImage string) error {
	args := m.Called(ctx, id, name, email, profileImage)
	return args.Error(0)
}

func (m *MockUserRepository) ListExcept(ctx context.Context, id int64) ([]models.User, error) {
	args := m.Called(ctx, id)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

func (m *MockUserRepository) SearchByName(ctx context.Context, term string, excludeID int64) ([]models.User, error) {
	args := m.Called(ctx, term, excludeID)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

// MockFriendRepository mocks FriendRepository behavior for handlers and services.
type MockFriendRepository struct {
	mock.Mock
}

func (m *MockFriendRepository) CreateRequest(ctx context.Context, fromUserID, toUserID int64) (*models.FriendRequest, error) {
	args := m.Called(ctx, fromUserID, toUserID)
	var req *models.FriendRequest
	if val := args.Get(0); val != nil {
		req = val.(*models.FriendRequest)
	}
	return req, args.Error(1)
}

func (m *MockFriendRepository) CancelRequest(ctx context.Context, fromUserID, toUserID int64) (int64, error) {
	args := m.Called(ctx, fromUserID, toUserID)
	return int64(args.Int(0)), args.Error(1)
}

func (m *MockFriendRepository) HasRequest(ctx context.Context, fromUserID, toUserID int64) (bool, error) {
	args := m.Called(ctx, fromUserID, toUserID)
	return args.Bool(0), args.Error(1)
}

func (m *MockFriendRepository) ListOutgoing(ctx context.Context, userID int64) ([]models.FriendRequestView, error) {
	args := m.Called(ctx, userID)
	var reqs []models.FriendRequestView
	if val := args.Get(0); val != nil {
		reqs = val.([]models.FriendRequestView)
	}
	return reqs, args.Error(1)
}

func (m *MockFriendRepository) ListIncoming(ctx context.Context, userID int64) ([]models.FriendRequestView, error) {
	args := m.Called(ctx, userID)
	var reqs []models.FriendRequestView
	if val := args.Get(0); val != nil {
		reqs = val.([]models.FriendRequestView)
	}
	return reqs, args.Error(1)
}

// MockPostRepository mocks PostRepository behavior.
type MockPostRepository struct {
	mock.Mock
}

func (m *MockPostRepository) Create(ctx context.Context, post *models.Post) (*models.Post, error) {
	args := m.Called(ctx, post)
	var p *models.Post
	if val := args.Get(0); val != nil {
		p = val.(*models.Post)
	}
	return p, args.Error(1)
}

func (m *MockPostRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	args := m.Called(ctx, id)
	var p *models.Post
	if val := args.Get(0); val != nil {
		p = val.(*models.Post)
	}
	return p, args.Error(1)
}

func (m *MockPostRepository) ListAll(ctx context.Context) ([]models.PostWithAuthor, error) {
	args := m.Called(ctx)
	var posts []models.PostWithAuthor
	if val := args.Get(0); val != nil {
		posts = val.([]models.PostWithAuthor)
	}
	return posts, args.Error(1)
}

func (m *MockPostRepository) ListByUser(ctx context.Context, userID int64) ([]models.Post, error) {
	args := m.Called(ctx, userID)
	var posts []models.Post
	if val := args.Get(0); val != nil {
		posts = val.([]models.Post)
	}
	return posts, args.Error(1)
}

func (m *MockPostRepository) AddComment(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	args := m.Called(ctx, comment)
	var c *models.Comment
	if val := args.Get(0); val != nil {
		c = val.(*models.Comment)
	}
	return c, args.Error(1)
}

func (m *MockPostRepository) ListComments(ctx context.Context, postID int64) ([]models.CommentWithAuthor, error) {
	args := m.Called(ctx, postID)
	var comments []models.CommentWithAuthor
	if val := args.Get(0); val != nil {
		comments = val.([]models.CommentWithAuthor)
	}
	return comments, args.Error(1)
}

func (m *MockPostRepository) Like(ctx context.Context, postID, userID int64) error {
	args := m.Called(ctx, postID, userID)
	return args.Error(0)
}

// MockSessionRepository mocks SessionRepository behavior.
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Create(ctx context.Context, userID int64) (*models.Session, error) {
	args := m.Called(ctx, userID)
	var s *models.Session
	if val := args.Get(0); val != nil {
		s = val.(*models.Session)
	}
	return s, args.Error(1)
}

func (m *MockSessionRepository) Get(ctx context.Context, id string) (*models.Session, error) {
	args := m.Called(ctx, id)
	var s *models.Session
	if val := args.Get(0); val != nil {
		s = val.(*models.Session)
	}
	return s, args.Error(1)
}

func (m *MockSessionRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockObjectStore mocks the object storage uploader.
type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) Upload(ctx context.Context, obj storage.Object) (string, error) {
	args := m.Called(ctx, obj)
	return args.String(0), args.Error(1)
}

// MockPublisher mocks RabbitMQ publisher behavior for telemetry.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

// Compile-time assertions
var (
	_ repositories.UserRepository    = (*MockUserRepository)(nil)
	_ repositories.FriendRepository  = (*MockFriendRepository)(nil)
	_ repositories.PostRepository    = (*MockPostRepository)(nil)
	_ repositories.SessionRepository = (*MockSessionRepository)(nil)
	_ storage.ObjectStore            = (*MockObjectStore)(nil)
	_ rabbitmq.Publisher             = (*MockPublisher)(nil)
)
