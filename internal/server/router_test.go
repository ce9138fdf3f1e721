package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postnest/internal/auth"
	"postnest/internal/db"
	"postnest/internal/models"
	"postnest/internal/rabbitmq"
	"postnest/internal/repositories"
	"postnest/internal/services"
	"postnest/internal/storage"
	"postnest/internal/telemetry"
	"postnest/internal/web"
)

const testDefaultImage = "https://cdn.test/default.png"

type fakeStore struct {
	mu   sync.Mutex
	keys []string
}

func (s *fakeStore) Upload(ctx context.Context, obj storage.Object) (string, error) {
	if _, err := io.Copy(io.Discard, obj.Body); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = append(s.keys, obj.Key)
	return "https://cdn.test/" + obj.Key, nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *sqlx.DB, *fakeStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := db.Connect(db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.Migrate(context.Background(), conn))

	pub := rabbitmq.NewNoopPublisher()
	userRepo := repositories.NewUserRepository(conn)
	store := &fakeStore{}
	manager := auth.NewManager(repositories.NewSessionRepository(conn), auth.NewTokenSigner("test-secret-that-is-long-enough-123"), false)

	router := NewRouter(Deps{
		Users:         services.NewUserService(userRepo, store, testDefaultImage),
		Posts:         services.NewPostService(repositories.NewPostRepository(conn, pub), store),
		Friends:       services.NewFriendService(repositories.NewFriendRepository(conn, pub), userRepo),
		Sessions:      manager,
		Audit:         telemetry.NewAuditEmitter(pub, "postnest", "test"),
		DB:            conn,
		MaxUploadSize: 1 << 20,
	})
	return router, conn, store
}

// client carries cookies between requests like a browser would.
type client struct {
	t       *testing.T
	router  *gin.Engine
	cookies map[string]*http.Cookie
}

func newClient(t *testing.T, router *gin.Engine) *client {
	return &client{t: t, router: router, cookies: map[string]*http.Cookie{}}
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 || ck.Value == "" {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	return rec
}

func (c *client) postForm(path string, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *client) postMultipart(path string, fields map[string]string, filename string, content []byte) *httptest.ResponseRecorder {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(c.t, w.WriteField(k, v))
	}
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		require.NoError(c.t, err)
		_, err = part.Write(content)
		require.NoError(c.t, err)
	}
	require.NoError(c.t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.do(req)
}

func (c *client) getJSON(path string, out any) *httptest.ResponseRecorder {
	rec := c.do(httptest.NewRequest(http.MethodGet, path, nil))
	if rec.Code == http.StatusOK && out != nil {
		require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec
}

// notice decodes the pending notice cookie without consuming it.
func (c *client) notice() *web.Notice {
	ck, ok := c.cookies["postnest_notice"]
	if !ok {
		return nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(ck.Value)
	require.NoError(c.t, err)
	var n web.Notice
	require.NoError(c.t, json.Unmarshal(raw, &n))
	return &n
}

func (c *client) signupAndLogin(name, email, password string) int64 {
	rec := c.postForm("/signup", url.Values{"name": {name}, "email": {email}, "password": {password}})
	require.Equal(c.t, http.StatusSeeOther, rec.Code)
	require.Equal(c.t, "/login", rec.Header().Get("Location"))

	rec = c.postForm("/login", url.Values{"email": {email}, "password": {password}})
	require.Equal(c.t, http.StatusSeeOther, rec.Code)
	require.Equal(c.t, "/home", rec.Header().Get("Location"))

	var body struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(c.t, body.Token)
	return body.User.ID
}

type feedResponse struct {
	Posts  []models.PostWithAuthor `json:"posts"`
	Notice *web.Notice        `json:"notice"`
}

func TestGatedRouteRedirectsToLogin(t *testing.T) {
	router, _, _ := newTestRouter(t)
	anon := newClient(t, router)

	for _, path := range []string{"/home", "/myprofile", "/connect", "/comments/1"} {
		rec := anon.do(httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusSeeOther, rec.Code, path)
		assert.Equal(t, "/login", rec.Header().Get("Location"), path)

		n := anon.notice()
		require.NotNil(t, n, path)
		assert.Equal(t, "Please log in to access this page.", n.Text)
		assert.Equal(t, web.LevelDanger, n.Level)
	}

	rec := anon.postForm("/like/1/1", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestLoginFailureIsGeneric(t *testing.T) {
	router, _, _ := newTestRouter(t)
	c := newClient(t, router)
	c.signupAndLogin("Alice", "alice@example.com", "secret")

	other := newClient(t, router)
	rec := other.postForm("/login", url.Values{"email": {"alice@example.com"}, "password": {"nope"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Equal(t, "Incorrect Email or Password", other.notice().Text)

	rec = other.postForm("/login", url.Values{"email": {"ghost@example.com"}, "password": {"secret"}})
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Equal(t, "Incorrect Email or Password", other.notice().Text)
}

func TestPostLikeScenario(t *testing.T) {
	router, _, store := newTestRouter(t)
	alice := newClient(t, router)
	bob := newClient(t, router)
	aliceID := alice.signupAndLogin("Alice", "alice@example.com", "pw-alice")
	bobID := bob.signupAndLogin("Bob", "bob@example.com", "pw-bob")

	rec := alice.postMultipart("/posts", map[string]string{"title": "T", "desc": "first"}, "img.png", []byte("png-bytes"))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/home", rec.Header().Get("Location"))
	assert.Equal(t, "Post Uploaded Successfully", alice.notice().Text)
	require.Len(t, store.keys, 1)
	assert.True(t, strings.HasPrefix(store.keys[0], "posts/"))

	var feed feedResponse
	require.Equal(t, http.StatusOK, alice.getJSON("/home", &feed).Code)
	require.Len(t, feed.Posts, 1)
	require.NotNil(t, feed.Notice)
	assert.Equal(t, "Post Uploaded Successfully", feed.Notice.Text)
	post := feed.Posts[0]
	assert.Equal(t, aliceID, post.UserID)
	assert.Equal(t, "Alice", post.AuthorName)
	assert.Zero(t, post.Likes)
	assert.Zero(t, post.Comments)

	likePath := "/like/" + itoa(post.ID) + "/" + itoa(bobID)
	rec = bob.postForm(likePath, nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "You liked this post!", bob.notice().Text)

	rec = bob.postForm(likePath, nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "You have already liked this post!", bob.notice().Text)
	assert.Equal(t, web.LevelWarning, bob.notice().Level)

	feed = feedResponse{}
	bob.getJSON("/home", &feed)
	require.Len(t, feed.Posts, 1)
	assert.Equal(t, int64(1), feed.Posts[0].Likes)

	// Liking on behalf of someone else is refused.
	rec = bob.postForm("/like/"+itoa(post.ID)+"/"+itoa(aliceID), nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	feed = feedResponse{}
	bob.getJSON("/home", &feed)
	assert.Equal(t, int64(1), feed.Posts[0].Likes)
}

func TestCreatePostWithoutFile(t *testing.T) {
	router, _, store := newTestRouter(t)
	alice := newClient(t, router)
	alice.signupAndLogin("Alice", "alice@example.com", "pw")

	rec := alice.postMultipart("/posts", map[string]string{"title": "No image"}, "", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "Please provide a valid file to upload.", alice.notice().Text)
	assert.Empty(t, store.keys)

	var feed feedResponse
	alice.getJSON("/home", &feed)
	assert.Empty(t, feed.Posts)
}

func TestCommentIncrementsCount(t *testing.T) {
	router, _, _ := newTestRouter(t)
	alice := newClient(t, router)
	aliceID := alice.signupAndLogin("Alice", "alice@example.com", "pw")
	alice.postMultipart("/posts", map[string]string{"title": "T"}, "img.png", []byte("x"))

	var feed feedResponse
	alice.getJSON("/home", &feed)
	require.Len(t, feed.Posts, 1)
	postID := feed.Posts[0].ID

	rec := alice.postForm("/comment/"+itoa(postID)+"/"+itoa(aliceID), url.Values{"comment": {"nice"}, "commented_on": {"T"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/comments/"+itoa(postID), rec.Header().Get("Location"))

	var thread struct {
		Count    int                        `json:"count"`
		Comments []models.CommentWithAuthor `json:"comments"`
	}
	require.Equal(t, http.StatusOK, alice.getJSON("/comments/"+itoa(postID), &thread).Code)
	assert.Equal(t, 1, thread.Count)
	require.Len(t, thread.Comments, 1)
	assert.Equal(t, "nice", thread.Comments[0].Body)
	assert.Equal(t, "Alice", thread.Comments[0].AuthorName)

	feed = feedResponse{}
	alice.getJSON("/home", &feed)
	assert.Equal(t, int64(1), feed.Posts[0].Comments)
}

func TestFriendRequestFlow(t *testing.T) {
	router, _, _ := newTestRouter(t)
	alice := newClient(t, router)
	bob := newClient(t, router)
	aliceID := alice.signupAndLogin("Alice", "alice@example.com", "pw")
	bobID := bob.signupAndLogin("Bob", "bob@example.com", "pw")

	connectPath := "/connect/" + itoa(aliceID) + "/" + itoa(bobID)
	rec := alice.postForm(connectPath, nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/connect", rec.Header().Get("Location"))
	assert.Equal(t, "Friend Request Sent!", alice.notice().Text)

	alice.postForm(connectPath, nil)
	assert.Equal(t, "Request Already Sent", alice.notice().Text)

	var lists struct {
		Outgoing []models.FriendRequestView `json:"outgoing"`
		Incoming []models.FriendRequestView `json:"incoming"`
	}
	require.Equal(t, http.StatusOK, bob.getJSON("/connect/requests", &lists).Code)
	require.Len(t, lists.Incoming, 1)
	assert.Equal(t, "Alice", lists.Incoming[0].OtherName)
	assert.Empty(t, lists.Outgoing)

	removePath := "/remove/" + itoa(aliceID) + "/" + itoa(bobID)
	bob.postForm(removePath, nil)
	assert.Equal(t, "Friend Request Cancelled", bob.notice().Text)

	bob.postForm(removePath, nil)
	assert.Equal(t, "No friend request found to cancel.", bob.notice().Text)
	assert.Equal(t, web.LevelDanger, bob.notice().Level)
}

func TestSelfRequestsAreRejected(t *testing.T) {
	router, conn, _ := newTestRouter(t)
	alice := newClient(t, router)
	twin := newClient(t, router)
	aliceID := alice.signupAndLogin("Alice", "alice@example.com", "pw")
	twinID := twin.signupAndLogin("ALICE", "alice2@example.com", "pw")

	alice.postForm("/connect/"+itoa(aliceID)+"/"+itoa(aliceID), nil)
	assert.Equal(t, "You cannot send a friend request to yourself.", alice.notice().Text)

	alice.postForm("/connect/"+itoa(aliceID)+"/"+itoa(twinID), nil)
	assert.Equal(t, "You cannot send a friend request to yourself.", alice.notice().Text)

	var count int
	require.NoError(t, conn.Get(&count, "SELECT COUNT(*) FROM friend_requests"))
	assert.Zero(t, count)

	rec := alice.postForm("/connect/search", url.Values{"username": {"alice"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "You cannot send a friend request to yourself.", alice.notice().Text)
}

func TestSearchAndConnectList(t *testing.T) {
	router, _, _ := newTestRouter(t)
	alice := newClient(t, router)
	alice.signupAndLogin("Alice", "alice@example.com", "pw")
	newClient(t, router).signupAndLogin("Bobby", "bobby@example.com", "pw")
	newClient(t, router).signupAndLogin("Carol", "carol@example.com", "pw")

	var others struct {
		Users []models.User `json:"users"`
	}
	require.Equal(t, http.StatusOK, alice.getJSON("/connect", &others).Code)
	assert.Len(t, others.Users, 2)

	rec := alice.postForm("/connect/search", url.Values{"username": {"BOB"}})
	require.Equal(t, http.StatusOK, rec.Code)
	var found struct {
		Users []models.User `json:"users"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &found))
	require.Len(t, found.Users, 1)
	assert.Equal(t, "Bobby", found.Users[0].Name)

	rec = alice.postForm("/connect/search", url.Values{"username": {"zed"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "No users found with that name.", alice.notice().Text)
}

func TestEditProfileKeepsImageWithoutFile(t *testing.T) {
	router, _, store := newTestRouter(t)
	alice := newClient(t, router)
	alice.signupAndLogin("Alice", "alice@example.com", "pw")

	rec := alice.postMultipart("/editprofile", map[string]string{"name": "Alicia", "email": "alicia@example.com"}, "", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/myprofile", rec.Header().Get("Location"))
	assert.Equal(t, "Profile Updated Successfully", alice.notice().Text)

	var profile struct {
		User models.User `json:"user"`
	}
	require.Equal(t, http.StatusOK, alice.getJSON("/myprofile", &profile).Code)
	assert.Equal(t, "Alicia", profile.User.Name)
	assert.Equal(t, "alicia@example.com", profile.User.Email)
	assert.Equal(t, testDefaultImage, profile.User.ProfileImage)
	assert.Empty(t, store.keys)

	alice.postMultipart("/editprofile", map[string]string{"name": "Alicia", "email": "alicia@example.com"}, "me.jpg", []byte("jpg"))
	alice.getJSON("/myprofile", &profile)
	assert.True(t, strings.HasPrefix(profile.User.ProfileImage, "https://cdn.test/profiles/"))
}

func TestLogoutRevokesSession(t *testing.T) {
	router, _, _ := newTestRouter(t)
	alice := newClient(t, router)
	alice.signupAndLogin("Alice", "alice@example.com", "pw")
	token := alice.cookies[auth.SessionCookie].Value

	rec := alice.do(httptest.NewRequest(http.MethodGet, "/logout", nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "Successfully Logged Out.", alice.notice().Text)
	_, stillSet := alice.cookies[auth.SessionCookie]
	assert.False(t, stillSet)

	// The old token is dead even when replayed as a bearer token.
	req := httptest.NewRequest(http.MethodGet, "/home", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestDuplicateSignup(t *testing.T) {
	router, _, _ := newTestRouter(t)
	c := newClient(t, router)
	c.signupAndLogin("Alice", "alice@example.com", "pw")

	rec := c.postForm("/signup", url.Values{"name": {"Other"}, "email": {"alice@example.com"}, "password": {"pw"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/signup", rec.Header().Get("Location"))
	assert.Equal(t, "An account with that email already exists.", c.notice().Text)
}

func TestHealthz(t *testing.T) {
	router, conn, _ := newTestRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, conn.Close())
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
