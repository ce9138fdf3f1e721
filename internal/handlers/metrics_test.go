package handlers

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"postnest/internal/metrics"
	"postnest/internal/mocks"
	"postnest/internal/models"
	"postnest/internal/repositories"
	"postnest/internal/services"
	"postnest/internal/web"
)

// asUser stands in for RequireAuth in handler tests.
func asUser(id int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(web.ContextUserIDKey, id)
		c.Next()
	}
}

func setupMetricsRouter(friends *FriendHandler, posts *PostHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	private := r.Group("", asUser(1))
	private.POST("/connect/:from/:to", friends.SendRequest)
	private.POST("/remove/:from/:to", friends.CancelRequest)
	private.POST("/like/:postId/:userId", posts.Like)
	return r
}

func fetchMetrics(t *testing.T, router *gin.Engine) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func metricValue(metricsBody, name, status string) (float64, bool) {
	target := name + `{status="` + status + `"}`
	for _, line := range strings.Split(metricsBody, "\n") {
		if strings.HasPrefix(line, target+" ") {
			fields := strings.Fields(line)
			if len(fields) < 2 {
				return 0, false
			}
			value, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return 0, false
			}
			return value, true
		}
	}
	return 0, false
}

func assertMetricIncrement(t *testing.T, router *gin.Engine, name, status string, call func()) {
	t.Helper()
	before, _ := metricValue(fetchMetrics(t, router), name, status)
	call()
	after, found := metricValue(fetchMetrics(t, router), name, status)
	require.True(t, found)
	require.Greater(t, after, before)
}

func post(router *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func newMetricsFixture() (*gin.Engine, *mocks.MockFriendRepository, *mocks.MockUserRepository, *mocks.MockPostRepository) {
	metrics.RegisterDomainMetrics()
	friendRepo := new(mocks.MockFriendRepository)
	userRepo := new(mocks.MockUserRepository)
	postRepo := new(mocks.MockPostRepository)
	friendHandler := NewFriendHandler(services.NewFriendService(friendRepo, userRepo), nil)
	postHandler := NewPostHandler(services.NewPostService(postRepo, new(mocks.MockObjectStore)), nil, 1<<20)
	return setupMetricsRouter(friendHandler, postHandler), friendRepo, userRepo, postRepo
}

func TestFriendRequestMetricsFailed(t *testing.T) {
	router, _, _, _ := newMetricsFixture()

	assertMetricIncrement(t, router, "friend_requests_total", metrics.StatusFailed, func() {
		rec := post(router, "/connect/abc/2")
		require.Equal(t, http.StatusSeeOther, rec.Code)
		require.Equal(t, "/connect", rec.Header().Get("Location"))
	})
}

func TestFriendRequestMetricsDuplicate(t *testing.T) {
	router, friendRepo, userRepo, _ := newMetricsFixture()
	userRepo.On("GetByID", mock.Anything, int64(1)).Return(&models.User{ID: 1, Name: "Alice"}, nil)
	userRepo.On("GetByID", mock.Anything, int64(2)).Return(&models.User{ID: 2, Name: "Bob"}, nil)
	friendRepo.On("CreateRequest", mock.Anything, int64(1), int64(2)).Return(nil, repositories.ErrRequestExists)

	assertMetricIncrement(t, router, "friend_requests_total", metrics.StatusDuplicate, func() {
		rec := post(router, "/connect/1/2")
		require.Equal(t, http.StatusSeeOther, rec.Code)
	})
}

func TestFriendCancelMetricsFailed(t *testing.T) {
	router, _, _, _ := newMetricsFixture()

	assertMetricIncrement(t, router, "friend_cancels_total", metrics.StatusFailed, func() {
		rec := post(router, "/remove/5/6")
		require.Equal(t, http.StatusSeeOther, rec.Code)
	})
}

func TestLikeMetricsDuplicate(t *testing.T) {
	router, _, _, postRepo := newMetricsFixture()
	postRepo.On("Like", mock.Anything, int64(3), int64(1)).Return(repositories.ErrAlreadyLiked)

	assertMetricIncrement(t, router, "post_likes_total", metrics.StatusDuplicate, func() {
		rec := post(router, "/like/3/1")
		require.Equal(t, http.StatusSeeOther, rec.Code)
		require.Equal(t, "/home", rec.Header().Get("Location"))
	})
}
