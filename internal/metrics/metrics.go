package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	StatusSuccess   = "success"
	StatusFailed    = "failed"
	StatusDuplicate = "duplicate"
)

var (
	domainMetricsOnce sync.Once

	friendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "friend_requests_total",
			Help: "Total number of friend request attempts",
		},
		[]string{"status"},
	)

	friendCancelsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "friend_cancels_total",
			Help: "Total number of friend request cancel attempts",
		},
		[]string{"status"},
	)

	postsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "posts_created_total",
			Help: "Total number of post upload attempts",
		},
		[]string{"status"},
	)

	likesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "post_likes_total",
			Help: "Total number of like attempts",
		},
		[]string{"status"},
	)

	commentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "post_comments_total",
			Help: "Total number of comment attempts",
		},
		[]string{"status"},
	)

	loginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logins_total",
			Help: "Total number of login attempts",
		},
		[]string{"status"},
	)
)

func RegisterDomainMetrics() {
	domainMetricsOnce.Do(func() {
		prometheus.MustRegister(friendRequestsTotal, friendCancelsTotal, postsTotal, likesTotal, commentsTotal, loginsTotal)
	})
}

func IncFriendRequest(status string) {
	RegisterDomainMetrics()
	friendRequestsTotal.WithLabelValues(status).Inc()
}

func IncFriendCancel(status string) {
	RegisterDomainMetrics()
	friendCancelsTotal.WithLabelValues(status).Inc()
}

func IncPost(status string) {
	RegisterDomainMetrics()
	postsTotal.WithLabelValues(status).Inc()
}

func IncLike(status string) {
	RegisterDomainMetrics()
	likesTotal.WithLabelValues(status).Inc()
}

func IncComment(status string) {
	RegisterDomainMetrics()
	commentsTotal.WithLabelValues(status).Inc()
}

func IncLogin(status string) {
	RegisterDomainMetrics()
	loginsTotal.WithLabelValues(status).Inc()
}
