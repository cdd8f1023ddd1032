// Package observability holds the Prometheus collectors and tracing setup.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tourismcam_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// AuthAttempts counts login and registration outcomes.
	AuthAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tourismcam_auth_attempts_total",
		Help: "Authentication attempts by action and outcome",
	}, []string{"action", "outcome"})

	// LikesToggled counts like toggles by resulting state.
	LikesToggled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tourismcam_likes_toggled_total",
		Help: "Like toggles by resulting state (liked, unliked)",
	}, []string{"state"})

	// CommentsCreated counts comments and replies written.
	CommentsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tourismcam_comments_created_total",
		Help: "Comments created, split by top-level and reply",
	}, []string{"kind"})

	// PostsCreated counts new posts by initial status.
	PostsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tourismcam_posts_created_total",
		Help: "Posts created by initial status",
	}, []string{"status"})
)
