package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "triplog_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// NotificationsDispatched counts notification events by type and outcome.
	// Dispatch is best-effort; the "failed" outcome tracks swallowed errors.
	NotificationsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "triplog_notifications_dispatched_total",
		Help: "Total number of notification dispatch attempts by type and outcome",
	}, []string{"type", "outcome"})

	// ActiveWebSockets tracks currently open WebSocket connections.
	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "triplog_active_websockets",
		Help: "Number of currently open WebSocket connections",
	})

	// CommentSaveConflicts counts optimistic-lock failures on comment aggregate saves.
	CommentSaveConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "triplog_comment_save_conflicts_total",
		Help: "Total number of comment aggregate saves rejected by the version check",
	})
)

// InitMetrics creates the Prometheus HTTP middleware for the given service name.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(serviceName)
}

// MetricsMiddleware wraps the fiberprometheus middleware as a fiber.Handler.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
