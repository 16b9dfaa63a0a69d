package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unihub_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// EmailsSent counts verification emails successfully handed to the SMTP server.
	EmailsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "unihub_emails_sent_total",
		Help: "Total number of verification emails sent",
	})

	// EmailsFailed counts verification emails that could not be delivered.
	EmailsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "unihub_emails_failed_total",
		Help: "Total number of verification emails that failed to send",
	})

	// SessionsCreated counts successful logins and verifications that opened a session.
	SessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "unihub_sessions_created_total",
		Help: "Total number of sessions created",
	})
)

var (
	promOnce     sync.Once
	promInstance *fiberprometheus.FiberPrometheus
)

// InitMetrics creates the Prometheus middleware for the given service name.
// The instance is shared: fiberprometheus registers its collectors in the
// default registry and registering twice panics, so repeated server
// construction (tests) must reuse the first one.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		promInstance = fiberprometheus.New(serviceName)
	})
	return promInstance
}

// MetricsMiddleware returns the request-metrics middleware handler.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
