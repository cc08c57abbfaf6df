package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// 1) Request volume
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "requests_total",
		Help: "Total number of API requests handled.",
	}, []string{"method", "route", "status"})

	// 2) Concurrency (in flight)
	ActiveRequests = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "active_requests",
		Help: "Current number of in-flight requests.",
	})

	// 3) Request latency (handler duration)
	RequestDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "request_duration_seconds",
		Help:    "End-to-end handler duration for API requests.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "route"})

	// 4) Domain volume
	UsersCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "users_created_total",
		Help: "Total number of users created.",
	})

	ExercisesLoggedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "exercises_logged_total",
		Help: "Total number of exercises logged.",
	})

	// 5) Store latency
	StoreDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "store_operation_duration_seconds",
		Help:    "Duration of calls into the backing store.",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.02, 0.05, 0.1, 0.25, 0.5},
	}, []string{"operation"})

	// 6) Event publishing failures
	EventPublishFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "event_publish_failures_total",
		Help: "Exercise events that could not be published.",
	})

	// 7) Rate limiting drops
	RateLimitDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rate_limit_dropped_total",
		Help: "Requests rejected by the per-client rate limiter.",
	})
)

func MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		RequestsTotal,
		ActiveRequests,
		RequestDurationSeconds,
		UsersCreatedTotal,
		ExercisesLoggedTotal,
		StoreDurationSeconds,
		EventPublishFailuresTotal,
		RateLimitDroppedTotal,
	)
}

// ObserveStore records how long a store operation took since start.
func ObserveStore(operation string, start time.Time) {
	StoreDurationSeconds.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// Middleware counts and times every request by its route template.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ActiveRequests.Inc()
			defer ActiveRequests.Dec()

			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
				} else if !c.Response().Committed {
					status = http.StatusInternalServerError
				}
			}

			route := c.Path()
			method := c.Request().Method
			RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			RequestDurationSeconds.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
