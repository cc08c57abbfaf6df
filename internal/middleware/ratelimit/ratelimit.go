package ratelimit

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	appmetrics "exercise-tracker/internal/metrics"
)

type ClientCounter struct {
	Count     int
	LastReset time.Time
}

// RateLimiter allows each client a fixed number of requests per window.
type RateLimiter struct {
	limit    int
	window   time.Duration
	counters map[string]*ClientCounter
	mu       sync.Mutex
	now      func() time.Time

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		limit:    limit,
		window:   window,
		counters: make(map[string]*ClientCounter),
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	go func() {
		defer close(rl.done)
		ticker := time.NewTicker(window)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.cleanup()
			case <-rl.stop:
				return
			}
		}
	}()

	return rl
}

func (rl *RateLimiter) IsAllowed(clientID string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	counter, exists := rl.counters[clientID]

	if !exists {
		rl.counters[clientID] = &ClientCounter{
			Count:     1,
			LastReset: now,
		}
		return true
	}

	// Reset counter once the window has passed
	if now.Sub(counter.LastReset) >= rl.window {
		counter.Count = 1
		counter.LastReset = now
		return true
	}

	if counter.Count >= rl.limit {
		return false
	}

	counter.Count++
	return true
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
	<-rl.done
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for clientID, counter := range rl.counters {
		if now.Sub(counter.LastReset) >= rl.window {
			delete(rl.counters, clientID)
		}
	}
}

// Middleware rejects requests from clients over their budget with 429.
func Middleware(rl *RateLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !rl.IsAllowed(c.RealIP()) {
				appmetrics.RateLimitDroppedTotal.Inc()
				return echo.NewHTTPError(http.StatusTooManyRequests, "Rate limit exceeded")
			}
			return next(c)
		}
	}
}
