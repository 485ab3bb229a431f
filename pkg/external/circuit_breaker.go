package external

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/symptom-intake-server/internal/domain"
)

// ErrRateLimited is returned when the limiter has no token for a call. Calls
// never wait for a token.
var ErrRateLimited = errors.New("rate limit exceeded")

// newCircuitBreaker builds the breaker guarding one backend. It trips after
// BreakerFailures consecutive failures, or when at least 60% of three or more
// requests in the current interval failed.
func newCircuitBreaker(name string, cfg domain.BackendConfig, logger *logrus.Logger) *gobreaker.CircuitBreaker {
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	timeout := cfg.BreakerTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	interval := cfg.BreakerInterval
	if interval == 0 {
		interval = 60 * time.Second
	}

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures >= failures {
				return true
			}
			if counts.Requests < 3 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})
}
