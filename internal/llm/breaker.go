package llm

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerCompleter trips after repeated backend failures so that callers fall
// back without waiting on a model that is down. It never retries.
type BreakerCompleter struct {
	next Completer
	cb   *gobreaker.CircuitBreaker
}

// BreakerSettings tunes when the breaker opens and how long it stays open.
type BreakerSettings struct {
	MinRequests      uint32
	FailureThreshold float64
	Interval         time.Duration
	OpenTimeout      time.Duration
}

func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MinRequests:      5,
		FailureThreshold: 0.6,
		Interval:         60 * time.Second,
		OpenTimeout:      30 * time.Second,
	}
}

func WithBreaker(next Completer, name string, settings BreakerSettings, logger *slog.Logger) *BreakerCompleter {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    settings.Interval,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < settings.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= settings.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("model circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			// A cancelled caller says nothing about backend health.
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return &BreakerCompleter{next: next, cb: cb}
}

func (b *BreakerCompleter) Complete(ctx context.Context, req Request) (string, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Complete(ctx, req)
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

// State exposes the breaker state for health reporting.
func (b *BreakerCompleter) State() string {
	return b.cb.State().String()
}
