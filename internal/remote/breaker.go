package remote

import (
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

type BreakerConfig struct {
	Enabled     bool
	MaxFailures uint32        // consecutive failures that open the breaker
	OpenTimeout time.Duration // how long it stays open before a trial call is let through
}

// Flows that may overlap each get a breaker, so a half-open trial call on one
// never turns away a call on another.
const (
	flowProducts = "products"
	flowCart     = "cart"
	flowOrder    = "order"
)

func flowOf(action string) string {
	switch action {
	case ActionListProducts:
		return flowProducts
	case ActionSubmitOrder:
		return flowOrder
	default:
		return flowCart
	}
}

func newBreakers(cfg BreakerConfig, logger *zap.Logger) map[string]*gobreaker.CircuitBreaker[struct{}] {
	if !cfg.Enabled {
		return nil
	}
	return map[string]*gobreaker.CircuitBreaker[struct{}]{
		flowProducts: newBreaker(flowProducts, cfg, logger),
		flowCart:     newBreaker(flowCart, cfg, logger),
		flowOrder:    newBreaker(flowOrder, cfg, logger),
	}
}

func newBreaker(flow string, cfg BreakerConfig, logger *zap.Logger) *gobreaker.CircuitBreaker[struct{}] {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	return gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "commerce-api-" + flow,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		// A refusal (4xx or success=false) is the server working as intended.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var re *RemoteError
			return errors.As(err, &re) && (re.IsClientError() || errors.Is(re, ErrUnsuccessful))
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
}

// rejectionMessage describes a call the breaker refused without reaching the network.
func rejectionMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState):
		return "commerce API unavailable (circuit open)", true
	case errors.Is(err, gobreaker.ErrTooManyRequests):
		return "commerce API recovering (trial call in flight)", true
	default:
		return "", false
	}
}
