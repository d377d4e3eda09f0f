package publish

import (
	"context"
	"errors"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/zfogg/brandcast/internal/logger"
	"github.com/zfogg/brandcast/internal/metrics"
	"github.com/zfogg/brandcast/internal/platforms"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrBreakerOpen means the platform is failing and calls are short-circuited
var ErrBreakerOpen = errors.New("platform circuit breaker open")

// GuardConfig tunes per-platform rate limits and circuit breakers
type GuardConfig struct {
	// RatePerMinute caps publish calls per platform; missing or zero means unlimited
	RatePerMinute map[string]int
	// BreakerFailures consecutive retryable failures open the breaker
	BreakerFailures uint32
	// BreakerOpenFor is how long an open breaker rejects calls
	BreakerOpenFor time.Duration
}

// Guards owns one limiter and one breaker per platform, shared by all workers
type Guards struct {
	cfg GuardConfig

	mu       sync.Mutex
	limiters map[platforms.Platform]*rate.Limiter
	breakers map[platforms.Platform]*gobreaker.CircuitBreaker[*platforms.Result]
}

// NewGuards creates the guard set
func NewGuards(cfg GuardConfig) *Guards {
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerOpenFor <= 0 {
		cfg.BreakerOpenFor = 2 * time.Minute
	}
	return &Guards{
		cfg:      cfg,
		limiters: make(map[platforms.Platform]*rate.Limiter),
		breakers: make(map[platforms.Platform]*gobreaker.CircuitBreaker[*platforms.Result]),
	}
}

func (g *Guards) limiter(p platforms.Platform) *rate.Limiter {
	g.mu.Lock()
	defer g.mu.Unlock()
	if l, ok := g.limiters[p]; ok {
		return l
	}
	l := rate.NewLimiter(rate.Inf, 1)
	if n := g.cfg.RatePerMinute[string(p)]; n > 0 {
		l = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)
	}
	g.limiters[p] = l
	return l
}

func (g *Guards) breaker(p platforms.Platform) *gobreaker.CircuitBreaker[*platforms.Result] {
	g.mu.Lock()
	defer g.mu.Unlock()
	if b, ok := g.breakers[p]; ok {
		return b
	}
	failures := g.cfg.BreakerFailures
	b := gobreaker.NewCircuitBreaker[*platforms.Result](gobreaker.Settings{
		Name:        string(p),
		MaxRequests: 1,
		Timeout:     g.cfg.BreakerOpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// content and auth errors say nothing about platform health
		IsSuccessful: func(err error) bool {
			return err == nil || !platforms.IsRetryable(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.Get().PublishBreakerState.WithLabelValues(name).Set(float64(to))
			logger.Log.Warn("Publish circuit breaker state changed",
				logger.WithPlatform(name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	g.breakers[p] = b
	return b
}

// Wait blocks until the platform's rate limiter admits one call
func (g *Guards) Wait(ctx context.Context, p platforms.Platform) error {
	start := time.Now()
	err := g.limiter(p).Wait(ctx)
	metrics.Get().PublishRateLimitWait.WithLabelValues(string(p)).Observe(time.Since(start).Seconds())
	return err
}

// Execute runs fn through the platform's circuit breaker. A rejected call
// returns ErrBreakerOpen without running fn.
func (g *Guards) Execute(p platforms.Platform, fn func() (*platforms.Result, error)) (*platforms.Result, error) {
	res, err := g.breaker(p).Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrBreakerOpen
	}
	return res, err
}

// State reports the breaker state for a platform
func (g *Guards) State(p platforms.Platform) gobreaker.State {
	return g.breaker(p).State()
}

// OpenFor is how long an open breaker stays open
func (g *Guards) OpenFor() time.Duration {
	return g.cfg.BreakerOpenFor
}
