package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pygraphkit/graphtik/pkg/operation"
)

// networkIDKey is the context key under which a network identifier may
// be stashed for per-network rate limiting (see WithNetworkID).
type networkIDKey struct{}

// WithNetworkID attaches a network identifier to ctx for per-network
// rate limiting by RateLimitMiddleware.
func WithNetworkID(ctx context.Context, networkID string) context.Context {
	return context.WithValue(ctx, networkIDKey{}, networkID)
}

func networkIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(networkIDKey{}).(string)
	return id
}

// RateLimiter defines the interface for rate limiting implementations.
type RateLimiter interface {
	// Allow checks if a request is allowed based on rate limits.
	Allow(key string) bool
	// Reset clears all rate limit state.
	Reset()
}

// RateLimitMiddleware enforces rate limits on operation execution using
// the token bucket algorithm, globally, per-operation-name, and
// per-network.
type RateLimitMiddleware struct {
	globalLimiter    RateLimiter
	operationLimiters map[string]RateLimiter
	networkLimiters  map[string]RateLimiter
	mu               sync.RWMutex

	enableGlobal      bool
	enablePerOperation bool
	enablePerNetwork  bool

	rejectedCount   int64
	rejectedCountMu sync.Mutex
}

// RateLimitConfig configures rate limiting behavior.
type RateLimitConfig struct {
	GlobalRPS      float64
	OperationRPS   map[string]float64
	NetworkRPS     float64

	EnableGlobal       bool
	EnablePerOperation bool
	EnablePerNetwork   bool
}

// DefaultRateLimitConfig returns default rate limit configuration.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		GlobalRPS:          100,
		NetworkRPS:         10,
		EnableGlobal:       true,
		EnablePerOperation: false,
		EnablePerNetwork:   false,
		OperationRPS:       make(map[string]float64),
	}
}

// NewRateLimitMiddleware creates a new rate limiting middleware with default config.
func NewRateLimitMiddleware() *RateLimitMiddleware {
	return NewRateLimitMiddlewareWithConfig(DefaultRateLimitConfig())
}

// NewRateLimitMiddlewareWithConfig creates a new rate limiting middleware with custom config.
func NewRateLimitMiddlewareWithConfig(config RateLimitConfig) *RateLimitMiddleware {
	m := &RateLimitMiddleware{
		operationLimiters:  make(map[string]RateLimiter),
		networkLimiters:    make(map[string]RateLimiter),
		enableGlobal:       config.EnableGlobal,
		enablePerOperation: config.EnablePerOperation,
		enablePerNetwork:   config.EnablePerNetwork,
	}

	if config.EnableGlobal && config.GlobalRPS > 0 {
		m.globalLimiter = NewTokenBucket(config.GlobalRPS, int64(config.GlobalRPS))
	}

	if config.EnablePerOperation {
		for name, rps := range config.OperationRPS {
			if rps > 0 {
				m.operationLimiters[name] = NewTokenBucket(rps, int64(rps))
			}
		}
	}

	return m
}

// Process enforces rate limits before operation execution.
func (m *RateLimitMiddleware) Process(ctx context.Context, op *operation.Operation, in operation.Inputs, next Handler) (operation.Outputs, error) {
	if m.enableGlobal && m.globalLimiter != nil {
		if !m.globalLimiter.Allow("global") {
			m.incrementRejected()
			return nil, fmt.Errorf("global rate limit exceeded")
		}
	}

	if m.enablePerOperation {
		m.mu.RLock()
		limiter, exists := m.operationLimiters[op.Name()]
		m.mu.RUnlock()

		if exists && !limiter.Allow(op.Name()) {
			m.incrementRejected()
			return nil, fmt.Errorf("rate limit exceeded for operation: %s", op.Name())
		}
	}

	if m.enablePerNetwork {
		networkID := networkIDFromContext(ctx)
		if networkID != "" {
			limiter := m.getOrCreateNetworkLimiter(networkID)
			if !limiter.Allow(networkID) {
				m.incrementRejected()
				return nil, fmt.Errorf("rate limit exceeded for network: %s", networkID)
			}
		}
	}

	return next(ctx, op, in)
}

// Name returns the middleware name.
func (m *RateLimitMiddleware) Name() string {
	return "RateLimit"
}

// GetRejectedCount returns the number of rejected requests.
func (m *RateLimitMiddleware) GetRejectedCount() int64 {
	m.rejectedCountMu.Lock()
	defer m.rejectedCountMu.Unlock()
	return m.rejectedCount
}

func (m *RateLimitMiddleware) incrementRejected() {
	m.rejectedCountMu.Lock()
	m.rejectedCount++
	m.rejectedCountMu.Unlock()
}

func (m *RateLimitMiddleware) getOrCreateNetworkLimiter(networkID string) RateLimiter {
	m.mu.RLock()
	limiter, exists := m.networkLimiters[networkID]
	m.mu.RUnlock()

	if exists {
		return limiter
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	limiter, exists = m.networkLimiters[networkID]
	if exists {
		return limiter
	}

	limiter = NewTokenBucket(10, 10)
	m.networkLimiters[networkID] = limiter
	return limiter
}

// TokenBucket implements the token bucket algorithm for rate limiting.
type TokenBucket struct {
	rate       float64
	capacity   int64
	tokens     float64
	lastRefill time.Time
	mu         sync.Mutex
}

// NewTokenBucket creates a new token bucket rate limiter.
func NewTokenBucket(rate float64, capacity int64) *TokenBucket {
	return &TokenBucket{
		rate:       rate,
		capacity:   capacity,
		tokens:     float64(capacity),
		lastRefill: time.Now(),
	}
}

// Allow checks if a request is allowed based on available tokens.
func (tb *TokenBucket) Allow(key string) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastRefill).Seconds()
	tb.tokens = min(tb.tokens+elapsed*tb.rate, float64(tb.capacity))
	tb.lastRefill = now

	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		return true
	}
	return false
}

// Reset clears the token bucket state.
func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.tokens = float64(tb.capacity)
	tb.lastRefill = time.Now()
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
