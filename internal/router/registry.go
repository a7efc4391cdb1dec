package router

import (
	"sync"
	"time"
)

// BreakerRegistry owns the circuit breakers for all providers. It is the only
// shared mutable state in the routing path; callers inject it into the router
// and the resilient client rather than reaching for a global.
type BreakerRegistry struct {
	mu       sync.RWMutex
	breakers map[string]*CircuitBreaker

	failureThreshold int
	recoveryTimeout  time.Duration
}

// NewBreakerRegistry creates a registry with the given circuit breaker config.
func NewBreakerRegistry(failureThreshold int, recoveryTimeout time.Duration) *BreakerRegistry {
	return &BreakerRegistry{
		breakers:         make(map[string]*CircuitBreaker),
		failureThreshold: failureThreshold,
		recoveryTimeout:  recoveryTimeout,
	}
}

// Get returns (or lazily creates) the circuit breaker for a provider.
func (reg *BreakerRegistry) Get(provider string) *CircuitBreaker {
	reg.mu.RLock()
	cb, ok := reg.breakers[provider]
	reg.mu.RUnlock()
	if ok {
		return cb
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	// Double-check after acquiring write lock
	if cb, ok := reg.breakers[provider]; ok {
		return cb
	}
	cb = NewCircuitBreaker(reg.failureThreshold, reg.recoveryTimeout)
	reg.breakers[provider] = cb
	return cb
}

// IsAvailable returns true if the provider's circuit breaker allows requests
// (state closed or half_open).
func (reg *BreakerRegistry) IsAvailable(provider string) bool {
	return reg.Get(provider).Allow()
}

// RecordSuccess records a successful request for the provider.
func (reg *BreakerRegistry) RecordSuccess(provider string) {
	reg.Get(provider).RecordSuccess()
}

// RecordFailure records a failed request for the provider.
func (reg *BreakerRegistry) RecordFailure(provider string) {
	reg.Get(provider).RecordFailure()
}

// States returns a snapshot of circuit states keyed by provider.
func (reg *BreakerRegistry) States() map[string]string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	out := make(map[string]string, len(reg.breakers))
	for provider, cb := range reg.breakers {
		out[provider] = cb.State().String()
	}
	return out
}
