package client

import "fmt"

// CircuitOpenError is returned when a provider's circuit breaker is open and
// the call is rejected before any transport attempt.
type CircuitOpenError struct {
	Provider string
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("circuit open for provider %s", e.Provider)
}

// RetryExhaustedError wraps the last transport error after all retry attempts
// failed.
type RetryExhaustedError struct {
	Provider string
	Attempts int
	Err      error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("provider %s failed after %d attempts: %v", e.Provider, e.Attempts, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error {
	return e.Err
}
