// Package retry retries cluster CLI calls that fail for transient reasons.
//
// Only transport-level failures (API server briefly unreachable) are worth
// retrying; a command that fails for any other reason is marked Permanent
// and returned on the first attempt.
package retry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config holds retry configuration.
type Config struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultConfig returns the backoff used for kubectl apply and get.
func DefaultConfig() Config {
	return Config{
		MaxRetries:   4,
		InitialDelay: 2 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// Option is a functional option for retry configuration.
type Option func(*Config)

// Do runs operation until it succeeds, fails permanently, or the retries
// are exhausted. Permanent errors are returned unwrapped.
func Do(ctx context.Context, operation func() error, opts ...Option) error {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	delay := cfg.InitialDelay
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}

		var perm *PermanentError
		if errors.As(err, &perm) {
			return perm.Err
		}
		lastErr = err

		if attempt < cfg.MaxRetries {
			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled after %d attempts: %w", attempt+1, ctx.Err())
			case <-time.After(delay):
				delay = time.Duration(float64(delay) * cfg.Multiplier)
				if delay > cfg.MaxDelay {
					delay = cfg.MaxDelay
				}
			}
		}
	}

	return fmt.Errorf("giving up after %d attempts: %w", cfg.MaxRetries+1, lastErr)
}

// WithConfig replaces the whole configuration.
func WithConfig(c Config) Option {
	return func(cfg *Config) {
		*cfg = c
	}
}

// PermanentError marks an error that must not be retried.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// Permanent marks err as non-retryable.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// transientMarkers are substrings of kubectl output that indicate the API
// server could not be reached, as opposed to a rejected request.
var transientMarkers = []string{
	"EOF",
	"connection refused",
	"connection reset",
	"Unable to connect",
	"i/o timeout",
	"TLS handshake timeout",
	"the server is currently unable to handle the request",
}

// IsTransientOutput reports whether CLI output describes a transient failure.
func IsTransientOutput(output string) bool {
	for _, m := range transientMarkers {
		if strings.Contains(output, m) {
			return true
		}
	}
	return false
}
