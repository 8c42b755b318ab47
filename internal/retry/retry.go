package retry

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// Config holds retry configuration. MaxRetries of 0 means a single attempt.
type Config struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// DefaultConfig returns a default retry configuration.
func DefaultConfig() Config {
	return Config{
		MaxRetries: 0,
		BaseDelay:  1 * time.Second,
	}
}

// WithBackoff runs operation until it succeeds, retryable reports false, or
// MaxRetries is exhausted. Delays grow exponentially with jitter.
func WithBackoff(ctx context.Context, cfg Config, retryable func(error) bool, operation func(context.Context) error) error {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	var err error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		err = operation(ctx)
		if err == nil {
			return nil
		}

		if retryable != nil && !retryable(err) {
			return err
		}

		if attempt == cfg.MaxRetries {
			break
		}

		delay := cfg.BaseDelay * time.Duration(1<<attempt)
		if cfg.BaseDelay > 0 {
			delay += time.Duration(rand.Int64N(int64(cfg.BaseDelay)))
		}

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}

	if cfg.MaxRetries == 0 {
		return err
	}
	return fmt.Errorf("failed after %d attempts: %w", cfg.MaxRetries+1, err)
}
