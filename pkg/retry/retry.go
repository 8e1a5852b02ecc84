package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

var (
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
	ErrContextCanceled    = errors.New("context canceled during retry")
)

// Config controls the backoff schedule.
type Config struct {
	// MaxRetries is the number of attempts after the initial one.
	MaxRetries int
	// InitialInterval is the first backoff interval (default 1s).
	InitialInterval time.Duration
	// MaxInterval caps the backoff interval (default 30s).
	MaxInterval time.Duration
	// Multiplier grows the interval after each attempt (default 2.0).
	Multiplier float64
	// JitterFactor adds ±factor random jitter to each interval (0-1).
	JitterFactor float64
}

// DefaultConfig returns the standard schedule: 1s, 2s, 4s, 8s, 16s,
// capped at 30s, with ±10% jitter.
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:      5,
		InitialInterval: time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2.0,
		JitterFactor:    0.1,
	}
}

// Operation is the function to be retried.
type Operation func(ctx context.Context) error

// PermanentError stops the retry loop immediately.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }

func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent marks an error as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// Result reports what the retry loop did.
type Result struct {
	// Err is nil on success, ErrMaxRetriesExceeded or ErrContextCanceled
	// otherwise, or the unwrapped error when the operation returned a
	// PermanentError.
	Err error
	// Attempts counts every call of the operation, the initial one included.
	Attempts int
	// LastError is the error from the most recent attempt.
	LastError error
	// TotalDuration includes the backoff waits.
	TotalDuration time.Duration
}

// Retrier runs operations with exponential backoff.
type Retrier struct {
	config *Config
}

// New creates a Retrier, filling in defaults for zero config values.
func New(config *Config) *Retrier {
	if config == nil {
		config = DefaultConfig()
	}
	if config.InitialInterval <= 0 {
		config.InitialInterval = time.Second
	}
	if config.MaxInterval <= 0 {
		config.MaxInterval = 30 * time.Second
	}
	if config.Multiplier <= 0 {
		config.Multiplier = 2.0
	}
	if config.JitterFactor < 0 {
		config.JitterFactor = 0
	}
	if config.JitterFactor > 1 {
		config.JitterFactor = 1
	}
	return &Retrier{config: config}
}

// Do runs op until it succeeds, returns a permanent error, exhausts the
// retry budget, or the context ends.
func (r *Retrier) Do(ctx context.Context, op Operation) *Result {
	start := time.Now()
	result := &Result{}

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		result.Attempts = attempt + 1

		if ctx.Err() != nil {
			result.Err = ErrContextCanceled
			break
		}

		err := op(ctx)
		if err == nil {
			result.TotalDuration = time.Since(start)
			return result
		}
		result.LastError = err

		var permErr *PermanentError
		if errors.As(err, &permErr) {
			result.Err = permErr.Err
			result.LastError = permErr.Err
			break
		}

		if attempt == r.config.MaxRetries {
			result.Err = ErrMaxRetriesExceeded
			break
		}

		select {
		case <-ctx.Done():
			result.Err = ErrContextCanceled
			result.TotalDuration = time.Since(start)
			return result
		case <-time.After(r.interval(attempt)):
		}
	}

	result.TotalDuration = time.Since(start)
	return result
}

// interval computes the backoff before retry number attempt+1.
func (r *Retrier) interval(attempt int) time.Duration {
	d := float64(r.config.InitialInterval) * math.Pow(r.config.Multiplier, float64(attempt))

	if r.config.JitterFactor > 0 {
		jitter := d * r.config.JitterFactor
		d += (rand.Float64()*2 - 1) * jitter
	}

	if d > float64(r.config.MaxInterval) {
		d = float64(r.config.MaxInterval)
	}
	if d < 0 {
		d = float64(r.config.InitialInterval)
	}
	return time.Duration(d)
}
