package cache

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"
	"time"
)

// Backoff retries an operation with exponentially growing delays.
type Backoff struct {
	Attempts int           // total calls, including the first
	Delay    time.Duration // wait after the first failure, doubled after each one
	Retry    func(error) bool
}

// connectBackoff covers a Redis container that is still starting up.
var connectBackoff = Backoff{Attempts: 3, Delay: 250 * time.Millisecond, Retry: transient}

// Do calls fn until it succeeds, fails with an error Retry rejects, or the
// attempts run out. A nil Retry retries every error. Waiting stops early
// when ctx is done.
func (b Backoff) Do(ctx context.Context, fn func(context.Context) error) error {
	attempts := max(b.Attempts, 1)
	delay := b.Delay
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if b.Retry != nil && !b.Retry(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}
	return err
}

// transient reports whether err looks like a network hiccup rather than a
// misconfiguration.
func transient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne)
}
