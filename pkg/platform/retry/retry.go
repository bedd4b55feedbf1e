// Package retry runs collaborator calls with Fibonacci backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	goretry "github.com/sethvargo/go-retry"
)

// Policy bounds the retries of one call.
type Policy struct {
	MaxRetries uint64
	Base       time.Duration
}

// DefaultPolicy retries twice starting at 250ms.
var DefaultPolicy = Policy{MaxRetries: 2, Base: 250 * time.Millisecond}

// UpstreamError is a non-2xx answer from an HTTP collaborator.
type UpstreamError struct {
	Service string
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s upstream %d", e.Service, e.Status)
	}
	return fmt.Sprintf("%s upstream %d: %s", e.Service, e.Status, e.Message)
}

// Temporary reports whether the status is worth retrying.
func (e *UpstreamError) Temporary() bool {
	return e.Status == http.StatusTooManyRequests ||
		e.Status == http.StatusRequestTimeout ||
		e.Status/100 == 5
}

// Do calls fn until it succeeds, fails permanently or the policy runs out.
// Only errors for which ShouldRetry holds are retried.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	if p.Base <= 0 {
		p.Base = DefaultPolicy.Base
	}
	backoff := goretry.WithMaxRetries(p.MaxRetries, goretry.NewFibonacci(p.Base))
	return goretry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if ShouldRetry(err) {
			return goretry.RetryableError(err)
		}
		return err
	})
}

// ShouldRetry reports whether err is transient. Cancellation and deadline
// expiry are final from the caller's point of view.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream.Temporary()
	}
	var permanent *PermanentError
	if errors.As(err, &permanent) {
		return false
	}
	return true
}

// PermanentError marks a failure that retrying cannot fix, such as an
// undecodable response.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}
