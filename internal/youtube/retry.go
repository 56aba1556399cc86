package youtube

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/mgpai22/tubeqa/internal/logging"
)

// RetryConfig is the backoff schedule for captions requests.
type RetryConfig struct {
	MaxRetries  int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

var DefaultRetryConfig = RetryConfig{
	MaxRetries:  3,
	InitialWait: 500 * time.Millisecond,
	MaxWait:     10 * time.Second,
	Multiplier:  2.0,
}

// Backoff is the pause after the given failed attempt (0-based), capped at
// MaxWait.
func (rc RetryConfig) Backoff(attempt int) time.Duration {
	mult := rc.Multiplier
	if mult < 1 {
		mult = 1
	}
	wait := time.Duration(float64(rc.InitialWait) * math.Pow(mult, float64(attempt)))
	if rc.MaxWait > 0 && wait > rc.MaxWait {
		wait = rc.MaxWait
	}
	return wait
}

// StatusError is returned for throttled or failing captions responses.
type StatusError struct {
	StatusCode int
	RetryAfter time.Duration // from the Retry-After header, if any
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("captions service returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// RetryDo calls fn until it succeeds, fails permanently, or runs out of
// attempts. Only transient network failures and *StatusError are retried.
func RetryDo[T any](
	ctx context.Context,
	rc RetryConfig,
	logger *logging.Logger,
	fn func() (T, error),
) (T, error) {
	var zero T
	if logger == nil {
		logger = logging.Nop()
	}

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		if attempt >= rc.MaxRetries || !transient(err) {
			return zero, err
		}

		wait := rc.Backoff(attempt)
		var se *StatusError
		if errors.As(err, &se) && se.RetryAfter > wait {
			wait = se.RetryAfter
			if rc.MaxWait > 0 && wait > rc.MaxWait {
				wait = rc.MaxWait
			}
		}
		logger.Debugw("Retrying captions request",
			"attempt", attempt+1,
			"wait", wait,
			"error", err,
		)

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		}
	}
}

// RetryHTTP is RetryDo for requests whose response status decides whether
// to try again. Retried responses are closed.
func RetryHTTP(
	ctx context.Context,
	rc RetryConfig,
	logger *logging.Logger,
	fn func() (*http.Response, error),
) (*http.Response, error) {
	return RetryDo(ctx, rc, logger, func() (*http.Response, error) {
		resp, err := fn()
		if err != nil {
			return nil, err
		}
		if !retryableStatus(resp.StatusCode) {
			return resp, nil
		}
		resp.Body.Close()
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	})
}

func transient(err error) bool {
	var se *StatusError
	var dnsErr *net.DNSError
	var opErr *net.OpError
	var netErr net.Error
	switch {
	case errors.As(err, &se), errors.As(err, &dnsErr), errors.As(err, &opErr):
		return true
	case errors.As(err, &netErr):
		return netErr.Timeout()
	default:
		return false
	}
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500 && code <= 504 && code != http.StatusNotImplemented
}

// delay-seconds form only
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
