package callqueue

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrClosed is returned for calls submitted to a stopped queue.
var ErrClosed = errors.New("call queue closed")

// RateLimitError marks a provider rate-limiting signal. Calls failing with it
// are eligible for re-queueing with backoff.
type RateLimitError struct {
	RetryAfter time.Duration
	Err        error
}

func (e RateLimitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("rate limited: %v", e.Err)
	}
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

func (e RateLimitError) Unwrap() error { return e.Err }

// ExhaustedError wraps the last failure after the retry budget ran out.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e ExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Err)
}

func (e ExhaustedError) Unwrap() error { return e.Err }

var rateLimitSignatures = []string{
	"rate limit",
	"too many requests",
	"daily limit",
	"429",
	"-32005", // common JSON-RPC limit-exceeded code
}

// IsRateLimited classifies an error as a provider rate-limiting failure,
// either by type or by message signature.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	var rle RateLimitError
	if errors.As(err, &rle) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, sig := range rateLimitSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}
