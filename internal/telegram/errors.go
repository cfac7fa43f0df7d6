package telegram

import (
	"fmt"
	"time"
)

// TransportError is a network or HTTP-level failure talking to the update
// source. Callers retry with backoff and must not advance the cursor.
type TransportError struct {
	Op     string
	Status int // HTTP status when the response was received, 0 otherwise
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("telegram %s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("telegram %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RateLimitError is returned when the source answers 429. Callers wait
// RetryAfter before retrying the same request.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("telegram rate limited, retry after %s", e.RetryAfter)
}
