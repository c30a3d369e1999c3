package pipeline

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/dgallion1/tabgest/internal/extract"
)

// MaxRetries is the number of backend calls made for one document.
const MaxRetries = 3

const maxBackoff = 30 * time.Second

// IsRetryable reports whether a backend error is transient. Cancellation is
// never retried.
func IsRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var retryErr *extract.RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns the wait before retry attempt n (0-indexed): 1s doubling up
// to 30s, plus up to 50% jitter.
func Backoff(attempt int) time.Duration {
	base := maxBackoff
	if attempt < 5 {
		base = min(time.Duration(1<<attempt)*time.Second, maxBackoff)
	}
	return base + time.Duration(rand.Int64N(int64(base)/2))
}
