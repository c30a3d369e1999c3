package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dgallion1/tabgest/internal/extract"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"retryable", &extract.RetryableError{StatusCode: 429}, true},
		{"wrapped", fmt.Errorf("call: %w", &extract.RetryableError{StatusCode: 503}), true},
		{"plain", errors.New("bad request"), false},
		{"canceled", context.Canceled, false},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestBackoff_Bounds(t *testing.T) {
	for attempt, base := range []time.Duration{time.Second, 2 * time.Second, 4 * time.Second} {
		d := Backoff(attempt)
		if d < base || d >= base+base/2 {
			t.Errorf("Backoff(%d) = %v, want [%v, %v)", attempt, d, base, base+base/2)
		}
	}
	if d := Backoff(40); d < maxBackoff || d >= maxBackoff+maxBackoff/2 {
		t.Errorf("Backoff(40) = %v, want capped at %v", d, maxBackoff)
	}
}
