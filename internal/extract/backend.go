package extract

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Backend turns a document into raw table text. The text is untrusted and
// is expected to go through tables.Parse.
type Backend interface {
	ExtractTables(ctx context.Context, data []byte, mimeType string) (string, error)
	Model() string
}

// ErrEmptyResponse is returned when the backend answered without any text.
var ErrEmptyResponse = errors.New("empty response from AI backend")

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// retryMarkers are substrings of backend errors that signal rate limiting or
// a transient server fault.
var retryMarkers = []string{"quota", "resource_exhausted", "rate limit", "unavailable"}

// apiStatusRe matches the status prefix of Gemini API error messages, e.g.
// "Error 429, Message: ...".
var apiStatusRe = regexp.MustCompile(`(?i)\berror (\d{3})\b`)

// classify wraps err in a RetryableError when it looks transient.
func classify(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	status := statusFromMessage(msg)
	if status == 429 || status >= 500 {
		return &RetryableError{StatusCode: status, Message: msg}
	}
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "429") {
		return &RetryableError{StatusCode: 429, Message: msg}
	}
	for _, m := range retryMarkers {
		if strings.Contains(lower, m) {
			return &RetryableError{StatusCode: status, Message: msg}
		}
	}
	return err
}

func statusFromMessage(msg string) int {
	m := apiStatusRe.FindStringSubmatch(msg)
	if len(m) < 2 {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
