package garmin

import (
	"errors"
	"fmt"
	"strings"
)

// ThrottledError is the typed rate-limit signal. The adapter returns it for
// HTTP 429 responses so callers do not have to rely on message text.
type ThrottledError struct {
	Status  int
	Message string
}

func (e *ThrottledError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = "too many requests"
	}
	return fmt.Sprintf("garmin: rate limited (%d): %s", e.Status, msg)
}

// IsThrottled reports whether err is a rate-limit signal. The typed error is
// checked first; the message-text heuristics remain as a fallback because
// upstream wrapper versions surfaced throttling only in error strings.
func IsThrottled(err error) bool {
	if err == nil {
		return false
	}
	var throttled *ThrottledError
	if errors.As(err, &throttled) {
		return true
	}
	text := strings.ToLower(err.Error())
	return strings.Contains(text, "toomanyrequests") ||
		strings.Contains(text, "too many requests") ||
		strings.Contains(text, "429") ||
		strings.Contains(text, "rate limit")
}
