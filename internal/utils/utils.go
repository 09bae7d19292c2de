package utils

import (
	"context"
	"fmt"
	"strings"
	"time"
)

var newTimer = time.NewTimer

// WaitFor blocks for d or until ctx is done. The timer is stopped on return.
func WaitFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := newTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// TruncateForLog shortens the provided string to the specified limit, appending an ellipsis when truncated.
func TruncateForLog(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// TruncateLines keeps the first limit lines of s. When lines are dropped the
// last kept line is replaced by a marker with the dropped count.
func TruncateLines(s string, limit int) string {
	s = strings.TrimRight(s, "\n")
	if limit <= 0 || s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	kept := lines[:limit-1]
	return strings.Join(kept, "\n") + fmt.Sprintf("\n... (%d more lines)", len(lines)-len(kept))
}
