package utils

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestWaitFor(t *testing.T) {
	var requested time.Duration
	orig := newTimer
	newTimer = func(d time.Duration) *time.Timer {
		requested = d
		return orig(time.Millisecond)
	}
	t.Cleanup(func() { newTimer = orig })

	if err := WaitFor(context.Background(), time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if requested != time.Second {
		t.Fatalf("expected a 1s timer, got %s", requested)
	}

	requested = 0
	if err := WaitFor(context.Background(), 0); err != nil {
		t.Fatalf("unexpected error for zero duration: %v", err)
	}
	if requested != 0 {
		t.Fatalf("expected no timer for zero duration, got %s", requested)
	}
}

func TestWaitForCancelledStopsTimer(t *testing.T) {
	var timer *time.Timer
	orig := newTimer
	newTimer = func(d time.Duration) *time.Timer {
		timer = orig(d)
		return timer
	}
	t.Cleanup(func() { newTimer = orig })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := WaitFor(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if timer == nil {
		t.Fatal("expected a timer to be created")
	}
	if timer.Stop() {
		t.Fatal("expected the timer to be stopped when WaitFor returned")
	}
}

func TestTruncateLines(t *testing.T) {
	var b strings.Builder
	b.WriteString("first\n")
	for i := 0; i < 29; i++ {
		b.WriteString("line\n")
	}

	got := TruncateLines(b.String(), 20)
	lines := strings.Split(got, "\n")
	if len(lines) != 20 {
		t.Fatalf("expected 20 lines, got %d", len(lines))
	}
	if lines[0] != "first" {
		t.Fatalf("expected head to be kept, got %q", lines[0])
	}
	if lines[19] != "... (11 more lines)" {
		t.Fatalf("unexpected marker %q", lines[19])
	}

	if got := TruncateLines("a\nb", 20); got != "a\nb" {
		t.Fatalf("expected short input unchanged, got %q", got)
	}
	if got := TruncateLines("a", 0); got != "" {
		t.Fatalf("expected empty output for zero limit, got %q", got)
	}
}

func TestTruncateForLog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		limit  int
		expect string
	}{
		{name: "non-positive limit", input: "resume text", limit: 0, expect: ""},
		{name: "fits", input: "resume", limit: 10, expect: "resume"},
		{name: "cut with ellipsis", input: "Experienced data engineer", limit: 11, expect: "Experienced..."},
		{name: "trims before cutting", input: "  \n python  ", limit: 3, expect: "pyt..."},
		{name: "counts runes", input: "Zürich office", limit: 6, expect: "Zürich..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TruncateForLog(tt.input, tt.limit); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}
