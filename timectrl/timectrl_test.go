package timectrl

import (
	"testing"
	"time"
)

func TestControllerSetTime(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	tc := NewController(start)

	newNow := start.Add(42 * time.Second)
	tc.SetTime(newNow)

	if got := tc.Now(); !got.Equal(newNow) {
		t.Fatalf("Now() = %v, want %v", got, newNow)
	}
}

func TestControllerAdvance(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	tc := NewController(start)

	if got := tc.Advance(90 * time.Minute); !got.Equal(start.Add(90 * time.Minute)) {
		t.Fatalf("Advance() = %v", got)
	}
	if got := tc.Now(); !got.Equal(start.Add(90 * time.Minute)) {
		t.Fatalf("Now() = %v", got)
	}
}

func TestOrFallsBackToSystem(t *testing.T) {
	before := time.Now()
	got := Or(nil).Now()
	if got.Before(before) {
		t.Fatalf("Or(nil).Now() = %v, earlier than %v", got, before)
	}

	fixed := NewController(time.Unix(0, 0))
	if Or(fixed) != Clock(fixed) {
		t.Fatalf("Or(c) should return c")
	}
}
