package session

import (
	"testing"
	"time"
)

func istWindow(t *testing.T) Window {
	t.Helper()
	win, err := NewWindow(9, 15, 15, 30, "Asia/Kolkata")
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	return win
}

func TestWindowBoundariesInclusive(t *testing.T) {
	win := istWindow(t)
	// Monday 2025-06-02 in Asia/Kolkata.
	cases := []struct {
		name string
		hh   int
		mm   int
		ss   int
		open bool
	}{
		{"before open", 9, 14, 59, false},
		{"exact open", 9, 15, 0, true},
		{"mid session", 12, 0, 0, true},
		{"exact close", 15, 30, 0, true},
		{"after close", 15, 30, 1, false},
		{"early morning", 6, 0, 0, false},
		{"late evening", 20, 0, 0, false},
	}
	for _, tc := range cases {
		now := time.Date(2025, 6, 2, tc.hh, tc.mm, tc.ss, 0, win.Location)
		if got := win.IsOpen(now); got != tc.open {
			t.Errorf("%s: IsOpen(%v) = %v, want %v", tc.name, now, got, tc.open)
		}
	}
}

func TestWindowClosedOnWeekends(t *testing.T) {
	win := istWindow(t)
	saturday := time.Date(2025, 6, 7, 11, 0, 0, 0, win.Location)
	sunday := time.Date(2025, 6, 8, 11, 0, 0, 0, win.Location)
	if win.IsOpen(saturday) {
		t.Errorf("saturday mid-day must be closed")
	}
	if win.IsOpen(sunday) {
		t.Errorf("sunday mid-day must be closed")
	}
}

func TestWindowConvertsForeignTimezones(t *testing.T) {
	win := istWindow(t)
	// 04:30 UTC on a weekday is 10:00 in Asia/Kolkata, inside the session.
	utc := time.Date(2025, 6, 2, 4, 30, 0, 0, time.UTC)
	if !win.IsOpen(utc) {
		t.Errorf("04:30 UTC should map inside the IST session")
	}
	// 15:00 UTC is 20:30 IST, after close.
	utc = time.Date(2025, 6, 2, 15, 0, 0, 0, time.UTC)
	if win.IsOpen(utc) {
		t.Errorf("15:00 UTC should map after the IST close")
	}
}

func TestNewWindowRejectsInvalidInput(t *testing.T) {
	if _, err := NewWindow(9, 15, 15, 30, "Not/AZone"); err == nil {
		t.Errorf("unknown timezone must be rejected")
	}
	if _, err := NewWindow(15, 30, 9, 15, "Asia/Kolkata"); err == nil {
		t.Errorf("open after close must be rejected")
	}
	if _, err := NewWindow(9, 15, 9, 15, "Asia/Kolkata"); err == nil {
		t.Errorf("zero-length window must be rejected")
	}
}

func TestClockUsesInjectedTimeSource(t *testing.T) {
	win := istWindow(t)
	inside := time.Date(2025, 6, 3, 10, 0, 0, 0, win.Location)
	clock := NewClock(win).WithNow(func() time.Time { return inside })
	if !clock.IsOpen() {
		t.Fatalf("clock must be open at the injected instant")
	}

	outside := time.Date(2025, 6, 3, 16, 0, 0, 0, win.Location)
	clock.WithNow(func() time.Time { return outside })
	if clock.IsOpen() {
		t.Fatalf("clock must be closed at the injected instant")
	}
}
