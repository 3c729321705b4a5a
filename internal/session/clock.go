// Package session owns the trading-session calendar: the daily open/close
// window and the lifecycle controller that gates the strategy scheduler.
package session

import (
	"fmt"
	"time"
)

// Window is the daily trading window. Immutable after construction.
type Window struct {
	OpenHour    int
	OpenMinute  int
	CloseHour   int
	CloseMinute int
	Location    *time.Location
	Weekdays    map[time.Weekday]bool
}

// NewWindow builds a validated session window. Weekdays defaults to
// Monday through Friday.
func NewWindow(openHour, openMinute, closeHour, closeMinute int, timezone string) (Window, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return Window{}, fmt.Errorf("load timezone %q: %w", timezone, err)
	}

	open := openHour*60 + openMinute
	close := closeHour*60 + closeMinute
	if open >= close {
		return Window{}, fmt.Errorf("session window: open %02d:%02d not before close %02d:%02d",
			openHour, openMinute, closeHour, closeMinute)
	}

	return Window{
		OpenHour:    openHour,
		OpenMinute:  openMinute,
		CloseHour:   closeHour,
		CloseMinute: closeMinute,
		Location:    loc,
		Weekdays: map[time.Weekday]bool{
			time.Monday:    true,
			time.Tuesday:   true,
			time.Wednesday: true,
			time.Thursday:  true,
			time.Friday:    true,
		},
	}, nil
}

// IsOpen reports whether the market is open at the given instant. Pure
// function of now and the window; both boundaries are inclusive.
func (w Window) IsOpen(now time.Time) bool {
	now = now.In(w.Location)
	if !w.Weekdays[now.Weekday()] {
		return false
	}

	open := time.Date(now.Year(), now.Month(), now.Day(), w.OpenHour, w.OpenMinute, 0, 0, w.Location)
	close := time.Date(now.Year(), now.Month(), now.Day(), w.CloseHour, w.CloseMinute, 0, 0, w.Location)
	return !now.Before(open) && !now.After(close)
}

// Clock evaluates the window against wall-clock time. The time source is
// injectable for tests and never cached: every call re-reads now.
type Clock struct {
	win Window
	now func() time.Time
}

func NewClock(win Window) *Clock {
	return &Clock{win: win, now: time.Now}
}

// WithNow overrides the time source.
func (c *Clock) WithNow(now func() time.Time) *Clock {
	c.now = now
	return c
}

func (c *Clock) Now() time.Time { return c.now().In(c.win.Location) }

func (c *Clock) IsOpen() bool { return c.win.IsOpen(c.now()) }
