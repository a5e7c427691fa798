package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Clock is a wall-clock time of day in minutes since midnight, date-free.
type Clock int

func NewClock(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

// ParseClock parses "HH:MM". Windows come from admin configuration, so
// malformed values are rejected at config-load time.
func ParseClock(s string) (Clock, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("clock %q: want HH:MM", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("clock %q: %w", s, err)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("clock %q: %w", s, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("clock %q out of range", s)
	}
	return NewClock(hour, minute), nil
}

// ClockOf truncates a timestamp to its minute of day in its own location.
func ClockOf(t time.Time) Clock {
	return NewClock(t.Hour(), t.Minute())
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// TimeWindow is one configured khung: a start and end time of day. A window
// whose start is later than its end crosses midnight (17:30 -> 10:30).
type TimeWindow struct {
	Start Clock
	End   Clock
}

func (w TimeWindow) CrossesMidnight() bool {
	return w.Start > w.End
}

// Contains reports whether at falls inside the window. The start is
// inclusive, the end exclusive. A cross-midnight window matches on either
// side of midnight: at >= start OR at < end.
func (w TimeWindow) Contains(at Clock) bool {
	if w.CrossesMidnight() {
		return at >= w.Start || at < w.End
	}
	return at >= w.Start && at < w.End
}

func (w TimeWindow) String() string {
	return w.Start.String() + "-" + w.End.String()
}

// ErrNoActiveWindow is returned when no configured window matches the
// current time.
var ErrNoActiveWindow = errors.New("no active window")

// ActiveIndex returns the index of the first window containing at. Windows
// are checked in the caller's order, so when misconfigured windows overlap
// the earliest one wins; the resolver does not validate overlaps.
func ActiveIndex(windows []TimeWindow, at Clock) (int, error) {
	for i, w := range windows {
		if w.Contains(at) {
			return i, nil
		}
	}
	return -1, ErrNoActiveWindow
}
