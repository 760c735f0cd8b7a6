// Package timeslot holds the wall-clock window arithmetic used for availability and booking.
package timeslot

import (
	"errors"
	"sort"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

var (
	ErrInvalidClock = errors.New("invalid time of day, expected HH:MM")
	ErrInvalidDate  = errors.New("invalid date, expected YYYY-MM-DD")
)

// clock layouts accepted from requests and from postgres time columns
var clockLayouts = []string{"15:04:05.999999999", "15:04"}

// ParseClock converts an HH:MM[:SS[.ffffff]] time of day into an offset from midnight
func ParseClock(s string) (time.Duration, error) {
	for _, layout := range clockLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		return time.Duration(t.Hour())*time.Hour +
			time.Duration(t.Minute())*time.Minute +
			time.Duration(t.Second())*time.Second +
			time.Duration(t.Nanosecond()), nil
	}
	return 0, ErrInvalidClock
}

// FormatClock renders an offset from midnight as HH:MM
func FormatClock(d time.Duration) string {
	return time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC).Add(d).Format(ClockLayout)
}

// NormalizeClock rewrites any accepted clock string into HH:MM:SS for storage
func NormalizeClock(s string) (string, error) {
	d, err := ParseClock(s)
	if err != nil {
		return "", err
	}
	return time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC).Add(d).Format("15:04:05"), nil
}

// ParseDate parses a calendar date at midnight in loc
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// On anchors a time-of-day offset to the calendar day of date as a wall clock
// reading in loc, so DST transitions do not shift it.
func On(date time.Time, offset time.Duration, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := date.Date()
	hour := offset / time.Hour
	offset -= hour * time.Hour
	minute := offset / time.Minute
	offset -= minute * time.Minute
	sec := offset / time.Second
	offset -= sec * time.Second
	return time.Date(y, m, d, int(hour), int(minute), int(sec), int(offset), loc)
}

// Window is a half-open [Start, End) interval
type Window struct {
	Start time.Time
	End   time.Time
}

// Build anchors a start/end clock pair onto date
func Build(date time.Time, start, end string, loc *time.Location) (Window, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Window{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Window{}, err
	}
	return Window{Start: On(date, s, loc), End: On(date, e, loc)}, nil
}

func (w Window) Valid() bool {
	return w.End.After(w.Start)
}

func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Overlaps reports whether the two half-open windows share any instant
func (w Window) Overlaps(o Window) bool {
	return w.Start.Before(o.End) && o.Start.Before(w.End)
}

// Contains reports whether o lies entirely within w
func (w Window) Contains(o Window) bool {
	return !o.Start.Before(w.Start) && !o.End.After(w.End)
}

// Merge coalesces overlapping or touching windows into disjoint windows
// ordered by start. Invalid windows are dropped.
func Merge(windows []Window) []Window {
	sorted := make([]Window, 0, len(windows))
	for _, w := range windows {
		if w.Valid() {
			sorted = append(sorted, w)
		}
	}
	sortByStart(sorted)

	var out []Window
	for _, w := range sorted {
		if n := len(out); n > 0 && !w.Start.After(out[n-1].End) {
			if w.End.After(out[n-1].End) {
				out[n-1].End = w.End
			}
			continue
		}
		out = append(out, w)
	}
	return out
}

// Subtract removes every busy window from the free windows and returns the
// remainders ordered by start. Overlapping free windows are merged first.
func Subtract(free, busy []Window) []Window {
	sortedBusy := make([]Window, len(busy))
	copy(sortedBusy, busy)
	sortByStart(sortedBusy)

	var out []Window
	for _, f := range Merge(free) {
		cursor := f.Start
		for _, b := range sortedBusy {
			if !cursor.Before(f.End) {
				break
			}
			if !b.End.After(cursor) || !b.Start.Before(f.End) {
				continue
			}
			if b.Start.After(cursor) {
				out = append(out, Window{Start: cursor, End: b.Start})
			}
			cursor = b.End
		}
		if cursor.Before(f.End) {
			out = append(out, Window{Start: cursor, End: f.End})
		}
	}
	sortByStart(out)
	return out
}

// Slice cuts each window into consecutive fixed-size slots. Leftovers shorter
// than size are dropped.
func Slice(windows []Window, size time.Duration) []Window {
	if size <= 0 {
		return nil
	}
	var out []Window
	for _, w := range windows {
		for s := w.Start; !s.Add(size).After(w.End); s = s.Add(size) {
			out = append(out, Window{Start: s, End: s.Add(size)})
		}
	}
	return out
}

func sortByStart(ws []Window) {
	sort.Slice(ws, func(i, j int) bool {
		return ws[i].Start.Before(ws[j].Start)
	})
}
