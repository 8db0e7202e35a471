// Package timerange holds the half-open interval logic every conflict
// decision in the engine routes through, plus the clock-of-day value type
// shared by availability windows and appointments.
package timerange

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// Clock is a time of day with minute precision, independent of any calendar
// date. The zero value is midnight.
type Clock struct {
	offset time.Duration
}

// NewClock builds a Clock from a 24-hour clock reading.
func NewClock(hour, minute int) Clock {
	return Clock{offset: time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute}
}

// ParseClock accepts "15:04" or "15:04:05".
func ParseClock(s string) (Clock, error) {
	layout := "15:04"
	if strings.Count(s, ":") == 2 {
		layout = "15:04:05"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return Clock{}, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	return NewClock(t.Hour(), t.Minute()), nil
}

func (c Clock) Hour() int   { return int(c.offset / time.Hour) }
func (c Clock) Minute() int { return int(c.offset % time.Hour / time.Minute) }

// Add returns the clock shifted forward by d.
func (c Clock) Add(d time.Duration) Clock { return Clock{offset: c.offset + d} }

// Sub returns the duration from o to c.
func (c Clock) Sub(o Clock) time.Duration { return c.offset - o.offset }

func (c Clock) Before(o Clock) bool { return c.offset < o.offset }
func (c Clock) After(o Clock) bool  { return c.offset > o.offset }
func (c Clock) Equal(o Clock) bool  { return c.offset == o.offset }

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// Format12Hour renders the clock on a 12-hour dial: midnight is "12:00 AM",
// noon is "12:00 PM".
func (c Clock) Format12Hour() string {
	hour := c.Hour()
	period := "AM"
	if hour >= 12 {
		period = "PM"
	}
	if hour > 12 {
		hour -= 12
	} else if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%02d:%02d %s", hour, c.Minute(), period)
}

func (c Clock) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

func (c *Clock) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Value stores the clock as a postgres TIME literal.
func (c Clock) Value() (driver.Value, error) {
	return fmt.Sprintf("%02d:%02d:00", c.Hour(), c.Minute()), nil
}

// Scan reads TIME columns, which lib/pq hands back as raw bytes.
func (c *Clock) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		*c = NewClock(v.Hour(), v.Minute())
		return nil
	case []byte:
		return c.scanString(string(v))
	case string:
		return c.scanString(v)
	case nil:
		*c = Clock{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Clock", src)
	}
}

func (c *Clock) scanString(s string) error {
	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// FormatRange renders a slot for display, e.g. "09:00 AM - 09:25 AM".
func FormatRange(start, end Clock) string {
	return fmt.Sprintf("%s - %s", start.Format12Hour(), end.Format12Hour())
}

// IsValid reports whether start strictly precedes end.
func IsValid(start, end Clock) bool {
	return start.Before(end)
}

// MeetsMinimumDuration reports whether [start, end) lasts at least min.
func MeetsMinimumDuration(start, end Clock, min time.Duration) bool {
	return !start.Add(min).After(end)
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) share an instant. Touching endpoints do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd Clock) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
