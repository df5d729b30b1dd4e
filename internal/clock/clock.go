// Package clock parses the "H:MM AM/PM" clock strings the siege tables use
// and answers the time questions the bot asks about them.
package clock

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Time is a wall-clock time parsed from an "H:MM AM/PM" string. PM times keep
// the tables' additive-hour convention: "8:00 PM" is hour 20 and "12:00 PM"
// is hour 24. The hour is never wrapped back into 0..23.
type Time struct {
	Hour   int
	Minute int
}

// Parse parses strings of the exact shape "H:MM AM" or "H:MM PM". Anything
// else is an error.
func Parse(s string) (Time, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return Time{}, fmt.Errorf("clock: malformed time %q", s)
	}

	hm := strings.SplitN(fields[0], ":", 2)
	if len(hm) != 2 {
		return Time{}, fmt.Errorf("clock: malformed time %q", s)
	}
	hour, err := strconv.Atoi(hm[0])
	if err != nil {
		return Time{}, fmt.Errorf("clock: bad hour in %q", s)
	}
	minute, err := strconv.Atoi(hm[1])
	if err != nil {
		return Time{}, fmt.Errorf("clock: bad minute in %q", s)
	}

	switch fields[1] {
	case "AM":
	case "PM":
		hour += 12
	default:
		return Time{}, fmt.Errorf("clock: bad meridiem in %q", s)
	}

	return Time{Hour: hour, Minute: minute}, nil
}

// Valid reports whether t carries values the comparison helpers accept.
// Hour 24 is valid; see the PM convention on Time.
func (t Time) Valid() bool {
	return t.Hour >= 1 && t.Hour <= 24 && t.Minute >= 0 && t.Minute <= 59
}

// at anchors t on now's calendar date. Hour 24 rolls into the following
// midnight, which keeps comparisons consistent with the additive convention.
func (t Time) at(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), t.Hour, t.Minute, 0, 0, now.Location())
}

// InFuture reports whether t, taken on now's date, is strictly later than
// now. Invalid times are never in the future.
func (t Time) InFuture(now time.Time) bool {
	if !t.Valid() {
		return false
	}
	return t.at(now).After(now)
}

// Until renders the time remaining from now until t as "<H>h<M>m". The
// minute component rounds up to the next whole minute; a rounded 60 carries
// into the hour, so a 59m31s remainder renders "1h0m" rather than "0h60m".
func (t Time) Until(now time.Time) string {
	d := t.at(now).Sub(now)
	if d < 0 {
		d = 0
	}

	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	if d%time.Minute != 0 {
		m++
	}
	if m == 60 {
		h++
		m = 0
	}
	return fmt.Sprintf("%dh%dm", h, m)
}

// Before orders two clock times chronologically. Ordering compares parsed
// hour and minute values, never the raw strings, so "11:00 AM" sorts ahead
// of "1:00 PM".
func (t Time) Before(o Time) bool {
	if t.Hour != o.Hour {
		return t.Hour < o.Hour
	}
	return t.Minute < o.Minute
}
