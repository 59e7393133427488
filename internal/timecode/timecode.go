package timecode

import (
	"fmt"
	"strconv"
	"strings"
)

// TimeCode is a non-negative offset into a media item, in whole seconds.
// The zero value is 0:00.
type TimeCode struct {
	seconds int
}

// Parse accepts "MM:SS" (minutes 0-999) or "HH:MM:SS" (hours 0-23).
// Anything else is an error; callers generally treat a failure as
// "this token is not a timecode" rather than surfacing it.
func Parse(s string) (TimeCode, error) {
	parts := strings.Split(s, ":")
	switch len(parts) {
	case 2:
		m, err1 := strconv.Atoi(parts[0])
		sec, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil {
			return TimeCode{}, fmt.Errorf("timecode %q: non-numeric part", s)
		}
		if m < 0 || m > 999 || sec < 0 || sec > 59 {
			return TimeCode{}, fmt.Errorf("timecode %q: out of range", s)
		}
		return TimeCode{seconds: m*60 + sec}, nil
	case 3:
		h, err1 := strconv.Atoi(parts[0])
		m, err2 := strconv.Atoi(parts[1])
		sec, err3 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil || err3 != nil {
			return TimeCode{}, fmt.Errorf("timecode %q: non-numeric part", s)
		}
		if h < 0 || h > 23 || m < 0 || m > 59 || sec < 0 || sec > 59 {
			return TimeCode{}, fmt.Errorf("timecode %q: out of range", s)
		}
		return TimeCode{seconds: h*3600 + m*60 + sec}, nil
	default:
		return TimeCode{}, fmt.Errorf("timecode %q: want MM:SS or HH:MM:SS", s)
	}
}

// Valid reports whether s parses as a timecode.
func Valid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// FromSeconds builds a TimeCode from a second count. Negative values clamp to 0.
func FromSeconds(sec int) TimeCode {
	if sec < 0 {
		sec = 0
	}
	return TimeCode{seconds: sec}
}

func (t TimeCode) Seconds() int { return t.seconds }

// String renders the canonical M:SS form. Minutes are unbounded and not
// zero-padded, so 4200 seconds comes out as "70:00".
func (t TimeCode) String() string {
	return Format(t.seconds)
}

// Format renders a second count as M:SS.
func Format(sec int) string {
	if sec < 0 {
		sec = 0
	}
	return fmt.Sprintf("%d:%02d", sec/60, sec%60)
}

// Pretty renders a second count the way players display it: H:MM:SS when
// an hour or more, M:SS otherwise.
func Pretty(sec int) string {
	if sec < 0 {
		sec = 0
	}
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
