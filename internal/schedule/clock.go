package schedule

import (
	"strconv"
	"strings"
)

// Clock is a parsed wall-clock time of day. When Valid is false the Hour and
// Minute fields are zero and must not be read as midnight.
type Clock struct {
	Hour   int
	Minute int
	Valid  bool
}

// MinuteOfDay returns the minutes elapsed since midnight.
func (c Clock) MinuteOfDay() int { return c.Hour*60 + c.Minute }

// ParseClock parses a timetable time string. Two forms are accepted: 12-hour
// with an am/pm marker ("9:00AM", "12:30 pm") and 24-hour ("14:00"). Inputs
// containing an am/pm marker are always treated as 12-hour, so "14:00PM" is
// rejected. Parsing never panics; malformed input yields Valid=false.
func ParseClock(raw string) Clock {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return Clock{}
	}

	meridiem := ""
	if strings.Contains(s, "am") {
		meridiem = "am"
	} else if strings.Contains(s, "pm") {
		meridiem = "pm"
	}

	if meridiem != "" {
		idx := strings.Index(s, meridiem)
		if strings.TrimSpace(s[idx+len(meridiem):]) != "" {
			return Clock{}
		}
		hour, minute, ok := splitHourMinute(s[:idx])
		if !ok || hour < 1 || hour > 12 || minute < 0 || minute > 59 {
			return Clock{}
		}
		if meridiem == "pm" && hour != 12 {
			hour += 12
		}
		if meridiem == "am" && hour == 12 {
			hour = 0
		}
		return Clock{Hour: hour, Minute: minute, Valid: true}
	}

	hour, minute, ok := splitHourMinute(s)
	if !ok || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return Clock{}
	}
	return Clock{Hour: hour, Minute: minute, Valid: true}
}

func splitHourMinute(s string) (int, int, bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, false
	}
	hour, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, false
	}
	minute, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, false
	}
	return hour, minute, true
}
