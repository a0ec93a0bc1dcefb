package schedule

import (
	"fmt"
	"strings"
)

// Result carries the outcome of validating one session record.
type Result struct {
	Valid  bool
	Errors []string
}

var requiredFields = []string{
	"day",
	"start_time",
	"end_time",
	"course_code",
	"course_name",
	"class_type",
	"location",
}

// Validate checks one untrusted record (decoded JSON) against the session
// shape. Field checks are independent so errors accumulate; the start/end
// ordering check only runs when both times parsed, to avoid piling a
// misleading ordering error on top of a format error.
func Validate(raw any) Result {
	obj, ok := raw.(map[string]any)
	if !ok || obj == nil {
		return Result{Errors: []string{"class entry must be an object"}}
	}

	var errs []string
	for _, field := range requiredFields {
		v, present := obj[field]
		if !present {
			errs = append(errs, "missing required field: "+field)
			continue
		}
		s, isString := v.(string)
		if !isString || strings.TrimSpace(s) == "" {
			errs = append(errs, "field must be a non-empty string: "+field)
		}
	}

	if day, isString := obj["day"].(string); isString && strings.TrimSpace(day) != "" {
		if _, known := weekdayIndex[day]; !known {
			errs = append(errs, fmt.Sprintf("invalid day: %q (must be Monday through Friday)", day))
		}
	}

	startRaw, startIsString := obj["start_time"].(string)
	endRaw, endIsString := obj["end_time"].(string)
	start := Clock{}
	end := Clock{}
	if startIsString {
		start = ParseClock(startRaw)
		if !start.Valid {
			errs = append(errs, fmt.Sprintf("invalid start time format: %q", startRaw))
		}
	}
	if endIsString {
		end = ParseClock(endRaw)
		if !end.Valid {
			errs = append(errs, fmt.Sprintf("invalid end time format: %q", endRaw))
		}
	}

	if start.Valid && end.Valid {
		if end.MinuteOfDay() <= start.MinuteOfDay() || strings.EqualFold(strings.TrimSpace(startRaw), strings.TrimSpace(endRaw)) {
			errs = append(errs, "end time must be after start time")
		}
	}

	return Result{Valid: len(errs) == 0, Errors: errs}
}
