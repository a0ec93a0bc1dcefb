package schedule

import (
	"fmt"
	"strings"
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

// Google Calendar colorId values, one per class type.
const (
	colorLecture  = "9"  // blueberry
	colorTutorial = "10" // basil
	colorLab      = "6"  // tangerine
	colorOther    = "8"  // graphite
)

// ColorID maps a free-text class type onto a calendar color by
// case-insensitive substring match.
func ColorID(classType string) string {
	t := strings.ToLower(classType)
	switch {
	case strings.Contains(t, "lecture"):
		return colorLecture
	case strings.Contains(t, "tutorial"):
		return colorTutorial
	case strings.Contains(t, "lab"):
		return colorLab
	default:
		return colorOther
	}
}

// EventOptions fixes the calendar-wide settings every built event shares.
type EventOptions struct {
	// Location is the IANA zone the timetable's wall-clock times are read in.
	Location *time.Location
	// TermEnd is the last day of the academic term, inclusive. Weekly
	// recurrence stops there.
	TermEnd time.Time
}

// BuildEvent converts a validated session and its projected date into a
// Google Calendar event payload. Free-text fields are sanitized, start/end
// are the session's wall-clock times in opts.Location on the projected date,
// and recurrence is a single weekly RRULE with an UNTIL cutoff at term end.
func BuildEvent(s Session, date time.Time, opts EventOptions) (*calendar.Event, error) {
	start := ParseClock(s.StartTime)
	if !start.Valid {
		return nil, fmt.Errorf("invalid start time %q", s.StartTime)
	}
	end := ParseClock(s.EndTime)
	if !end.Valid {
		return nil, fmt.Errorf("invalid end time %q", s.EndTime)
	}

	startAt := time.Date(date.Year(), date.Month(), date.Day(), start.Hour, start.Minute, 0, 0, opts.Location)
	endAt := time.Date(date.Year(), date.Month(), date.Day(), end.Hour, end.Minute, 0, 0, opts.Location)

	until := time.Date(opts.TermEnd.Year(), opts.TermEnd.Month(), opts.TermEnd.Day(), 23, 59, 59, 0, time.UTC)
	recurrence := "RRULE:FREQ=WEEKLY;UNTIL=" + until.Format("20060102T150405Z")

	return &calendar.Event{
		Summary:     fmt.Sprintf("%s - %s", Sanitize(s.CourseCode), Sanitize(s.CourseName)),
		Description: fmt.Sprintf("Class Type: %s\nInstructor: %s", Sanitize(s.ClassType), Sanitize(s.Instructor)),
		Location:    Sanitize(s.Location),
		ColorId:     ColorID(s.ClassType),
		Start: &calendar.EventDateTime{
			DateTime: startAt.Format(time.RFC3339),
			TimeZone: opts.Location.String(),
		},
		End: &calendar.EventDateTime{
			DateTime: endAt.Format(time.RFC3339),
			TimeZone: opts.Location.String(),
		},
		Recurrence: []string{recurrence},
	}, nil
}
