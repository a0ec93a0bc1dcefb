package schedule

import (
	"fmt"
	"time"
)

// ProjectDate returns the date of the given weekday within the current week
// of now, at midnight in now's location. Weeks run Monday through Sunday, so
// a Sunday reference rolls back to the Monday that started it. The projection
// never advances to next week: a weekday that has already passed this week
// still maps to this week's date, and the recurrence rule carries the event
// forward.
func ProjectDate(weekday string, now time.Time) (time.Time, error) {
	idx, ok := weekdayIndex[weekday]
	if !ok {
		return time.Time{}, fmt.Errorf("unknown weekday %q", weekday)
	}
	daysSinceMonday := (int(now.Weekday()) + 6) % 7
	target := now.AddDate(0, 0, idx-1-daysSinceMonday)
	return time.Date(target.Year(), target.Month(), target.Day(), 0, 0, 0, 0, now.Location()), nil
}
