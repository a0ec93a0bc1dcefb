package schedule

import (
	"testing"
	"time"
)

func TestProjectDate(t *testing.T) {
	// Wed 2025-01-15 is mid-week; Sun 2025-01-19 ends that same week.
	wednesday := time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)
	sunday := time.Date(2025, 1, 19, 8, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		weekday string
		now     time.Time
		want    time.Time
	}{
		{"same day", "Wednesday", wednesday, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"earlier weekday stays in current week", "Monday", wednesday, time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)},
		{"later weekday", "Friday", wednesday, time.Date(2025, 1, 17, 0, 0, 0, 0, time.UTC)},
		{"sunday rolls back to preceding monday", "Monday", sunday, time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)},
		{"sunday projects into its finished week", "Friday", sunday, time.Date(2025, 1, 17, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ProjectDate(tc.weekday, tc.now)
			if err != nil {
				t.Fatalf("ProjectDate: %v", err)
			}
			if !got.Equal(tc.want) {
				t.Fatalf("ProjectDate(%s, %s) = %s, want %s", tc.weekday, tc.now, got, tc.want)
			}
		})
	}
}

func TestProjectDateUnknownWeekday(t *testing.T) {
	if _, err := ProjectDate("Saturday", time.Now()); err == nil {
		t.Fatal("expected error for weekend day")
	}
}

func TestProjectDateKeepsLocation(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	now := time.Date(2025, 1, 15, 1, 0, 0, 0, loc)
	got, err := ProjectDate("Monday", now)
	if err != nil {
		t.Fatalf("ProjectDate: %v", err)
	}
	if got.Location() != loc {
		t.Fatalf("projected date must stay in the reference location, got %v", got.Location())
	}
	if got.Hour() != 0 || got.Minute() != 0 {
		t.Fatalf("projected date must be at midnight, got %s", got)
	}
}
