package schedule

import "strings"

// Session is one extracted or user-edited timetable entry. Records arrive as
// untrusted JSON (from the AI extraction service or from client edits) and
// must pass Validate before being converted with SessionFromRaw.
type Session struct {
	Day        string `json:"day"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	CourseCode string `json:"course_code"`
	CourseName string `json:"course_name"`
	ClassType  string `json:"class_type"`
	Location   string `json:"location"`
	Instructor string `json:"instructor,omitempty"`
}

// weekdayIndex is the closed set of accepted days, Monday=1 through Friday=5.
var weekdayIndex = map[string]int{
	"Monday":    1,
	"Tuesday":   2,
	"Wednesday": 3,
	"Thursday":  4,
	"Friday":    5,
}

var angleBrackets = strings.NewReplacer("<", "", ">", "")

// Sanitize trims a free-text field and strips angle brackets so extracted
// text cannot inject markup into calendar fields.
func Sanitize(s string) string {
	return strings.TrimSpace(angleBrackets.Replace(s))
}

// SessionFromRaw converts a decoded JSON record into a Session. Callers must
// run Validate first; fields that are missing or not strings come back empty.
func SessionFromRaw(raw any) Session {
	obj, _ := raw.(map[string]any)
	get := func(key string) string {
		v, _ := obj[key].(string)
		return v
	}
	return Session{
		Day:        get("day"),
		StartTime:  get("start_time"),
		EndTime:    get("end_time"),
		CourseCode: get("course_code"),
		CourseName: get("course_name"),
		ClassType:  get("class_type"),
		Location:   get("location"),
		Instructor: get("instructor"),
	}
}
