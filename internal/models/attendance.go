package models

import "time"

// DateLayout is the wire format for day-granularity dates.
const DateLayout = "2006-01-02"

// AttendanceRecord is a student's presence on one day. (StudentID, Date) is unique.
type AttendanceRecord struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	Date      time.Time `json:"date"`
	Present   bool      `json:"present"`
}

// AttendanceFilterAll matches every student in history queries.
const AttendanceFilterAll = "all"

// AttendanceHistoryFilter selects records for the history view. Nil bounds are open.
type AttendanceHistoryFilter struct {
	StudentID string
	StartDate *time.Time
	EndDate   *time.Time
}

// AttendanceMark is one entry of a bulk attendance sheet.
type AttendanceMark struct {
	StudentID string `json:"student_id" validate:"required"`
	Present   bool   `json:"present"`
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD string into a UTC day.
func ParseDay(raw string) (time.Time, error) {
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, err
	}
	return Day(t), nil
}
