package dto

// DailyAttendance is the roster of every student for one day.
type DailyAttendance struct {
	Date    string                 `json:"date"`
	Entries []DailyAttendanceEntry `json:"entries"`
}

// DailyAttendanceEntry shows one student's presence. Recorded is false when no
// record exists and Present falls back to absent.
type DailyAttendanceEntry struct {
	StudentID string `json:"student_id"`
	Name      string `json:"name"`
	Present   bool   `json:"present"`
	Recorded  bool   `json:"recorded"`
}

// AttendanceHistoryRow is an attendance record joined with the student name.
type AttendanceHistoryRow struct {
	ID          string `json:"id"`
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
	Date        string `json:"date"`
	Present     bool   `json:"present"`
}
