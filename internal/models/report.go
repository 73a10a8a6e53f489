package models

import "time"

// ReportKind identifies one of the CSV report projections.
type ReportKind string

const (
	ReportStudents      ReportKind = "students"
	ReportFeesDue       ReportKind = "fees-due"
	ReportRoomOccupancy ReportKind = "room-occupancy"
)

// Valid reports whether the kind is known.
func (k ReportKind) Valid() bool {
	switch k {
	case ReportStudents, ReportFeesDue, ReportRoomOccupancy:
		return true
	}
	return false
}

// BaseFilename is the download name without extension.
func (k ReportKind) BaseFilename() string {
	switch k {
	case ReportStudents:
		return "hostel_students"
	case ReportFeesDue:
		return "fee_due_report"
	case ReportRoomOccupancy:
		return "room_occupancy_report"
	}
	return string(k)
}

// Title is the human readable report name.
func (k ReportKind) Title() string {
	switch k {
	case ReportStudents:
		return "Hostel Students"
	case ReportFeesDue:
		return "Fee Due Report"
	case ReportRoomOccupancy:
		return "Room Occupancy Report"
	}
	return string(k)
}

// StoredExport describes a report saved to storage behind a signed link.
type StoredExport struct {
	ID        string     `json:"id"`
	Kind      ReportKind `json:"kind"`
	Format    string     `json:"format"`
	Filename  string     `json:"filename"`
	URL       string     `json:"url"`
	ExpiresAt time.Time  `json:"expires_at"`
}
