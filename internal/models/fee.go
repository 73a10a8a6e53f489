package models

import "time"

// FeeStatus is the binary payment state of a fee.
type FeeStatus string

const (
	FeeStatusPaid FeeStatus = "Paid"
	FeeStatusDue  FeeStatus = "Due"
)

// Valid reports whether the status is a known value.
func (s FeeStatus) Valid() bool {
	return s == FeeStatusPaid || s == FeeStatusDue
}

// FeeFilterAll selects fees regardless of status.
const FeeFilterAll = "All"

// Fee is an amount owed by a student.
type Fee struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	Amount    float64   `json:"amount"`
	Status    FeeStatus `json:"status"`
	DueDate   time.Time `json:"due_date"`
}

// FeeDetail joins a fee with the owning student's name.
type FeeDetail struct {
	Fee
	StudentName string `json:"student_name"`
}
