package repository

import (
	"context"
	"time"

	"github.com/noah-isme/hostel-api/internal/models"
)

// AttendanceRepository manages attendance records keyed by (student, day).
type AttendanceRepository struct {
	store *Store
}

// NewAttendanceRepository constructs an AttendanceRepository.
func NewAttendanceRepository(store *Store) *AttendanceRepository {
	return &AttendanceRepository{store: store}
}

// ListAll returns every record in insertion order.
func (r *AttendanceRepository) ListAll(ctx context.Context) ([]models.AttendanceRecord, error) {
	var records []models.AttendanceRecord
	err := r.store.read(ctx, "attendance.list", func() error {
		records = make([]models.AttendanceRecord, len(r.store.attendance))
		copy(records, r.store.attendance)
		return nil
	})
	return records, err
}

// ListByDate returns the records of one day.
func (r *AttendanceRepository) ListByDate(ctx context.Context, date time.Time) ([]models.AttendanceRecord, error) {
	day := models.Day(date)
	var records []models.AttendanceRecord
	err := r.store.read(ctx, "attendance.list_by_date", func() error {
		for _, rec := range r.store.attendance {
			if rec.Date.Equal(day) {
				records = append(records, rec)
			}
		}
		return nil
	})
	return records, err
}

// Upsert records presence for a student on a day, replacing any existing record.
func (r *AttendanceRepository) Upsert(ctx context.Context, studentID string, date time.Time, present bool) (*models.AttendanceRecord, error) {
	var saved *models.AttendanceRecord
	err := r.store.write(ctx, "attendance.upsert", func() error {
		if r.store.studentIndex(studentID) < 0 {
			return ErrStudentNotFound
		}
		rec := r.store.upsertAttendance(studentID, models.Day(date), present)
		saved = &rec
		return nil
	})
	return saved, err
}

// UpsertMany applies a whole attendance sheet for one day. Either every mark is
// applied or, when any student is unknown, none is.
func (r *AttendanceRepository) UpsertMany(ctx context.Context, date time.Time, marks []models.AttendanceMark) ([]models.AttendanceRecord, error) {
	day := models.Day(date)
	var saved []models.AttendanceRecord
	err := r.store.write(ctx, "attendance.upsert_many", func() error {
		for _, mark := range marks {
			if r.store.studentIndex(mark.StudentID) < 0 {
				return ErrStudentNotFound
			}
		}
		saved = make([]models.AttendanceRecord, 0, len(marks))
		for _, mark := range marks {
			saved = append(saved, r.store.upsertAttendance(mark.StudentID, day, mark.Present))
		}
		return nil
	})
	return saved, err
}

func (s *Store) upsertAttendance(studentID string, day time.Time, present bool) models.AttendanceRecord {
	for i := range s.attendance {
		if s.attendance[i].StudentID == studentID && s.attendance[i].Date.Equal(day) {
			s.attendance[i].Present = present
			return s.attendance[i]
		}
	}
	rec := models.AttendanceRecord{
		ID:        s.newAttendanceID(),
		StudentID: studentID,
		Date:      day,
		Present:   present,
	}
	s.attendance = append(s.attendance, rec)
	return rec
}
