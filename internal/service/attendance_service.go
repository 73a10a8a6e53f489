package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/hostel-api/internal/dto"
	"github.com/noah-isme/hostel-api/internal/models"
	appErrors "github.com/noah-isme/hostel-api/pkg/errors"
)

type attendanceRepository interface {
	ListAll(ctx context.Context) ([]models.AttendanceRecord, error)
	ListByDate(ctx context.Context, date time.Time) ([]models.AttendanceRecord, error)
	Upsert(ctx context.Context, studentID string, date time.Time, present bool) (*models.AttendanceRecord, error)
	UpsertMany(ctx context.Context, date time.Time, marks []models.AttendanceMark) ([]models.AttendanceRecord, error)
}

// MarkAttendanceRequest records one student's presence. Date defaults to today.
type MarkAttendanceRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	Date      string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Present   *bool  `json:"present" validate:"required"`
}

// BulkAttendanceRequest saves a whole daily sheet.
type BulkAttendanceRequest struct {
	Date    string                  `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Entries []models.AttendanceMark `json:"entries" validate:"required,min=1,dive"`
}

// AttendanceHistoryQuery filters the history view. A nil EndDate means "today";
// an empty one leaves the range open.
type AttendanceHistoryQuery struct {
	StudentID string
	StartDate string
	EndDate   *string
}

// AttendanceService handles marking and the daily and history views.
type AttendanceService struct {
	records   attendanceRepository
	students  studentDirectory
	cache     cacheInvalidator
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAttendanceService constructs an AttendanceService.
func NewAttendanceService(records attendanceRepository, students studentDirectory, cache cacheInvalidator, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{
		records:   records,
		students:  students,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// Mark upserts the record for (student, date).
func (s *AttendanceService) Mark(ctx context.Context, req MarkAttendanceRequest) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	day, err := s.dayOrToday(req.Date)
	if err != nil {
		return nil, err
	}
	record, err := s.records.Upsert(ctx, req.StudentID, day, *req.Present)
	if err != nil {
		return nil, translateStoreError(err, "failed to mark attendance")
	}
	s.metrics.RecordAttendanceMarks(1)
	invalidateDashboard(ctx, s.cache)
	return record, nil
}

// MarkBulk upserts every entry of the sheet in one store transaction.
func (s *AttendanceService) MarkBulk(ctx context.Context, req BulkAttendanceRequest) ([]models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance sheet")
	}
	day, err := s.dayOrToday(req.Date)
	if err != nil {
		return nil, err
	}
	saved, err := s.records.UpsertMany(ctx, day, req.Entries)
	if err != nil {
		return nil, translateStoreError(err, "failed to save attendance sheet")
	}
	s.metrics.RecordAttendanceMarks(len(saved))
	invalidateDashboard(ctx, s.cache)
	s.logger.Info("attendance sheet saved", zap.String("date", day.Format(models.DateLayout)), zap.Int("entries", len(saved)))
	return saved, nil
}

// Daily returns every student with their presence on the given day. Students
// without a record are reported absent and not recorded; nothing is persisted.
func (s *AttendanceService) Daily(ctx context.Context, date string) (*dto.DailyAttendance, error) {
	day, err := s.dayOrToday(date)
	if err != nil {
		return nil, err
	}

	var (
		students []models.Student
		records  []models.AttendanceRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		students, err = s.students.All(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		records, err = s.records.ListByDate(gctx, day)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, translateStoreError(err, "failed to load attendance")
	}

	byStudent := make(map[string]bool, len(records))
	for _, rec := range records {
		byStudent[rec.StudentID] = rec.Present
	}
	sheet := &dto.DailyAttendance{Date: day.Format(models.DateLayout), Entries: make([]dto.DailyAttendanceEntry, 0, len(students))}
	for _, st := range students {
		present, recorded := byStudent[st.ID]
		sheet.Entries = append(sheet.Entries, dto.DailyAttendanceEntry{
			StudentID: st.ID,
			Name:      st.Name,
			Present:   present,
			Recorded:  recorded,
		})
	}
	return sheet, nil
}

// History filters records by student and inclusive day range, newest first.
// Records on the same day keep insertion order.
func (s *AttendanceService) History(ctx context.Context, query AttendanceHistoryQuery) ([]dto.AttendanceHistoryRow, error) {
	filter, err := s.historyFilter(query)
	if err != nil {
		return nil, err
	}

	var (
		students []models.Student
		records  []models.AttendanceRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		students, err = s.students.All(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		records, err = s.records.ListAll(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, translateStoreError(err, "failed to load attendance history")
	}

	matched := make([]models.AttendanceRecord, 0, len(records))
	for _, rec := range records {
		if filter.StudentID != "" && rec.StudentID != filter.StudentID {
			continue
		}
		if filter.StartDate != nil && rec.Date.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && rec.Date.After(*filter.EndDate) {
			continue
		}
		matched = append(matched, rec)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Date.After(matched[j].Date)
	})

	names := studentNames(students)
	rows := make([]dto.AttendanceHistoryRow, 0, len(matched))
	for _, rec := range matched {
		rows = append(rows, dto.AttendanceHistoryRow{
			ID:          rec.ID,
			StudentID:   rec.StudentID,
			StudentName: nameOrNA(names, rec.StudentID),
			Date:        rec.Date.Format(models.DateLayout),
			Present:     rec.Present,
		})
	}
	return rows, nil
}

func (s *AttendanceService) historyFilter(query AttendanceHistoryQuery) (models.AttendanceHistoryFilter, error) {
	filter := models.AttendanceHistoryFilter{StudentID: strings.TrimSpace(query.StudentID)}
	if strings.EqualFold(filter.StudentID, models.AttendanceFilterAll) {
		filter.StudentID = ""
	}
	if query.StartDate != "" {
		start, err := parseDayParam("start_date", query.StartDate)
		if err != nil {
			return filter, err
		}
		filter.StartDate = &start
	}
	switch {
	case query.EndDate == nil:
		today := models.Day(s.now())
		filter.EndDate = &today
	case *query.EndDate != "":
		end, err := parseDayParam("end_date", *query.EndDate)
		if err != nil {
			return filter, err
		}
		filter.EndDate = &end
	}
	return filter, nil
}

func (s *AttendanceService) dayOrToday(raw string) (time.Time, error) {
	if raw == "" {
		return models.Day(s.now()), nil
	}
	return parseDayParam("date", raw)
}

func parseDayParam(name, raw string) (time.Time, error) {
	day, err := models.ParseDay(raw)
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, name+" must use YYYY-MM-DD")
	}
	return day, nil
}
