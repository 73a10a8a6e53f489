package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/hostel-api/internal/dto"
	"github.com/noah-isme/hostel-api/internal/models"
	appErrors "github.com/noah-isme/hostel-api/pkg/errors"
)

func newAttendanceService(repos testRepos) *AttendanceService {
	svc := NewAttendanceService(repos.attendance, repos.students, nil, NewMetricsService(), nil, zap.NewNop())
	svc.now = func() time.Time { return testToday.Add(10 * time.Hour) }
	return svc
}

func boolPtr(b bool) *bool { return &b }

func historyIDs(rows []dto.AttendanceHistoryRow) []string {
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids
}

func TestAttendanceMarkUpserts(t *testing.T) {
	repos := newTestRepos()
	svc := newAttendanceService(repos)

	first, err := svc.Mark(context.Background(), MarkAttendanceRequest{StudentID: "S004", Present: boolPtr(true)})
	require.NoError(t, err)
	second, err := svc.Mark(context.Background(), MarkAttendanceRequest{StudentID: "S004", Date: "2024-07-15", Present: boolPtr(false)})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	records, err := repos.attendance.ListByDate(context.Background(), testToday)
	require.NoError(t, err)
	count := 0
	for _, rec := range records {
		if rec.StudentID == "S004" {
			count++
			assert.False(t, rec.Present)
		}
	}
	assert.Equal(t, 1, count)
}

func TestAttendanceMarkValidation(t *testing.T) {
	svc := newAttendanceService(newTestRepos())

	_, err := svc.Mark(context.Background(), MarkAttendanceRequest{StudentID: "S001"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	_, err = svc.Mark(context.Background(), MarkAttendanceRequest{StudentID: "S001", Date: "15/07/2024", Present: boolPtr(true)})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	_, err = svc.Mark(context.Background(), MarkAttendanceRequest{StudentID: "S404", Present: boolPtr(true)})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestAttendanceDailyRoster(t *testing.T) {
	svc := newAttendanceService(newTestRepos())

	sheet, err := svc.Daily(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "2024-07-15", sheet.Date)
	require.Len(t, sheet.Entries, 5)
	assert.Equal(t, dto.DailyAttendanceEntry{StudentID: "S001", Name: "Alice Johnson", Present: true, Recorded: true}, sheet.Entries[0])
	assert.Equal(t, dto.DailyAttendanceEntry{StudentID: "S002", Name: "Bob Smith", Present: false, Recorded: true}, sheet.Entries[1])
	assert.Equal(t, dto.DailyAttendanceEntry{StudentID: "S004", Name: "Diana Prince", Present: false, Recorded: false}, sheet.Entries[3])
}

func TestAttendanceMarkBulk(t *testing.T) {
	repos := newTestRepos()
	svc := newAttendanceService(repos)

	saved, err := svc.MarkBulk(context.Background(), BulkAttendanceRequest{
		Date: "2024-07-16",
		Entries: []models.AttendanceMark{
			{StudentID: "S001", Present: true},
			{StudentID: "S005", Present: false},
		},
	})
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, "A09", saved[0].ID)

	_, err = svc.MarkBulk(context.Background(), BulkAttendanceRequest{})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestAttendanceHistoryDefaults(t *testing.T) {
	svc := newAttendanceService(newTestRepos())

	rows, err := svc.History(context.Background(), AttendanceHistoryQuery{StudentID: "all"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A01", "A02", "A03", "A04", "A05", "A06", "A07", "A08"}, historyIDs(rows))
	assert.Equal(t, "Alice Johnson", rows[0].StudentName)

	empty := ""
	rows, err = svc.History(context.Background(), AttendanceHistoryQuery{EndDate: &empty})
	require.NoError(t, err)
	assert.Len(t, rows, 8)
}

func TestAttendanceHistoryNarrowingNeverGrows(t *testing.T) {
	repos := newTestRepos()
	svc := newAttendanceService(repos)
	_, err := repos.attendance.Upsert(context.Background(), "S001", testToday.AddDate(0, 0, 3), true)
	require.NoError(t, err)

	rows, err := svc.History(context.Background(), AttendanceHistoryQuery{})
	require.NoError(t, err)
	assert.Len(t, rows, 8, "future record excluded by default end date")

	end := "2024-07-20"
	wide, err := svc.History(context.Background(), AttendanceHistoryQuery{EndDate: &end})
	require.NoError(t, err)
	assert.Len(t, wide, 9)
	assert.Equal(t, "A09", wide[0].ID)

	narrowEnd := "2024-07-14"
	narrow, err := svc.History(context.Background(), AttendanceHistoryQuery{StartDate: "2024-07-14", EndDate: &narrowEnd})
	require.NoError(t, err)
	assert.Equal(t, []string{"A04", "A05", "A06"}, historyIDs(narrow))

	single, err := svc.History(context.Background(), AttendanceHistoryQuery{StudentID: "S002", StartDate: "2024-07-14", EndDate: &narrowEnd})
	require.NoError(t, err)
	assert.Equal(t, []string{"A05"}, historyIDs(single))

	bad := "yesterday"
	_, err = svc.History(context.Background(), AttendanceHistoryQuery{EndDate: &bad})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}
