package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/hostel-api/internal/models"
	appErrors "github.com/noah-isme/hostel-api/pkg/errors"
	"github.com/noah-isme/hostel-api/pkg/storage"
)

func newReportService(t *testing.T, repos testRepos) *ReportService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return NewReportService(ReportServiceParams{
		Students: repos.students,
		Rooms:    repos.rooms,
		Fees:     repos.fees,
		Storage:  store,
		Signer:   storage.NewSignedURLSigner("test-secret", time.Hour),
		Metrics:  NewMetricsService(),
		Logger:   zap.NewNop(),
		Config:   ReportConfig{APIPrefix: "/api/v1"},
	})
}

func TestReportStudentsCSV(t *testing.T) {
	svc := newReportService(t, newTestRepos())

	report, err := svc.Render(context.Background(), models.ReportStudents, "csv")
	require.NoError(t, err)
	assert.Equal(t, "hostel_students.csv", report.Filename)
	assert.Equal(t, "text/csv; charset=utf-8", report.ContentType)

	lines := strings.Split(strings.TrimSpace(string(report.Payload)), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "StudentID,Name,Email,Phone,Course,RoomID", lines[0])
	assert.Equal(t, "S001,Alice Johnson,alice@example.com,123-456-7890,Computer Science,R101", lines[1])
	assert.Equal(t, "S005,Ethan Hunt,ethan@example.com,567-890-1234,Kinesiology,N/A", lines[5])
}

func TestReportFeesDueExcludesPaid(t *testing.T) {
	repos := newTestRepos()
	svc := newReportService(t, repos)
	_, err := repos.fees.UpdateStatus(context.Background(), "F02", models.FeeStatusPaid)
	require.NoError(t, err)

	report, err := svc.Render(context.Background(), models.ReportFeesDue, "")
	require.NoError(t, err)
	assert.Equal(t, "fee_due_report.csv", report.Filename)
	assert.Equal(t, "StudentID,StudentName,AmountDue,DueDate\n"+
		"S004,Diana Prince,5000,8/1/2024\n"+
		"S005,Ethan Hunt,5000,8/1/2024\n", string(report.Payload))
}

func TestReportRoomOccupancyQuotesNames(t *testing.T) {
	svc := newReportService(t, newTestRepos())

	report, err := svc.Render(context.Background(), models.ReportRoomOccupancy, "csv")
	require.NoError(t, err)
	assert.Equal(t, "room_occupancy_report.csv", report.Filename)
	lines := strings.Split(strings.TrimSpace(string(report.Payload)), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "RoomNumber,Capacity,OccupantsCount,Occupants", lines[0])
	assert.Equal(t, `101,2,2,"Alice Johnson, Bob Smith"`, lines[1])
	assert.Equal(t, "201,2,0,Vacant", lines[4])
}

func TestReportRejectsUnknownInputs(t *testing.T) {
	svc := newReportService(t, newTestRepos())

	_, err := svc.Render(context.Background(), models.ReportKind("grades"), "csv")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	_, err = svc.Render(context.Background(), models.ReportStudents, "xlsx")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestReportPDF(t *testing.T) {
	svc := newReportService(t, newTestRepos())

	report, err := svc.Render(context.Background(), models.ReportRoomOccupancy, "PDF")
	require.NoError(t, err)
	assert.Equal(t, "room_occupancy_report.pdf", report.Filename)
	assert.Equal(t, "application/pdf", report.ContentType)
	assert.True(t, strings.HasPrefix(string(report.Payload), "%PDF"))
}

func TestReportStoredExportRoundTrip(t *testing.T) {
	svc := newReportService(t, newTestRepos())

	stored, err := svc.CreateExport(context.Background(), models.ReportStudents, "csv")
	require.NoError(t, err)
	assert.Equal(t, "hostel_students.csv", stored.Filename)
	assert.Equal(t, "csv", stored.Format)
	require.True(t, strings.HasPrefix(stored.URL, "/api/v1/exports/"))

	token := strings.TrimPrefix(stored.URL, "/api/v1/exports/")
	download, err := svc.OpenExport(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "hostel_students.csv", download.Filename)
	assert.Equal(t, "text/csv; charset=utf-8", download.ContentType)
	assert.Contains(t, string(download.Payload), "S001,Alice Johnson")

	_, err = svc.OpenExport(context.Background(), token+"tampered")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}
