package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/hostel-api/internal/models"
	appErrors "github.com/noah-isme/hostel-api/pkg/errors"
	"github.com/noah-isme/hostel-api/pkg/export"
	"github.com/noah-isme/hostel-api/pkg/storage"
)

// feeDueDateLayout renders due dates as M/D/YYYY.
const feeDueDateLayout = "1/2/2006"

type roomLister interface {
	List(ctx context.Context) ([]models.Room, error)
}

type feeLister interface {
	List(ctx context.Context, status models.FeeStatus) ([]models.Fee, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ReportConfig tunes report exports.
type ReportConfig struct {
	APIPrefix string
}

// RenderedReport is a report ready to be served as a download.
type RenderedReport struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ReportService shapes the hostel collections into tabular reports.
type ReportService struct {
	students  studentDirectory
	rooms     roomLister
	fees      feeLister
	storage   fileStorage
	signer    *storage.SignedURLSigner
	renderers map[export.Format]export.Renderer
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       ReportConfig
}

// ReportServiceParams groups constructor dependencies.
type ReportServiceParams struct {
	Students studentDirectory
	Rooms    roomLister
	Fees     feeLister
	Storage  fileStorage
	Signer   *storage.SignedURLSigner
	Metrics  *MetricsService
	Logger   *zap.Logger
	Config   ReportConfig
}

// NewReportService constructs a ReportService with CSV and PDF renderers.
func NewReportService(params ReportServiceParams) *ReportService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := params.Config
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	return &ReportService{
		students: params.Students,
		rooms:    params.Rooms,
		fees:     params.Fees,
		storage:  params.Storage,
		signer:   params.Signer,
		renderers: map[export.Format]export.Renderer{
			export.FormatCSV: export.NewCSVExporter(),
			export.FormatPDF: export.NewPDFExporter(),
		},
		metrics: params.Metrics,
		logger:  logger,
		cfg:     cfg,
	}
}

// Render builds the report and serialises it in the requested format.
func (s *ReportService) Render(ctx context.Context, kind models.ReportKind, format string) (*RenderedReport, error) {
	renderer, err := s.renderer(format)
	if err != nil {
		return nil, err
	}
	dataset, err := s.Dataset(ctx, kind)
	if err != nil {
		return nil, err
	}
	payload, err := renderer.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}
	s.metrics.RecordReport(string(kind), renderer.Extension())
	return &RenderedReport{
		Filename:    kind.BaseFilename() + "." + renderer.Extension(),
		ContentType: renderer.ContentType(),
		Payload:     payload,
	}, nil
}

// CreateExport renders the report, stores it and returns a signed download link.
// Files older than the link lifetime are pruned first.
func (s *ReportService) CreateExport(ctx context.Context, kind models.ReportKind, format string) (*models.StoredExport, error) {
	if s.storage == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "report storage is not configured")
	}
	if _, err := s.Cleanup(); err != nil {
		s.logger.Warn("export cleanup failed", zap.Error(err))
	}

	report, err := s.Render(ctx, kind, format)
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	relPath, err := s.storage.Save(path.Join(id, report.Filename), report.Payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store report")
	}
	token, expiresAt, err := s.signer.Generate(id, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign export link")
	}
	s.logger.Info("report exported", zap.String("export_id", id), zap.String("kind", string(kind)), zap.String("path", relPath))
	return &models.StoredExport{
		ID:        id,
		Kind:      kind,
		Format:    strings.TrimPrefix(path.Ext(report.Filename), "."),
		Filename:  report.Filename,
		URL:       fmt.Sprintf("%s/exports/%s", strings.TrimRight(s.cfg.APIPrefix, "/"), token),
		ExpiresAt: expiresAt,
	}, nil
}

// OpenExport validates a download token and loads the stored file.
func (s *ReportService) OpenExport(ctx context.Context, token string) (*RenderedReport, error) {
	if s.storage == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export not found")
	}
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid or expired download link")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export not found")
	}
	defer file.Close()
	payload, err := io.ReadAll(file)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read export")
	}

	filename := path.Base(relPath)
	contentType := "application/octet-stream"
	if format, err := export.ParseFormat(strings.TrimPrefix(path.Ext(filename), ".")); err == nil {
		contentType = s.renderers[format].ContentType()
	}
	return &RenderedReport{Filename: filename, ContentType: contentType, Payload: payload}, nil
}

// Cleanup removes stored exports whose links have expired.
func (s *ReportService) Cleanup() ([]string, error) {
	if s.storage == nil || s.signer == nil {
		return nil, nil
	}
	return s.storage.CleanupOlderThan(s.signer.TTL())
}

// Dataset builds the tabular projection for a report kind.
func (s *ReportService) Dataset(ctx context.Context, kind models.ReportKind) (export.Dataset, error) {
	if !kind.Valid() {
		return export.Dataset{}, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("unknown report %q", kind))
	}

	var (
		students []models.Student
		rooms    []models.Room
		fees     []models.Fee
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		students, err = s.students.All(gctx)
		return err
	})
	switch kind {
	case models.ReportFeesDue:
		g.Go(func() error {
			var err error
			fees, err = s.fees.List(gctx, models.FeeStatusDue)
			return err
		})
	case models.ReportRoomOccupancy:
		g.Go(func() error {
			var err error
			rooms, err = s.rooms.List(gctx)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return export.Dataset{}, translateStoreError(err, "failed to load report data")
	}

	switch kind {
	case models.ReportFeesDue:
		return feesDueDataset(fees, students), nil
	case models.ReportRoomOccupancy:
		return roomOccupancyDataset(rooms, students), nil
	default:
		return studentsDataset(students), nil
	}
}

func (s *ReportService) renderer(raw string) (export.Renderer, error) {
	format, err := export.ParseFormat(strings.ToLower(strings.TrimSpace(raw)))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "format must be csv or pdf")
	}
	return s.renderers[format], nil
}

func studentsDataset(students []models.Student) export.Dataset {
	dataset := export.Dataset{
		Title:   models.ReportStudents.Title(),
		Headers: []string{"StudentID", "Name", "Email", "Phone", "Course", "RoomID"},
	}
	for _, st := range students {
		room := notAvailable
		if st.HasRoom() {
			room = *st.RoomID
		}
		dataset.AddRow(st.ID, st.Name, st.Email, st.Phone, st.Course, room)
	}
	return dataset
}

func feesDueDataset(fees []models.Fee, students []models.Student) export.Dataset {
	names := studentNames(students)
	dataset := export.Dataset{
		Title:   models.ReportFeesDue.Title(),
		Headers: []string{"StudentID", "StudentName", "AmountDue", "DueDate"},
	}
	for _, fee := range fees {
		if fee.Status != models.FeeStatusDue {
			continue
		}
		dataset.AddRow(
			fee.StudentID,
			nameOrNA(names, fee.StudentID),
			strconv.FormatFloat(fee.Amount, 'f', -1, 64),
			fee.DueDate.UTC().Format(feeDueDateLayout),
		)
	}
	return dataset
}

func roomOccupancyDataset(rooms []models.Room, students []models.Student) export.Dataset {
	names := studentNames(students)
	dataset := export.Dataset{
		Title:   models.ReportRoomOccupancy.Title(),
		Headers: []string{"RoomNumber", "Capacity", "OccupantsCount", "Occupants"},
	}
	for _, room := range rooms {
		occupants := make([]string, 0, len(room.Occupants))
		for _, id := range room.Occupants {
			if name, ok := names[id]; ok {
				occupants = append(occupants, name)
			}
		}
		listed := "Vacant"
		if len(occupants) > 0 {
			listed = strings.Join(occupants, ", ")
		}
		dataset.AddRow(room.RoomNumber, strconv.Itoa(room.Capacity), strconv.Itoa(len(room.Occupants)), listed)
	}
	return dataset
}
