package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/hostel-api/internal/models"
	appErrors "github.com/noah-isme/hostel-api/pkg/errors"
)

type feeRepository interface {
	List(ctx context.Context, status models.FeeStatus) ([]models.Fee, error)
	UpdateStatus(ctx context.Context, id string, status models.FeeStatus) (*models.Fee, error)
}

// UpdateFeeStatusRequest sets a fee to Paid or Due.
type UpdateFeeStatusRequest struct {
	Status models.FeeStatus `json:"status" validate:"required,oneof=Paid Due"`
}

// FeeService exposes fee listing and status transitions.
type FeeService struct {
	fees      feeRepository
	students  studentDirectory
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFeeService constructs a FeeService.
func NewFeeService(fees feeRepository, students studentDirectory, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *FeeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeeService{fees: fees, students: students, cache: cache, validator: validate, logger: logger}
}

// List returns fees filtered by status ("All" or empty for every fee), joined with student names.
func (s *FeeService) List(ctx context.Context, status string) ([]models.FeeDetail, error) {
	var filter models.FeeStatus
	if status != "" && status != models.FeeFilterAll {
		filter = models.FeeStatus(status)
		if !filter.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "status must be All, Paid or Due")
		}
	}

	var (
		fees     []models.Fee
		students []models.Student
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		fees, err = s.fees.List(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		students, err = s.students.All(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, translateStoreError(err, "failed to list fees")
	}

	names := studentNames(students)
	details := make([]models.FeeDetail, 0, len(fees))
	for _, fee := range fees {
		details = append(details, models.FeeDetail{Fee: fee, StudentName: nameOrNA(names, fee.StudentID)})
	}
	return details, nil
}

// UpdateStatus overwrites the fee status. Any transition is allowed.
func (s *FeeService) UpdateStatus(ctx context.Context, id string, req UpdateFeeStatusRequest) (*models.Fee, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "status must be Paid or Due")
	}
	fee, err := s.fees.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		return nil, translateStoreError(err, "failed to update fee")
	}
	invalidateDashboard(ctx, s.cache)
	s.logger.Info("fee status updated", zap.String("fee_id", id), zap.String("status", string(fee.Status)))
	return fee, nil
}

const notAvailable = "N/A"

func studentNames(students []models.Student) map[string]string {
	names := make(map[string]string, len(students))
	for _, st := range students {
		names[st.ID] = st.Name
	}
	return names
}

func nameOrNA(names map[string]string, id string) string {
	if name, ok := names[id]; ok {
		return name
	}
	return notAvailable
}
