package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/hostel-api/internal/models"
	appErrors "github.com/noah-isme/hostel-api/pkg/errors"
)

const (
	defaultStudentPageSize = 20
	maxStudentPageSize     = 100
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, id string, patch models.StudentPatch) (*models.Student, error)
	UpdatePicture(ctx context.Context, id, pictureURL string) (*models.Student, error)
	Delete(ctx context.Context, id string) error
}

// CreateStudentRequest holds payload for creating students.
type CreateStudentRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"required"`
	Address string `json:"address" validate:"required"`
	Course  string `json:"course" validate:"required"`
}

// UpdateStudentRequest holds a partial update; nil fields keep their current value.
type UpdateStudentRequest struct {
	Name    *string `json:"name" validate:"omitempty,min=1"`
	Email   *string `json:"email" validate:"omitempty,email"`
	Phone   *string `json:"phone" validate:"omitempty,min=1"`
	Address *string `json:"address" validate:"omitempty,min=1"`
	Course  *string `json:"course" validate:"omitempty,min=1"`
}

// StudentService handles student use-cases.
type StudentService struct {
	repo      studentRepository
	cache     cacheInvalidator
	pictures  pictureProcessor
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, cache cacheInvalidator, pictures PictureConfig, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{
		repo:      repo,
		cache:     cache,
		pictures:  newPictureProcessor(pictures),
		validator: validate,
		logger:    logger,
	}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = defaultStudentPageSize
	}
	if filter.PageSize > maxStudentPageSize {
		filter.PageSize = maxStudentPageSize
	}
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, translateStoreError(err, "failed to list students")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return students, pagination, nil
}

// Get returns a student by ID.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translateStoreError(err, "failed to load student")
	}
	return student, nil
}

// Create validates and stores a new student with the default picture and no room.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student := &models.Student{
		Name:              req.Name,
		Email:             req.Email,
		Phone:             req.Phone,
		Address:           req.Address,
		Course:            req.Course,
		ProfilePictureURL: models.DefaultProfilePictureURL,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, translateStoreError(err, "failed to create student")
	}
	invalidateDashboard(ctx, s.cache)
	s.logger.Info("student created", zap.String("student_id", student.ID))
	return student, nil
}

// Update merges the provided fields into the existing student inside a single store write.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	trimmed := func(v *string) *string {
		if v == nil {
			return nil
		}
		t := strings.TrimSpace(*v)
		return &t
	}
	patch := models.StudentPatch{
		Name:    trimmed(req.Name),
		Email:   trimmed(req.Email),
		Phone:   trimmed(req.Phone),
		Address: trimmed(req.Address),
		Course:  trimmed(req.Course),
	}

	student, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, translateStoreError(err, "failed to update student")
	}
	invalidateDashboard(ctx, s.cache)
	return student, nil
}

// Delete removes a student and vacates their bed. Fees and attendance are kept.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return translateStoreError(err, "failed to delete student")
	}
	invalidateDashboard(ctx, s.cache)
	s.logger.Info("student deleted", zap.String("student_id", id))
	return nil
}

// UploadPicture resizes the uploaded image and stores it as the student's picture.
func (s *StudentService) UploadPicture(ctx context.Context, id string, data []byte) (*models.Student, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, translateStoreError(err, "failed to load student")
	}
	dataURL, err := s.pictures.Process(data)
	if err != nil {
		return nil, err
	}
	student, err := s.repo.UpdatePicture(ctx, id, dataURL)
	if err != nil {
		return nil, translateStoreError(err, "failed to store picture")
	}
	return student, nil
}
