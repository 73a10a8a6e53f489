package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/hostel-api/internal/models"
	"github.com/noah-isme/hostel-api/internal/repository"
)

type roomRepository interface {
	List(ctx context.Context) ([]models.Room, error)
	FindByID(ctx context.Context, id string) (*models.Room, error)
	Allocate(ctx context.Context, studentID, roomID string) (*models.Allocation, error)
	Deallocate(ctx context.Context, studentID string) (*models.Allocation, error)
}

type studentDirectory interface {
	All(ctx context.Context) ([]models.Student, error)
}

// Allocation result labels.
const (
	allocationSuccess  = "success"
	allocationFull     = "room_full"
	allocationNotFound = "not_found"
	allocationError    = "error"
)

// RoomService runs the room allocation state machine.
type RoomService struct {
	rooms    roomRepository
	students studentDirectory
	cache    cacheInvalidator
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewRoomService constructs a RoomService.
func NewRoomService(rooms roomRepository, students studentDirectory, cache cacheInvalidator, metrics *MetricsService, logger *zap.Logger) *RoomService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoomService{rooms: rooms, students: students, cache: cache, metrics: metrics, logger: logger}
}

// List returns every room with its resolved occupants.
func (s *RoomService) List(ctx context.Context) ([]models.RoomDetail, error) {
	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return nil, translateStoreError(err, "failed to list rooms")
	}
	index, err := s.studentIndex(ctx)
	if err != nil {
		return nil, err
	}
	details := make([]models.RoomDetail, 0, len(rooms))
	for _, room := range rooms {
		details = append(details, buildRoomDetail(room, index))
	}
	return details, nil
}

// Get returns one room with its resolved occupants.
func (s *RoomService) Get(ctx context.Context, id string) (*models.RoomDetail, error) {
	room, err := s.rooms.FindByID(ctx, id)
	if err != nil {
		return nil, translateStoreError(err, "failed to load room")
	}
	index, err := s.studentIndex(ctx)
	if err != nil {
		return nil, err
	}
	detail := buildRoomDetail(*room, index)
	return &detail, nil
}

// Allocate moves the student into the room, vacating any previous bed.
func (s *RoomService) Allocate(ctx context.Context, roomID, studentID string) (*models.Allocation, error) {
	alloc, err := s.rooms.Allocate(ctx, studentID, roomID)
	if err != nil {
		s.metrics.RecordAllocation(allocationResult(err))
		return nil, translateStoreError(err, "failed to allocate room")
	}
	s.metrics.RecordAllocation(allocationSuccess)
	invalidateDashboard(ctx, s.cache)

	fields := []zap.Field{zap.String("student_id", studentID), zap.String("room_id", roomID)}
	if alloc.PreviousRoom != nil {
		fields = append(fields, zap.String("previous_room_id", alloc.PreviousRoom.ID))
	}
	s.logger.Info("room allocated", fields...)
	return alloc, nil
}

// Deallocate removes the student from their room.
func (s *RoomService) Deallocate(ctx context.Context, studentID string) (*models.Allocation, error) {
	alloc, err := s.rooms.Deallocate(ctx, studentID)
	if err != nil {
		return nil, translateStoreError(err, "failed to deallocate room")
	}
	invalidateDashboard(ctx, s.cache)
	s.logger.Info("room deallocated", zap.String("student_id", studentID), zap.String("room_id", alloc.Room.ID))
	return alloc, nil
}

func (s *RoomService) studentIndex(ctx context.Context) (map[string]models.Student, error) {
	students, err := s.students.All(ctx)
	if err != nil {
		return nil, translateStoreError(err, "failed to load students")
	}
	index := make(map[string]models.Student, len(students))
	for _, st := range students {
		index[st.ID] = st
	}
	return index, nil
}

func buildRoomDetail(room models.Room, students map[string]models.Student) models.RoomDetail {
	detail := models.RoomDetail{Room: room, OccupantDetails: []models.Occupant{}}
	for _, id := range room.Occupants {
		st, ok := students[id]
		if !ok {
			continue
		}
		detail.OccupantDetails = append(detail.OccupantDetails, models.Occupant{StudentID: st.ID, Name: st.Name, Email: st.Email})
	}
	if free := room.Capacity - len(room.Occupants); free > 0 {
		detail.Available = free
	}
	return detail
}

func allocationResult(err error) string {
	switch {
	case errors.Is(err, repository.ErrRoomFull):
		return allocationFull
	case errors.Is(err, repository.ErrRoomNotFound), errors.Is(err, repository.ErrStudentNotFound):
		return allocationNotFound
	}
	return allocationError
}
