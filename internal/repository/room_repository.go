package repository

import (
	"context"

	"github.com/noah-isme/hostel-api/internal/models"
)

// RoomRepository manages rooms and the allocation state machine.
type RoomRepository struct {
	store *Store
}

// NewRoomRepository constructs a RoomRepository.
func NewRoomRepository(store *Store) *RoomRepository {
	return &RoomRepository{store: store}
}

// List returns all rooms.
func (r *RoomRepository) List(ctx context.Context) ([]models.Room, error) {
	var rooms []models.Room
	err := r.store.read(ctx, "rooms.list", func() error {
		rooms = make([]models.Room, 0, len(r.store.rooms))
		for _, room := range r.store.rooms {
			rooms = append(rooms, room.Clone())
		}
		return nil
	})
	return rooms, err
}

// FindByID fetches a room by ID.
func (r *RoomRepository) FindByID(ctx context.Context, id string) (*models.Room, error) {
	var found *models.Room
	err := r.store.read(ctx, "rooms.find", func() error {
		idx := r.store.roomIndex(id)
		if idx < 0 {
			return ErrRoomNotFound
		}
		room := r.store.rooms[idx].Clone()
		found = &room
		return nil
	})
	return found, err
}

// Allocate moves a student into roomID. The capacity check runs against the
// room as it is before the student is scrubbed from their current room.
// Removal from every other room, the append and the student's room reference
// are applied under one write lock.
func (r *RoomRepository) Allocate(ctx context.Context, studentID, roomID string) (*models.Allocation, error) {
	var result *models.Allocation
	err := r.store.write(ctx, "rooms.allocate", func() error {
		roomIdx := r.store.roomIndex(roomID)
		if roomIdx < 0 {
			return ErrRoomNotFound
		}
		if r.store.rooms[roomIdx].IsFull() {
			return ErrRoomFull
		}
		studentIdx := r.store.studentIndex(studentID)
		if studentIdx < 0 {
			return ErrStudentNotFound
		}

		prevIdx := r.store.removeOccupant(studentID)
		r.store.rooms[roomIdx].Occupants = append(r.store.rooms[roomIdx].Occupants, studentID)
		assigned := roomID
		r.store.students[studentIdx].RoomID = &assigned

		result = &models.Allocation{
			Student: r.store.students[studentIdx].Clone(),
			Room:    r.store.rooms[roomIdx].Clone(),
		}
		if prevIdx >= 0 && prevIdx != roomIdx {
			prev := r.store.rooms[prevIdx].Clone()
			result.PreviousRoom = &prev
		}
		return nil
	})
	return result, err
}

// Deallocate removes the student from their room and clears the room reference.
func (r *RoomRepository) Deallocate(ctx context.Context, studentID string) (*models.Allocation, error) {
	var result *models.Allocation
	err := r.store.write(ctx, "rooms.deallocate", func() error {
		studentIdx := r.store.studentIndex(studentID)
		if studentIdx < 0 {
			return ErrStudentNotFound
		}
		student := &r.store.students[studentIdx]
		if !student.HasRoom() {
			return ErrNotAssigned
		}
		roomIdx := r.store.roomIndex(*student.RoomID)
		r.store.removeOccupant(studentID)
		student.RoomID = nil

		result = &models.Allocation{Student: student.Clone()}
		if roomIdx >= 0 {
			result.Room = r.store.rooms[roomIdx].Clone()
		}
		return nil
	})
	return result, err
}
