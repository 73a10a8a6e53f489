package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/hostel-api/internal/models"
)

// Sentinel errors returned by the in-memory repositories.
var (
	ErrStudentNotFound = errors.New("student not found")
	ErrRoomNotFound    = errors.New("room not found")
	ErrFeeNotFound     = errors.New("fee not found")
	ErrRoomFull        = errors.New("room is full")
	ErrNotAssigned     = errors.New("student not in a room")
	ErrEmailTaken      = errors.New("email already used")
)

// StoreObserver receives the duration of every store operation.
type StoreObserver func(op string, d time.Duration)

// StoreOptions configures a Store.
type StoreOptions struct {
	// Latency is waited before every operation to emulate a remote backend.
	Latency  time.Duration
	Observer StoreObserver
}

// Store owns the hostel collections. A single RWMutex serialises writers so
// multi-collection mutations (allocation, cascade delete) are never observed half applied.
type Store struct {
	mu         sync.RWMutex
	students   []models.Student
	rooms      []models.Room
	fees       []models.Fee
	attendance []models.AttendanceRecord

	nextStudentSeq    int
	nextAttendanceSeq int

	latency  time.Duration
	observer StoreObserver
}

// NewStore constructs an empty store.
func NewStore(opts StoreOptions) *Store {
	return &Store{
		latency:           opts.Latency,
		observer:          opts.Observer,
		nextStudentSeq:    1,
		nextAttendanceSeq: 1,
	}
}

func (s *Store) wait(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Store) read(ctx context.Context, op string, fn func() error) error {
	if err := s.wait(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	start := time.Now()
	s.mu.RLock()
	defer func() {
		s.mu.RUnlock()
		s.observe(op, time.Since(start))
	}()
	return fn()
}

func (s *Store) write(ctx context.Context, op string, fn func() error) error {
	if err := s.wait(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	start := time.Now()
	s.mu.Lock()
	defer func() {
		s.mu.Unlock()
		s.observe(op, time.Since(start))
	}()
	return fn()
}

func (s *Store) observe(op string, d time.Duration) {
	if s.observer != nil {
		s.observer(op, d)
	}
}

// The helpers below assume the caller holds the lock.

func (s *Store) studentIndex(id string) int {
	for i := range s.students {
		if s.students[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) roomIndex(id string) int {
	for i := range s.rooms {
		if s.rooms[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) feeIndex(id string) int {
	for i := range s.fees {
		if s.fees[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) emailTaken(email, excludeID string) bool {
	for i := range s.students {
		if s.students[i].ID != excludeID && strings.EqualFold(s.students[i].Email, email) {
			return true
		}
	}
	return false
}

// removeOccupant scrubs studentID from every room and returns the index of the
// first room that listed it, or -1.
func (s *Store) removeOccupant(studentID string) int {
	found := -1
	for i := range s.rooms {
		kept := s.rooms[i].Occupants[:0]
		for _, id := range s.rooms[i].Occupants {
			if id == studentID {
				if found < 0 {
					found = i
				}
				continue
			}
			kept = append(kept, id)
		}
		s.rooms[i].Occupants = kept
	}
	return found
}

func (s *Store) newStudentID() string {
	id := fmt.Sprintf("S%03d", s.nextStudentSeq)
	s.nextStudentSeq++
	return id
}

func (s *Store) newAttendanceID() string {
	id := fmt.Sprintf("A%02d", s.nextAttendanceSeq)
	s.nextAttendanceSeq++
	return id
}

// bumpSequences moves the ID counters past any seeded IDs.
func (s *Store) bumpSequences() {
	for _, st := range s.students {
		if n := numericSuffix(st.ID); n >= s.nextStudentSeq {
			s.nextStudentSeq = n + 1
		}
	}
	for _, a := range s.attendance {
		if n := numericSuffix(a.ID); n >= s.nextAttendanceSeq {
			s.nextAttendanceSeq = n + 1
		}
	}
}

func numericSuffix(id string) int {
	if len(id) < 2 {
		return 0
	}
	n, err := strconv.Atoi(id[1:])
	if err != nil {
		return 0
	}
	return n
}
