package service

import (
	"context"
	"sync"
	"time"

	"github.com/noah-isme/hostel-api/internal/repository"
)

var testToday = time.Date(2024, time.July, 15, 0, 0, 0, 0, time.UTC)

type testRepos struct {
	store      *repository.Store
	students   *repository.StudentRepository
	rooms      *repository.RoomRepository
	fees       *repository.FeeRepository
	attendance *repository.AttendanceRepository
}

func newTestRepos() testRepos {
	store := repository.NewStore(repository.StoreOptions{})
	store.Seed(testToday)
	return testRepos{
		store:      store,
		students:   repository.NewStudentRepository(store),
		rooms:      repository.NewRoomRepository(store),
		fees:       repository.NewFeeRepository(store),
		attendance: repository.NewAttendanceRepository(store),
	}
}

type recordingInvalidator struct {
	mu       sync.Mutex
	patterns []string
}

func (r *recordingInvalidator) Invalidate(ctx context.Context, pattern string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patterns = append(r.patterns, pattern)
	return nil
}

func (r *recordingInvalidator) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.patterns)
}
