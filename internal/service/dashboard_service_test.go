package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/hostel-api/internal/dto"
	"github.com/noah-isme/hostel-api/internal/models"
	appErrors "github.com/noah-isme/hostel-api/pkg/errors"
)

type memoryCacheRepo struct {
	values map[string][]byte
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.values[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) (int, error) {
	n := len(m.values)
	m.values = map[string][]byte{}
	return n, nil
}

func TestDashboardStatsSeeded(t *testing.T) {
	repos := newTestRepos()
	svc := NewDashboardService(DashboardServiceParams{Students: repos.students, Rooms: repos.rooms, Fees: repos.fees, Logger: zap.NewNop()})

	stats, hit, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, &dto.DashboardStats{
		TotalStudents: 5,
		RoomsOccupied: 3,
		RoomsVacant:   2,
		TotalRooms:    5,
		FeesCollected: 10000,
		FeesDue:       15000,
		TotalFees:     25000,
		RoomOccupancy: []dto.ChartPoint{{Name: "Occupied", Value: 3}, {Name: "Vacant", Value: 2}},
	}, stats)
}

func TestDashboardStatsCachedAndInvalidated(t *testing.T) {
	repos := newTestRepos()
	cacheRepo := &memoryCacheRepo{values: map[string][]byte{}}
	cache := NewCacheService(cacheRepo, NewMetricsService(), time.Minute, zap.NewNop(), true)
	dashboard := NewDashboardService(DashboardServiceParams{Students: repos.students, Rooms: repos.rooms, Fees: repos.fees, Cache: cache})
	rooms := newRoomService(repos, cache)

	_, hit, err := dashboard.Stats(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)

	stats, hit, err := dashboard.Stats(context.Background())
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 3, stats.RoomsOccupied)

	_, err = rooms.Allocate(context.Background(), "R201", "S005")
	require.NoError(t, err)

	stats, hit, err = dashboard.Stats(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 4, stats.RoomsOccupied)
}

// invalidatingDirectory simulates a mutation landing while the dashboard is being composed.
type invalidatingDirectory struct {
	studentDirectory
	cache *CacheService
	once  bool
}

func (d *invalidatingDirectory) All(ctx context.Context) ([]models.Student, error) {
	students, err := d.studentDirectory.All(ctx)
	if !d.once {
		d.once = true
		_ = d.cache.Invalidate(ctx, DashboardCachePattern)
	}
	return students, err
}

func TestDashboardSkipsCachingStatsComposedDuringInvalidation(t *testing.T) {
	repos := newTestRepos()
	cacheRepo := &memoryCacheRepo{values: map[string][]byte{}}
	cache := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	students := &invalidatingDirectory{studentDirectory: repos.students, cache: cache}
	dashboard := NewDashboardService(DashboardServiceParams{Students: students, Rooms: repos.rooms, Fees: repos.fees, Cache: cache})

	_, hit, err := dashboard.Stats(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Empty(t, cacheRepo.values)

	_, hit, err = dashboard.Stats(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Contains(t, cacheRepo.values, dashboardAdminCacheKey)
}
