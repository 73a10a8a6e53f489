package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingCacheRepo struct{}

func (failingCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	return errors.New("connection refused")
}

func (failingCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return errors.New("connection refused")
}

func (failingCacheRepo) DeleteByPattern(ctx context.Context, pattern string) (int, error) {
	return 0, errors.New("connection refused")
}

func TestCacheServiceDisabled(t *testing.T) {
	svc := NewCacheService(&memoryCacheRepo{values: map[string][]byte{}}, nil, 0, nil, false)
	assert.False(t, svc.Enabled())

	var dest map[string]int
	hit, err := svc.Get(context.Background(), "dash:admin", &dest)
	require.NoError(t, err)
	assert.False(t, hit)
	require.NoError(t, svc.Invalidate(context.Background(), DashboardCachePattern))
}

func TestCacheServiceSurfacesBackendErrors(t *testing.T) {
	svc := NewCacheService(failingCacheRepo{}, NewMetricsService(), time.Minute, zap.NewNop(), true)

	var dest map[string]int
	hit, err := svc.Get(context.Background(), "dash:admin", &dest)
	assert.Error(t, err)
	assert.False(t, hit)
	assert.Error(t, svc.Set(context.Background(), "dash:admin", dest, 0))
	assert.Error(t, svc.Invalidate(context.Background(), DashboardCachePattern))
}

func TestDashboardFallsBackWhenCacheFails(t *testing.T) {
	repos := newTestRepos()
	cache := NewCacheService(failingCacheRepo{}, nil, time.Minute, zap.NewNop(), true)
	svc := NewDashboardService(DashboardServiceParams{Students: repos.students, Rooms: repos.rooms, Fees: repos.fees, Cache: cache})

	stats, hit, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 5, stats.TotalStudents)
}

func TestCacheServiceSkipsWriteAfterInvalidation(t *testing.T) {
	repo := &memoryCacheRepo{values: map[string][]byte{}}
	svc := NewCacheService(repo, nil, time.Minute, zap.NewNop(), true)
	ctx := context.Background()

	gen := svc.Generation()
	require.NoError(t, svc.Invalidate(ctx, DashboardCachePattern))
	stored, err := svc.SetIfUnchanged(ctx, "dash:admin", map[string]int{"total": 1}, 0, gen)
	require.NoError(t, err)
	assert.False(t, stored)
	assert.Empty(t, repo.values)

	stored, err = svc.SetIfUnchanged(ctx, "dash:admin", map[string]int{"total": 1}, 0, svc.Generation())
	require.NoError(t, err)
	assert.True(t, stored)
	assert.Contains(t, repo.values, "dash:admin")
}
