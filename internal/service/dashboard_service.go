package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/hostel-api/internal/dto"
	"github.com/noah-isme/hostel-api/internal/models"
)

const dashboardAdminCacheKey = "dash:admin"

type dashboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Generation() uint64
	SetIfUnchanged(ctx context.Context, key string, value interface{}, ttl time.Duration, gen uint64) (bool, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL time.Duration
}

// DashboardService composes the admin overview.
type DashboardService struct {
	students studentDirectory
	rooms    roomLister
	fees     feeLister
	cache    dashboardCache
	logger   *zap.Logger
	cfg      DashboardServiceConfig
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Students studentDirectory
	Rooms    roomLister
	Fees     feeLister
	Cache    dashboardCache
	Logger   *zap.Logger
	Config   DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		students: params.Students,
		rooms:    params.Rooms,
		fees:     params.Fees,
		cache:    params.Cache,
		logger:   logger,
		cfg:      cfg,
	}
}

// Stats returns the admin dashboard numbers and indicates cache utilisation.
func (s *DashboardService) Stats(ctx context.Context) (*dto.DashboardStats, bool, error) {
	var gen uint64
	if s.cache != nil {
		gen = s.cache.Generation()
		var cached dto.DashboardStats
		hit, err := s.cache.Get(ctx, dashboardAdminCacheKey, &cached)
		if err == nil && hit {
			return &cached, true, nil
		}
	}

	stats, err := s.compose(ctx)
	if err != nil {
		return nil, false, err
	}
	if s.cache != nil {
		if _, err := s.cache.SetIfUnchanged(ctx, dashboardAdminCacheKey, stats, s.cfg.CacheTTL, gen); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.String("key", dashboardAdminCacheKey), zap.Error(err))
		}
	}
	return stats, false, nil
}

func (s *DashboardService) compose(ctx context.Context) (*dto.DashboardStats, error) {
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
	g.Go(func() error {
		var err error
		rooms, err = s.rooms.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		fees, err = s.fees.List(gctx, "")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, translateStoreError(err, "failed to load dashboard")
	}

	stats := &dto.DashboardStats{
		TotalStudents: len(students),
		TotalRooms:    len(rooms),
	}
	for _, room := range rooms {
		if len(room.Occupants) > 0 {
			stats.RoomsOccupied++
		}
	}
	stats.RoomsVacant = stats.TotalRooms - stats.RoomsOccupied
	for _, fee := range fees {
		stats.TotalFees += fee.Amount
		switch fee.Status {
		case models.FeeStatusPaid:
			stats.FeesCollected += fee.Amount
		case models.FeeStatusDue:
			stats.FeesDue += fee.Amount
		}
	}
	stats.RoomOccupancy = []dto.ChartPoint{
		{Name: "Occupied", Value: stats.RoomsOccupied},
		{Name: "Vacant", Value: stats.RoomsVacant},
	}
	return stats, nil
}
