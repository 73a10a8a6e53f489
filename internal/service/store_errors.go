package service

import (
	"context"
	"errors"

	"github.com/noah-isme/hostel-api/internal/repository"
	appErrors "github.com/noah-isme/hostel-api/pkg/errors"
)

// translateStoreError maps repository sentinels onto API errors. Anything else
// is wrapped as an internal error carrying fallback as its message.
func translateStoreError(err error, fallback string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrStudentNotFound):
		return appErrors.Clone(appErrors.ErrNotFound, "student not found")
	case errors.Is(err, repository.ErrRoomNotFound):
		return appErrors.Clone(appErrors.ErrNotFound, "room not found")
	case errors.Is(err, repository.ErrFeeNotFound):
		return appErrors.Clone(appErrors.ErrNotFound, "fee not found")
	case errors.Is(err, repository.ErrRoomFull):
		return appErrors.Clone(appErrors.ErrRoomFull, "")
	case errors.Is(err, repository.ErrNotAssigned):
		return appErrors.Clone(appErrors.ErrNotAssigned, "")
	case errors.Is(err, repository.ErrEmailTaken):
		return appErrors.Clone(appErrors.ErrConflict, "email already used by another student")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "request cancelled")
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fallback)
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

// invalidateDashboard drops cached dashboard payloads after a mutation. Errors
// are already logged by the cache service.
func invalidateDashboard(ctx context.Context, cache cacheInvalidator) {
	if cache == nil {
		return
	}
	_ = cache.Invalidate(ctx, DashboardCachePattern)
}
