package repository

import (
	"context"

	"github.com/noah-isme/hostel-api/internal/models"
)

// FeeRepository manages fee records.
type FeeRepository struct {
	store *Store
}

// NewFeeRepository constructs a FeeRepository.
func NewFeeRepository(store *Store) *FeeRepository {
	return &FeeRepository{store: store}
}

// List returns fees with the given status, or every fee when status is empty.
func (r *FeeRepository) List(ctx context.Context, status models.FeeStatus) ([]models.Fee, error) {
	var fees []models.Fee
	err := r.store.read(ctx, "fees.list", func() error {
		fees = make([]models.Fee, 0, len(r.store.fees))
		for _, fee := range r.store.fees {
			if status != "" && fee.Status != status {
				continue
			}
			fees = append(fees, fee)
		}
		return nil
	})
	return fees, err
}

// FindByID fetches a fee by ID.
func (r *FeeRepository) FindByID(ctx context.Context, id string) (*models.Fee, error) {
	var found *models.Fee
	err := r.store.read(ctx, "fees.find", func() error {
		idx := r.store.feeIndex(id)
		if idx < 0 {
			return ErrFeeNotFound
		}
		fee := r.store.fees[idx]
		found = &fee
		return nil
	})
	return found, err
}

// UpdateStatus overwrites the fee status and returns the updated fee.
func (r *FeeRepository) UpdateStatus(ctx context.Context, id string, status models.FeeStatus) (*models.Fee, error) {
	var updated *models.Fee
	err := r.store.write(ctx, "fees.update_status", func() error {
		idx := r.store.feeIndex(id)
		if idx < 0 {
			return ErrFeeNotFound
		}
		r.store.fees[idx].Status = status
		fee := r.store.fees[idx]
		updated = &fee
		return nil
	})
	return updated, err
}
