package repository

import (
	"context"

	"example.com/backstage/services/buildline/internal/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// FindBinByID gets a bin by ID
func (r *repo) FindBinByID(ctx context.Context, id uuid.UUID) (*models.AssemblyBin, error) {
	var bin models.AssemblyBin
	err := r.db.WithContext(ctx).First(&bin, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to get bin by ID")
	}
	return &bin, nil
}

// ListActiveBinsInZone lists active bins in a zone at a location, emptiest
// first, bin code breaking ties so the ordering is deterministic.
func (r *repo) ListActiveBinsInZone(ctx context.Context, locationID uuid.UUID, zone models.BinZone) ([]*models.AssemblyBin, error) {
	var bins []*models.AssemblyBin
	err := r.db.WithContext(ctx).
		Where("location_id = ? AND status_zone = ? AND bin_status = ?",
			locationID, zone, models.BinActive).
		Order("current_occupancy ASC, bin_code ASC").
		Find(&bins).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list active bins in zone")
	}
	return bins, nil
}

// ReserveSlot increments a bin's occupancy. The capacity check and the
// increment are a single conditional UPDATE, so concurrent reservations can
// never push occupancy past capacity.
func (r *repo) ReserveSlot(ctx context.Context, binID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.AssemblyBin{}).
		Where("id = ? AND bin_status = ? AND current_occupancy < capacity",
			binID, models.BinActive).
		UpdateColumn("current_occupancy", gorm.Expr("current_occupancy + 1"))
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to reserve bin slot")
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&models.AssemblyBin{}).
			Where("id = ?", binID).
			Count(&count).Error; err != nil {
			return errors.Wrap(err, "failed to check bin existence")
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrCapacityExceeded
	}
	return nil
}

// ReleaseSlot decrements a bin's occupancy, never below zero.
func (r *repo) ReleaseSlot(ctx context.Context, binID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.AssemblyBin{}).
		Where("id = ? AND current_occupancy > 0", binID).
		UpdateColumn("current_occupancy", gorm.Expr("current_occupancy - 1"))
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to release bin slot")
	}
	// Zero rows means the bin was already empty or unknown; releasing is
	// tolerant of both so a failed transition can always roll back cleanly.
	return nil
}
