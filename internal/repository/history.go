package repository

import (
	"context"

	"example.com/backstage/services/buildline/internal/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// RecordStatusChange appends one status history row. No business validation:
// callers invoke it inside the same transaction as the status change itself.
func (r *repo) RecordStatusChange(ctx context.Context, entry *models.StatusHistory) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	return errors.Wrap(r.db.WithContext(ctx).Create(entry).Error,
		"failed to record status change")
}

// RecordLocationChange appends one location history row
func (r *repo) RecordLocationChange(ctx context.Context, entry *models.LocationHistory) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	return errors.Wrap(r.db.WithContext(ctx).Create(entry).Error,
		"failed to record location change")
}

// RecordBinMovement appends one bin movement row
func (r *repo) RecordBinMovement(ctx context.Context, entry *models.BinMovementHistory) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	return errors.Wrap(r.db.WithContext(ctx).Create(entry).Error,
		"failed to record bin movement")
}

// ListStatusHistory lists a journey's status changes, oldest first
func (r *repo) ListStatusHistory(ctx context.Context, journeyID uuid.UUID) ([]*models.StatusHistory, error) {
	var entries []*models.StatusHistory
	err := r.db.WithContext(ctx).
		Where("journey_id = ?", journeyID).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list status history")
	}
	return entries, nil
}

// ListBinMovements lists a journey's bin movements, oldest first
func (r *repo) ListBinMovements(ctx context.Context, journeyID uuid.UUID) ([]*models.BinMovementHistory, error) {
	var entries []*models.BinMovementHistory
	err := r.db.WithContext(ctx).
		Where("journey_id = ?", journeyID).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list bin movements")
	}
	return entries, nil
}
