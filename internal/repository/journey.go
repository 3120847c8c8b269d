package repository

import (
	"context"

	"example.com/backstage/services/buildline/internal/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateJourney creates a new assembly journey
func (r *repo) CreateJourney(ctx context.Context, journey *models.AssemblyJourney) error {
	err := r.db.WithContext(ctx).Create(journey).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateBarcode
		}
		return errors.Wrap(err, "failed to create journey")
	}
	return nil
}

// FindJourneyByBarcode gets a journey by its barcode
func (r *repo) FindJourneyByBarcode(ctx context.Context, barcode string) (*models.AssemblyJourney, error) {
	var journey models.AssemblyJourney
	err := r.db.WithContext(ctx).Where("barcode = ?", barcode).First(&journey).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to get journey by barcode")
	}
	return &journey, nil
}

// LockJourneyByBarcode gets a journey by barcode with a row-level write lock.
// Only meaningful inside WithTransaction; the lock is held until commit so a
// guard check and its mutation are indivisible against concurrent callers.
func (r *repo) LockJourneyByBarcode(ctx context.Context, barcode string) (*models.AssemblyJourney, error) {
	var journey models.AssemblyJourney
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("barcode = ?", barcode).
		First(&journey).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to lock journey by barcode")
	}
	return &journey, nil
}

// SaveJourney persists all fields of a journey
func (r *repo) SaveJourney(ctx context.Context, journey *models.AssemblyJourney) error {
	return errors.Wrap(r.db.WithContext(ctx).Save(journey).Error, "failed to save journey")
}

// ListTechnicianQueue lists a technician's active journeys, priority items
// first, then oldest assignment first.
func (r *repo) ListTechnicianQueue(ctx context.Context, technicianID uuid.UUID) ([]*models.AssemblyJourney, error) {
	var journeys []*models.AssemblyJourney
	err := r.db.WithContext(ctx).
		Where("technician_id = ? AND current_status IN ?", technicianID,
			[]models.JourneyStatus{models.StatusAssigned, models.StatusInProgress}).
		Order("priority DESC, assigned_at ASC").
		Find(&journeys).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list technician queue")
	}
	return journeys, nil
}

// ListJourneysByStatus lists journeys currently in the given stage
func (r *repo) ListJourneysByStatus(ctx context.Context, status models.JourneyStatus) ([]*models.AssemblyJourney, error) {
	var journeys []*models.AssemblyJourney
	err := r.db.WithContext(ctx).
		Where("current_status = ?", status).
		Order("priority DESC, updated_at ASC").
		Find(&journeys).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list journeys by status")
	}
	return journeys, nil
}

// ListActiveJourneys lists every journey that has not reached ready_for_sale
func (r *repo) ListActiveJourneys(ctx context.Context) ([]*models.AssemblyJourney, error) {
	var journeys []*models.AssemblyJourney
	err := r.db.WithContext(ctx).
		Where("current_status <> ?", models.StatusReadyForSale).
		Find(&journeys).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list active journeys")
	}
	return journeys, nil
}

// CountJourneysByStatus counts journeys per stage
func (r *repo) CountJourneysByStatus(ctx context.Context) (map[models.JourneyStatus]int64, error) {
	var rows []struct {
		CurrentStatus models.JourneyStatus
		Count         int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.AssemblyJourney{}).
		Select("current_status, count(*) as count").
		Group("current_status").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to count journeys by status")
	}

	counts := make(map[models.JourneyStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.CurrentStatus] = row.Count
	}
	return counts, nil
}

// CountActiveByTechnician counts assigned and in-progress journeys per technician
func (r *repo) CountActiveByTechnician(ctx context.Context) ([]TechnicianLoad, error) {
	var rows []TechnicianLoad
	err := r.db.WithContext(ctx).
		Model(&models.AssemblyJourney{}).
		Select("technician_id, current_status as status, count(*) as count").
		Where("technician_id IS NOT NULL AND current_status IN ?",
			[]models.JourneyStatus{models.StatusAssigned, models.StatusInProgress}).
		Group("technician_id, current_status").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to count journeys by technician")
	}
	return rows, nil
}
