package repository

import (
	"context"

	"example.com/backstage/services/buildline/internal/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// CreateQcChecklist creates a new QC inspection record
func (r *repo) CreateQcChecklist(ctx context.Context, checklist *models.QcChecklist) error {
	if checklist.ID == uuid.Nil {
		checklist.ID = uuid.New()
	}
	return errors.Wrap(r.db.WithContext(ctx).Create(checklist).Error,
		"failed to create qc checklist")
}

// FindOpenQcChecklist gets the pending QC inspection for a journey, if any
func (r *repo) FindOpenQcChecklist(ctx context.Context, journeyID uuid.UUID) (*models.QcChecklist, error) {
	var checklist models.QcChecklist
	err := r.db.WithContext(ctx).
		Where("journey_id = ? AND result = ?", journeyID, models.QcPending).
		Order("created_at DESC").
		First(&checklist).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to get open qc checklist")
	}
	return &checklist, nil
}

// SaveQcChecklist persists all fields of a QC inspection record
func (r *repo) SaveQcChecklist(ctx context.Context, checklist *models.QcChecklist) error {
	return errors.Wrap(r.db.WithContext(ctx).Save(checklist).Error,
		"failed to save qc checklist")
}
