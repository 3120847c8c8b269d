package repository

import (
	"context"

	"example.com/backstage/services/buildline/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TechnicianLoad is one row of the per-technician workload aggregate.
type TechnicianLoad struct {
	TechnicianID uuid.UUID            `json:"technician_id"`
	Status       models.JourneyStatus `json:"status"`
	Count        int64                `json:"count"`
}

// Repository provides data access for the assembly workflow. Occupancy and
// audit methods are meant to run inside WithTransaction together with the
// journey mutation they belong to.
type Repository interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context, txRepo Repository) error) error

	// Journey operations
	CreateJourney(ctx context.Context, journey *models.AssemblyJourney) error
	FindJourneyByBarcode(ctx context.Context, barcode string) (*models.AssemblyJourney, error)
	LockJourneyByBarcode(ctx context.Context, barcode string) (*models.AssemblyJourney, error)
	SaveJourney(ctx context.Context, journey *models.AssemblyJourney) error
	ListTechnicianQueue(ctx context.Context, technicianID uuid.UUID) ([]*models.AssemblyJourney, error)
	ListJourneysByStatus(ctx context.Context, status models.JourneyStatus) ([]*models.AssemblyJourney, error)
	ListActiveJourneys(ctx context.Context) ([]*models.AssemblyJourney, error)
	CountJourneysByStatus(ctx context.Context) (map[models.JourneyStatus]int64, error)
	CountActiveByTechnician(ctx context.Context) ([]TechnicianLoad, error)

	// Bin registry operations
	FindBinByID(ctx context.Context, id uuid.UUID) (*models.AssemblyBin, error)
	ListActiveBinsInZone(ctx context.Context, locationID uuid.UUID, zone models.BinZone) ([]*models.AssemblyBin, error)
	ReserveSlot(ctx context.Context, binID uuid.UUID) error
	ReleaseSlot(ctx context.Context, binID uuid.UUID) error

	// Audit trail appenders
	RecordStatusChange(ctx context.Context, entry *models.StatusHistory) error
	RecordLocationChange(ctx context.Context, entry *models.LocationHistory) error
	RecordBinMovement(ctx context.Context, entry *models.BinMovementHistory) error
	ListStatusHistory(ctx context.Context, journeyID uuid.UUID) ([]*models.StatusHistory, error)
	ListBinMovements(ctx context.Context, journeyID uuid.UUID) ([]*models.BinMovementHistory, error)

	// QC checklist operations
	CreateQcChecklist(ctx context.Context, checklist *models.QcChecklist) error
	FindOpenQcChecklist(ctx context.Context, journeyID uuid.UUID) (*models.QcChecklist, error)
	SaveQcChecklist(ctx context.Context, checklist *models.QcChecklist) error
}

// repo is an implementation of the Repository interface
type repo struct {
	db *gorm.DB
}

// NewRepository creates a new repository instance
func NewRepository(db *gorm.DB) Repository {
	return &repo{db: db}
}

// WithTransaction executes the given function within a database transaction
func (r *repo) WithTransaction(ctx context.Context, fn func(ctx context.Context, txRepo Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &repo{db: tx})
	})
}
