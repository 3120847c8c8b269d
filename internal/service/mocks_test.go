package service

import (
	"context"

	"example.com/backstage/services/buildline/config"
	"example.com/backstage/services/buildline/internal/metrics"
	"example.com/backstage/services/buildline/internal/models"
	"example.com/backstage/services/buildline/internal/repository"
	"example.com/backstage/services/buildline/internal/tracing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// mockRepository is a testify mock over the repository interface. Its
// WithTransaction hands the mock itself to the closure, so expectations
// set on it cover the transactional calls too.
type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, txRepo repository.Repository) error) error {
	return fn(ctx, m)
}

func (m *mockRepository) CreateJourney(ctx context.Context, journey *models.AssemblyJourney) error {
	args := m.Called(ctx, journey)
	return args.Error(0)
}

func (m *mockRepository) FindJourneyByBarcode(ctx context.Context, barcode string) (*models.AssemblyJourney, error) {
	args := m.Called(ctx, barcode)
	journey, _ := args.Get(0).(*models.AssemblyJourney)
	return journey, args.Error(1)
}

func (m *mockRepository) LockJourneyByBarcode(ctx context.Context, barcode string) (*models.AssemblyJourney, error) {
	args := m.Called(ctx, barcode)
	journey, _ := args.Get(0).(*models.AssemblyJourney)
	return journey, args.Error(1)
}

func (m *mockRepository) SaveJourney(ctx context.Context, journey *models.AssemblyJourney) error {
	args := m.Called(ctx, journey)
	return args.Error(0)
}

func (m *mockRepository) ListTechnicianQueue(ctx context.Context, technicianID uuid.UUID) ([]*models.AssemblyJourney, error) {
	args := m.Called(ctx, technicianID)
	journeys, _ := args.Get(0).([]*models.AssemblyJourney)
	return journeys, args.Error(1)
}

func (m *mockRepository) ListJourneysByStatus(ctx context.Context, status models.JourneyStatus) ([]*models.AssemblyJourney, error) {
	args := m.Called(ctx, status)
	journeys, _ := args.Get(0).([]*models.AssemblyJourney)
	return journeys, args.Error(1)
}

func (m *mockRepository) ListActiveJourneys(ctx context.Context) ([]*models.AssemblyJourney, error) {
	args := m.Called(ctx)
	journeys, _ := args.Get(0).([]*models.AssemblyJourney)
	return journeys, args.Error(1)
}

func (m *mockRepository) CountJourneysByStatus(ctx context.Context) (map[models.JourneyStatus]int64, error) {
	args := m.Called(ctx)
	counts, _ := args.Get(0).(map[models.JourneyStatus]int64)
	return counts, args.Error(1)
}

func (m *mockRepository) CountActiveByTechnician(ctx context.Context) ([]repository.TechnicianLoad, error) {
	args := m.Called(ctx)
	rows, _ := args.Get(0).([]repository.TechnicianLoad)
	return rows, args.Error(1)
}

func (m *mockRepository) FindBinByID(ctx context.Context, id uuid.UUID) (*models.AssemblyBin, error) {
	args := m.Called(ctx, id)
	bin, _ := args.Get(0).(*models.AssemblyBin)
	return bin, args.Error(1)
}

func (m *mockRepository) ListActiveBinsInZone(ctx context.Context, locationID uuid.UUID, zone models.BinZone) ([]*models.AssemblyBin, error) {
	args := m.Called(ctx, locationID, zone)
	bins, _ := args.Get(0).([]*models.AssemblyBin)
	return bins, args.Error(1)
}

func (m *mockRepository) ReserveSlot(ctx context.Context, binID uuid.UUID) error {
	args := m.Called(ctx, binID)
	return args.Error(0)
}

func (m *mockRepository) ReleaseSlot(ctx context.Context, binID uuid.UUID) error {
	args := m.Called(ctx, binID)
	return args.Error(0)
}

func (m *mockRepository) RecordStatusChange(ctx context.Context, entry *models.StatusHistory) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *mockRepository) RecordLocationChange(ctx context.Context, entry *models.LocationHistory) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *mockRepository) RecordBinMovement(ctx context.Context, entry *models.BinMovementHistory) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *mockRepository) ListStatusHistory(ctx context.Context, journeyID uuid.UUID) ([]*models.StatusHistory, error) {
	args := m.Called(ctx, journeyID)
	entries, _ := args.Get(0).([]*models.StatusHistory)
	return entries, args.Error(1)
}

func (m *mockRepository) ListBinMovements(ctx context.Context, journeyID uuid.UUID) ([]*models.BinMovementHistory, error) {
	args := m.Called(ctx, journeyID)
	entries, _ := args.Get(0).([]*models.BinMovementHistory)
	return entries, args.Error(1)
}

func (m *mockRepository) CreateQcChecklist(ctx context.Context, checklist *models.QcChecklist) error {
	args := m.Called(ctx, checklist)
	return args.Error(0)
}

func (m *mockRepository) FindOpenQcChecklist(ctx context.Context, journeyID uuid.UUID) (*models.QcChecklist, error) {
	args := m.Called(ctx, journeyID)
	checklist, _ := args.Get(0).(*models.QcChecklist)
	return checklist, args.Error(1)
}

func (m *mockRepository) SaveQcChecklist(ctx context.Context, checklist *models.QcChecklist) error {
	args := m.Called(ctx, checklist)
	return args.Error(0)
}

// newTestWorkflow wires a workflow service around a mock repository with
// tracing disabled and no bus or search attached.
func newTestWorkflow(repo repository.Repository, requireQc bool) *WorkflowService {
	tracer, _ := tracing.NewTracer(config.TracingConfig{})
	return &WorkflowService{
		repo:      repo,
		allocator: NewBinAllocator(),
		tracer:    tracer,
		metrics:   metrics.NewMetrics(),
		requireQc: requireQc,
	}
}
