package service

import (
	"context"
	"time"

	"example.com/backstage/services/buildline/config"
	"example.com/backstage/services/buildline/internal/cache"
	"example.com/backstage/services/buildline/internal/models"
	"example.com/backstage/services/buildline/internal/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// JourneySummary is the read-model projection of a journey used by the
// dashboard surfaces.
type JourneySummary struct {
	Barcode      string               `json:"barcode"`
	ModelSku     string               `json:"model_sku"`
	Status       models.JourneyStatus `json:"status"`
	Priority     bool                 `json:"priority"`
	TechnicianID *uuid.UUID           `json:"technician_id,omitempty"`
	BinID        *uuid.UUID           `json:"bin_id,omitempty"`
	AssignedAt   *time.Time           `json:"assigned_at,omitempty"`
	DwellSeconds int64                `json:"dwell_seconds"`
}

// KanbanBoard groups active journeys by stage.
type KanbanBoard struct {
	Columns     map[models.JourneyStatus][]JourneySummary `json:"columns"`
	GeneratedAt time.Time                                 `json:"generated_at"`
}

// WorkloadEntry is one technician's share of active work.
type WorkloadEntry struct {
	TechnicianID uuid.UUID `json:"technician_id"`
	Assigned     int64     `json:"assigned"`
	InProgress   int64     `json:"in_progress"`
}

// WorkloadReport is the per-technician workload aggregate.
type WorkloadReport struct {
	Entries     []WorkloadEntry `json:"entries"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// BottleneckReport lists per-stage counts and the journeys dwelling past the
// configured threshold. Detection is read-only; nothing is auto-escalated.
type BottleneckReport struct {
	StageCounts  map[models.JourneyStatus]int64 `json:"stage_counts"`
	Aging        []JourneySummary               `json:"aging"`
	ThresholdSec int64                          `json:"threshold_seconds"`
	GeneratedAt  time.Time                      `json:"generated_at"`
}

// ReportService serves the read-only query surface over the journey store.
type ReportService struct {
	repo       repository.Repository
	cache      *cache.RedisCache
	cacheTTL   time.Duration
	dwellLimit time.Duration
}

// NewReportService creates a new report service
func NewReportService(repo repository.Repository, redisCache *cache.RedisCache, cfg config.WorkflowConfig) *ReportService {
	return &ReportService{
		repo:       repo,
		cache:      redisCache,
		cacheTTL:   cfg.ReportCacheTTL,
		dwellLimit: cfg.BottleneckDwell,
	}
}

// GetJourney returns a single journey by barcode.
func (s *ReportService) GetJourney(ctx context.Context, barcode string) (*models.AssemblyJourney, error) {
	return s.repo.FindJourneyByBarcode(ctx, barcode)
}

// GetBin returns a single bin with its current occupancy.
func (s *ReportService) GetBin(ctx context.Context, id uuid.UUID) (*models.AssemblyBin, error) {
	return s.repo.FindBinByID(ctx, id)
}

// GetJourneyHistory returns a journey's status and bin movement trails.
func (s *ReportService) GetJourneyHistory(ctx context.Context, barcode string) ([]*models.StatusHistory, []*models.BinMovementHistory, error) {
	journey, err := s.repo.FindJourneyByBarcode(ctx, barcode)
	if err != nil {
		return nil, nil, err
	}
	statuses, err := s.repo.ListStatusHistory(ctx, journey.ID)
	if err != nil {
		return nil, nil, err
	}
	movements, err := s.repo.ListBinMovements(ctx, journey.ID)
	if err != nil {
		return nil, nil, err
	}
	return statuses, movements, nil
}

// GetTechnicianQueue returns a technician's active journeys, priority first,
// then oldest assignment first.
func (s *ReportService) GetTechnicianQueue(ctx context.Context, technicianID uuid.UUID) ([]JourneySummary, error) {
	key := cache.QueueCacheKey(technicianID)
	var cached []JourneySummary
	if s.cache != nil {
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	journeys, err := s.repo.ListTechnicianQueue(ctx, technicianID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	queue := make([]JourneySummary, 0, len(journeys))
	for _, journey := range journeys {
		queue = append(queue, summarize(journey, now))
	}

	s.cacheSet(ctx, key, queue)
	return queue, nil
}

// GetJourneysByStatus returns every journey currently in the given stage,
// oldest entry first. Used by floor supervisors to pull one stage's worth of
// work without the full kanban board.
func (s *ReportService) GetJourneysByStatus(ctx context.Context, status models.JourneyStatus) ([]JourneySummary, error) {
	if !status.Valid() {
		return nil, errors.Errorf("unknown status %q", status)
	}

	journeys, err := s.repo.ListJourneysByStatus(ctx, status)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	summaries := make([]JourneySummary, 0, len(journeys))
	for _, journey := range journeys {
		summaries = append(summaries, summarize(journey, now))
	}
	return summaries, nil
}

// GetKanbanBoard returns active journeys grouped by stage.
func (s *ReportService) GetKanbanBoard(ctx context.Context) (*KanbanBoard, error) {
	key := cache.KanbanCacheKey()
	var cached KanbanBoard
	if s.cache != nil {
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	journeys, err := s.repo.ListActiveJourneys(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	board := &KanbanBoard{
		Columns:     make(map[models.JourneyStatus][]JourneySummary),
		GeneratedAt: now,
	}
	for _, journey := range journeys {
		board.Columns[journey.CurrentStatus] = append(
			board.Columns[journey.CurrentStatus], summarize(journey, now))
	}

	s.cacheSet(ctx, key, board)
	return board, nil
}

// GetWorkloadReport returns active journey counts per technician.
func (s *ReportService) GetWorkloadReport(ctx context.Context) (*WorkloadReport, error) {
	key := cache.WorkloadCacheKey()
	var cached WorkloadReport
	if s.cache != nil {
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	rows, err := s.repo.CountActiveByTechnician(ctx)
	if err != nil {
		return nil, err
	}

	byTech := make(map[uuid.UUID]*WorkloadEntry)
	order := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		entry, ok := byTech[row.TechnicianID]
		if !ok {
			entry = &WorkloadEntry{TechnicianID: row.TechnicianID}
			byTech[row.TechnicianID] = entry
			order = append(order, row.TechnicianID)
		}
		switch row.Status {
		case models.StatusAssigned:
			entry.Assigned = row.Count
		case models.StatusInProgress:
			entry.InProgress = row.Count
		}
	}

	report := &WorkloadReport{GeneratedAt: time.Now()}
	for _, id := range order {
		report.Entries = append(report.Entries, *byTech[id])
	}

	s.cacheSet(ctx, key, report)
	return report, nil
}

// GetBottleneckReport returns per-stage counts plus the journeys whose dwell
// time in their current stage exceeds the configured threshold.
func (s *ReportService) GetBottleneckReport(ctx context.Context) (*BottleneckReport, error) {
	var (
		counts   map[models.JourneyStatus]int64
		journeys []*models.AssemblyJourney
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		counts, err = s.repo.CountJourneysByStatus(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		journeys, err = s.repo.ListActiveJourneys(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "failed to build bottleneck report")
	}

	now := time.Now()
	report := &BottleneckReport{
		StageCounts:  counts,
		ThresholdSec: int64(s.dwellLimit.Seconds()),
		GeneratedAt:  now,
	}
	for _, journey := range journeys {
		summary := summarize(journey, now)
		if time.Duration(summary.DwellSeconds)*time.Second >= s.dwellLimit {
			report.Aging = append(report.Aging, summary)
		}
	}
	return report, nil
}

func (s *ReportService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to cache report")
	}
}

func summarize(journey *models.AssemblyJourney, now time.Time) JourneySummary {
	return JourneySummary{
		Barcode:      journey.Barcode,
		ModelSku:     journey.ModelSku,
		Status:       journey.CurrentStatus,
		Priority:     journey.Priority,
		TechnicianID: journey.TechnicianID,
		BinID:        journey.BinLocationID,
		AssignedAt:   journey.AssignedAt,
		DwellSeconds: int64(now.Sub(stageEnteredAt(journey)).Seconds()),
	}
}

// stageEnteredAt finds when a journey entered its current stage. A journey
// back in in_progress after a QC failure re-entered at the QC verdict, not at
// its original start.
func stageEnteredAt(journey *models.AssemblyJourney) time.Time {
	var entered *time.Time
	switch journey.CurrentStatus {
	case models.StatusInwarded:
		entered = journey.InwardedAt
	case models.StatusAssigned:
		entered = journey.AssignedAt
	case models.StatusInProgress:
		entered = journey.StartedAt
		if journey.ReworkCount > 0 && journey.QcCompletedAt != nil &&
			(entered == nil || journey.QcCompletedAt.After(*entered)) {
			entered = journey.QcCompletedAt
		}
	case models.StatusCompleted:
		entered = journey.CompletedAt
	case models.StatusQcReview:
		entered = journey.QcStartedAt
	case models.StatusReadyForSale:
		entered = journey.QcCompletedAt
	}
	if entered == nil {
		return journey.UpdatedAt
	}
	return *entered
}
