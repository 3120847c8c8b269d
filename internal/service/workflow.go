package service

import (
	"context"
	"fmt"
	"time"

	"example.com/backstage/services/buildline/config"
	"example.com/backstage/services/buildline/internal/cache"
	"example.com/backstage/services/buildline/internal/messaging"
	"example.com/backstage/services/buildline/internal/metrics"
	"example.com/backstage/services/buildline/internal/models"
	"example.com/backstage/services/buildline/internal/repository"
	"example.com/backstage/services/buildline/internal/search"
	"example.com/backstage/services/buildline/internal/tracing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// WorkflowService is the guarded state machine over assembly journeys. Every
// transition runs as one transaction: guard check on the locked journey row,
// field mutation, audit rows, bin re-placement. Event publishing and search
// indexing happen after commit and are best-effort.
type WorkflowService struct {
	repo      repository.Repository
	allocator *BinAllocator
	publisher messaging.ServiceBusClient
	search    *search.ElasticClient
	cache     *cache.RedisCache
	tracer    tracing.Tracer
	metrics   *metrics.Metrics
	requireQc bool
}

// NewWorkflowService creates a new workflow service
func NewWorkflowService(
	repo repository.Repository,
	publisher messaging.ServiceBusClient,
	searchClient *search.ElasticClient,
	redisCache *cache.RedisCache,
	tracer tracing.Tracer,
	collector *metrics.Metrics,
	cfg config.WorkflowConfig,
) *WorkflowService {
	return &WorkflowService{
		repo:      repo,
		allocator: NewBinAllocator(),
		publisher: publisher,
		search:    searchClient,
		cache:     redisCache,
		tracer:    tracer,
		metrics:   collector,
		requireQc: cfg.RequireQc,
	}
}

// applyStatusChange moves a locked journey to a new stage: one status history
// row, then the allocator, then the journey row itself. Callers set stage
// timestamps and assignee fields before invoking it.
func (s *WorkflowService) applyStatusChange(
	ctx context.Context,
	r repository.Repository,
	journey *models.AssemblyJourney,
	to models.JourneyStatus,
	actor *uuid.UUID,
	reason string,
) error {
	from := journey.CurrentStatus
	journey.CurrentStatus = to

	if err := r.RecordStatusChange(ctx, &models.StatusHistory{
		JourneyID:  journey.ID,
		FromStatus: from,
		ToStatus:   to,
		ActorID:    actor,
		Reason:     reason,
	}); err != nil {
		return err
	}

	if _, err := s.allocator.AutoAssignBin(ctx, r, journey, from, to); err != nil {
		return err
	}

	return r.SaveJourney(ctx, journey)
}

// afterTransition handles the best-effort side effects of a committed
// transition: bus event, search index refresh, counters, log line.
func (s *WorkflowService) afterTransition(ctx context.Context, journey *models.AssemblyJourney, from models.JourneyStatus, actor *uuid.UUID) {
	s.metrics.IncrementCounter("transition." + string(journey.CurrentStatus))

	if s.publisher != nil {
		event := TransitionEvent{
			Barcode:    journey.Barcode,
			FromStatus: from,
			ToStatus:   journey.CurrentStatus,
			ActorID:    actor,
			BinID:      journey.BinLocationID,
			OccurredAt: time.Now().UTC(),
		}
		if err := s.publisher.SendMessage(ctx, event, journey.Barcode); err != nil {
			log.Warn().Err(err).Str("barcode", journey.Barcode).
				Msg("failed to publish transition event")
		}
	}

	if s.search != nil {
		if err := s.search.IndexJourney(ctx, journey); err != nil {
			log.Warn().Err(err).Str("barcode", journey.Barcode).
				Msg("failed to index journey")
		}
	}

	if s.cache != nil {
		keys := []string{cache.KanbanCacheKey(), cache.WorkloadCacheKey()}
		if journey.TechnicianID != nil {
			keys = append(keys, cache.QueueCacheKey(*journey.TechnicianID))
		}
		if err := s.cache.Invalidate(ctx, keys...); err != nil {
			log.Warn().Err(err).Str("barcode", journey.Barcode).
				Msg("failed to invalidate report cache")
		}
	}

	log.Info().
		Str("barcode", journey.Barcode).
		Str("from", string(from)).
		Str("to", string(journey.CurrentStatus)).
		Msg("journey transitioned")
}

// InwardJourney registers a newly received bicycle and places it in the
// inward zone. This is the intake entry point that every journey starts from.
func (s *WorkflowService) InwardJourney(ctx context.Context, req InwardRequest) (*TransitionResult, error) {
	txn := s.tracer.StartTransaction("inward-journey")
	defer s.tracer.EndTransaction(txn)
	s.tracer.AddAttribute(txn, "barcode", req.Barcode)

	if req.Barcode == "" {
		return failure(nil, "barcode is required"), nil
	}

	now := time.Now()
	journey := &models.AssemblyJourney{
		ID:                uuid.New(),
		Barcode:           req.Barcode,
		ModelSku:          req.ModelSku,
		FrameNumber:       req.FrameNumber,
		CurrentStatus:     models.StatusInwarded,
		CurrentLocationID: req.LocationID,
		Priority:          req.Priority,
		QcStatus:          models.QcPending,
		InwardedAt:        &now,
	}

	var res *TransitionResult
	span := s.tracer.StartSpan("persist-journey", txn)
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, r repository.Repository) error {
		if err := r.CreateJourney(ctx, journey); err != nil {
			if errors.Is(err, repository.ErrDuplicateBarcode) {
				res = failure(nil, fmt.Sprintf("barcode %s is already registered", req.Barcode))
				return nil
			}
			return err
		}
		newBin, err := s.allocator.AutoAssignBin(ctx, r, journey, models.StatusInwarded, models.StatusInwarded)
		if err != nil {
			return err
		}
		if newBin != nil {
			if err := r.SaveJourney(ctx, journey); err != nil {
				return err
			}
		}
		res = success(journey, "journey inwarded")
		return nil
	})
	span.End()
	if err != nil {
		s.tracer.RecordError(txn, err)
		return nil, err
	}
	if res.Success {
		s.afterTransition(ctx, journey, models.StatusInwarded, nil)
	}
	return res, nil
}

// AssignToTechnician hands an inwarded bicycle to a technician.
func (s *WorkflowService) AssignToTechnician(ctx context.Context, barcode string, technicianID, supervisorID uuid.UUID) (*TransitionResult, error) {
	txn := s.tracer.StartTransaction("assign-to-technician")
	defer s.tracer.EndTransaction(txn)

	var res *TransitionResult
	var journey *models.AssemblyJourney
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, r repository.Repository) error {
		var err error
		journey, err = r.LockJourneyByBarcode(ctx, barcode)
		if err != nil {
			return err
		}
		if journey.CurrentStatus != models.StatusInwarded {
			res = failure(journey, fmt.Sprintf("cannot assign: journey is %s, expected %s",
				journey.CurrentStatus, models.StatusInwarded))
			return nil
		}

		now := time.Now()
		journey.TechnicianID = &technicianID
		journey.SupervisorID = &supervisorID
		journey.AssignedAt = &now
		if err := s.applyStatusChange(ctx, r, journey, models.StatusAssigned, &supervisorID, "assigned to technician"); err != nil {
			return err
		}
		res = success(journey, "journey assigned")
		return nil
	})
	if err != nil {
		s.tracer.RecordError(txn, err)
		return nil, err
	}
	if res.Success {
		s.afterTransition(ctx, journey, models.StatusInwarded, &supervisorID)
	} else {
		s.metrics.IncrementCounter("transition.rejected")
	}
	return res, nil
}

// StartAssembly records that the assigned technician began work.
func (s *WorkflowService) StartAssembly(ctx context.Context, barcode string, technicianID uuid.UUID) (*TransitionResult, error) {
	txn := s.tracer.StartTransaction("start-assembly")
	defer s.tracer.EndTransaction(txn)

	var res *TransitionResult
	var journey *models.AssemblyJourney
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, r repository.Repository) error {
		var err error
		journey, err = r.LockJourneyByBarcode(ctx, barcode)
		if err != nil {
			return err
		}
		if journey.CurrentStatus != models.StatusAssigned {
			res = failure(journey, fmt.Sprintf("cannot start: journey is %s, expected %s",
				journey.CurrentStatus, models.StatusAssigned))
			return nil
		}
		if journey.TechnicianID == nil || *journey.TechnicianID != technicianID {
			res = failure(journey, "journey is assigned to a different technician")
			return nil
		}

		now := time.Now()
		journey.StartedAt = &now
		if err := s.applyStatusChange(ctx, r, journey, models.StatusInProgress, &technicianID, "assembly started"); err != nil {
			return err
		}
		res = success(journey, "assembly started")
		return nil
	})
	if err != nil {
		s.tracer.RecordError(txn, err)
		return nil, err
	}
	if res.Success {
		s.afterTransition(ctx, journey, models.StatusAssigned, &technicianID)
	} else {
		s.metrics.IncrementCounter("transition.rejected")
	}
	return res, nil
}

// CompleteAssembly finishes assembly against a fully ticked checklist. With
// QC disabled the journey is self-certified straight to ready_for_sale; with
// QC required it lands in completed and waits for the inspection stage.
func (s *WorkflowService) CompleteAssembly(ctx context.Context, barcode string, technicianID uuid.UUID, checklist models.Checklist) (*TransitionResult, error) {
	txn := s.tracer.StartTransaction("complete-assembly")
	defer s.tracer.EndTransaction(txn)

	var res *TransitionResult
	var journey *models.AssemblyJourney
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, r repository.Repository) error {
		var err error
		journey, err = r.LockJourneyByBarcode(ctx, barcode)
		if err != nil {
			return err
		}
		if journey.CurrentStatus != models.StatusInProgress {
			res = failure(journey, fmt.Sprintf("cannot complete: journey is %s, expected %s",
				journey.CurrentStatus, models.StatusInProgress))
			return nil
		}
		if journey.TechnicianID == nil || *journey.TechnicianID != technicianID {
			res = failure(journey, "journey is assigned to a different technician")
			return nil
		}
		if !checklist.Complete() {
			res = failure(journey, "checklist incomplete: tyres, brakes and gears must all be checked")
			return nil
		}

		now := time.Now()
		journey.Checklist = checklist
		journey.CompletedAt = &now

		target := models.StatusCompleted
		reason := "assembly completed, awaiting QC"
		if !s.requireQc {
			target = models.StatusReadyForSale
			reason = "assembly completed, self-certified"
			journey.QcStatus = models.QcPass
			journey.QcCompletedAt = &now
		}
		if err := s.applyStatusChange(ctx, r, journey, target, &technicianID, reason); err != nil {
			return err
		}
		res = success(journey, reason)
		return nil
	})
	if err != nil {
		s.tracer.RecordError(txn, err)
		return nil, err
	}
	if res.Success {
		s.afterTransition(ctx, journey, models.StatusInProgress, &technicianID)
	} else {
		s.metrics.IncrementCounter("transition.rejected")
	}
	return res, nil
}

// SendToQc moves a completed bicycle into QC review and opens a detailed
// inspection record for it.
func (s *WorkflowService) SendToQc(ctx context.Context, barcode string, qcPersonID uuid.UUID) (*TransitionResult, error) {
	txn := s.tracer.StartTransaction("send-to-qc")
	defer s.tracer.EndTransaction(txn)

	var res *TransitionResult
	var journey *models.AssemblyJourney
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, r repository.Repository) error {
		var err error
		journey, err = r.LockJourneyByBarcode(ctx, barcode)
		if err != nil {
			return err
		}
		if journey.CurrentStatus != models.StatusCompleted {
			res = failure(journey, fmt.Sprintf("cannot send to QC: journey is %s, expected %s",
				journey.CurrentStatus, models.StatusCompleted))
			return nil
		}

		now := time.Now()
		journey.QcPersonID = &qcPersonID
		journey.QcStartedAt = &now
		journey.QcStatus = models.QcPending
		if err := s.applyStatusChange(ctx, r, journey, models.StatusQcReview, &qcPersonID, "sent to QC review"); err != nil {
			return err
		}

		if err := r.CreateQcChecklist(ctx, &models.QcChecklist{
			JourneyID:  journey.ID,
			QcPersonID: &qcPersonID,
			Result:     models.QcPending,
			StartedAt:  &now,
		}); err != nil {
			return err
		}
		res = success(journey, "journey sent to QC review")
		return nil
	})
	if err != nil {
		s.tracer.RecordError(txn, err)
		return nil, err
	}
	if res.Success {
		s.afterTransition(ctx, journey, models.StatusCompleted, &qcPersonID)
	} else {
		s.metrics.IncrementCounter("transition.rejected")
	}
	return res, nil
}

// SubmitQcResult records a QC verdict: pass releases the bicycle for sale,
// fail sends it back to assembly and counts one rework.
func (s *WorkflowService) SubmitQcResult(
	ctx context.Context,
	barcode string,
	qcPersonID uuid.UUID,
	result models.QcResult,
	failureReason string,
	photos []string,
	inspection *QcInspection,
) (*TransitionResult, error) {
	txn := s.tracer.StartTransaction("submit-qc-result")
	defer s.tracer.EndTransaction(txn)
	s.tracer.AddAttribute(txn, "barcode", barcode)
	s.tracer.AddAttribute(txn, "qc_result", string(result))

	if result != models.QcPass && result != models.QcFail {
		return failure(nil, fmt.Sprintf("invalid qc result %q, must be pass or fail", result)), nil
	}

	var res *TransitionResult
	var journey *models.AssemblyJourney
	var from models.JourneyStatus
	span := s.tracer.StartSpan("record-qc-verdict", txn)
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, r repository.Repository) error {
		var err error
		journey, err = r.LockJourneyByBarcode(ctx, barcode)
		if err != nil {
			return err
		}
		from = journey.CurrentStatus
		if from != models.StatusCompleted && from != models.StatusQcReview {
			res = failure(journey, fmt.Sprintf("cannot submit QC result: journey is %s, expected %s or %s",
				from, models.StatusCompleted, models.StatusQcReview))
			return nil
		}

		now := time.Now()
		journey.QcPersonID = &qcPersonID
		journey.QcStatus = result
		journey.QcCompletedAt = &now
		journey.QcFailureReason = failureReason
		if len(photos) > 0 {
			journey.QcPhotos = photos
		}

		target := models.StatusReadyForSale
		reason := "QC passed"
		if result == models.QcFail {
			target = models.StatusInProgress
			reason = "QC failed, returned for rework"
			journey.ReworkCount++
		}
		if err := s.applyStatusChange(ctx, r, journey, target, &qcPersonID, reason); err != nil {
			return err
		}

		if err := s.closeQcChecklist(ctx, r, journey, qcPersonID, result, failureReason, photos, inspection, now); err != nil {
			return err
		}
		res = success(journey, reason)
		return nil
	})
	span.End()
	if err != nil {
		s.tracer.RecordError(txn, err)
		return nil, err
	}
	if res.Success {
		s.afterTransition(ctx, journey, from, &qcPersonID)
		if result == models.QcFail {
			s.metrics.IncrementCounter("qc.failed")
		} else {
			s.metrics.IncrementCounter("qc.passed")
		}
	} else {
		s.metrics.IncrementCounter("transition.rejected")
	}
	return res, nil
}

// closeQcChecklist finalizes the open inspection record, or creates a closed
// one when the verdict arrived without a prior SendToQc.
func (s *WorkflowService) closeQcChecklist(
	ctx context.Context,
	r repository.Repository,
	journey *models.AssemblyJourney,
	qcPersonID uuid.UUID,
	result models.QcResult,
	failureReason string,
	photos []string,
	inspection *QcInspection,
	completedAt time.Time,
) error {
	checklist, err := r.FindOpenQcChecklist(ctx, journey.ID)
	if errors.Is(err, repository.ErrNotFound) {
		checklist = &models.QcChecklist{
			JourneyID: journey.ID,
			StartedAt: &completedAt,
		}
		err = r.CreateQcChecklist(ctx, checklist)
	}
	if err != nil {
		return err
	}

	checklist.QcPersonID = &qcPersonID
	checklist.Result = result
	checklist.FailureReason = failureReason
	checklist.Photos = photos
	checklist.CompletedAt = &completedAt
	if inspection != nil {
		checklist.BrakePass = inspection.BrakePass
		checklist.BrakeNotes = inspection.BrakeNotes
		checklist.DrivetrainPass = inspection.DrivetrainPass
		checklist.DrivetrainNotes = inspection.DrivetrainNotes
		checklist.AlignmentPass = inspection.AlignmentPass
		checklist.AlignmentNotes = inspection.AlignmentNotes
		checklist.TorquePass = inspection.TorquePass
		checklist.TorqueNotes = inspection.TorqueNotes
		checklist.AccessoriesPass = inspection.AccessoriesPass
		checklist.AccessoryNotes = inspection.AccessoryNotes
	}
	return r.SaveQcChecklist(ctx, checklist)
}

// MoveBikeToBin is the manual override: any stage, any bin with free
// capacity, recorded as a non-automatic movement.
func (s *WorkflowService) MoveBikeToBin(ctx context.Context, barcode string, newBinID uuid.UUID, actorID uuid.UUID, reason string) (*TransitionResult, error) {
	txn := s.tracer.StartTransaction("move-bike-to-bin")
	defer s.tracer.EndTransaction(txn)

	var res *TransitionResult
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, r repository.Repository) error {
		journey, err := r.LockJourneyByBarcode(ctx, barcode)
		if err != nil {
			return err
		}
		if journey.BinLocationID != nil && *journey.BinLocationID == newBinID {
			res = failure(journey, "journey is already in that bin")
			return nil
		}

		if err := r.ReserveSlot(ctx, newBinID); err != nil {
			switch {
			case errors.Is(err, repository.ErrNotFound):
				res = failure(journey, "target bin not found")
				return nil
			case errors.Is(err, repository.ErrCapacityExceeded):
				res = failure(journey, "target bin is at capacity or inactive")
				return nil
			}
			return err
		}

		previous := journey.BinLocationID
		if previous != nil {
			if err := r.ReleaseSlot(ctx, *previous); err != nil {
				return err
			}
		}

		if err := r.RecordBinMovement(ctx, &models.BinMovementHistory{
			JourneyID:    journey.ID,
			FromBinID:    previous,
			ToBinID:      &newBinID,
			FromStatus:   journey.CurrentStatus,
			ToStatus:     journey.CurrentStatus,
			ActorID:      &actorID,
			Reason:       reason,
			AutoAssigned: false,
		}); err != nil {
			return err
		}

		journey.BinLocationID = &newBinID
		if err := r.SaveJourney(ctx, journey); err != nil {
			return err
		}
		res = success(journey, "journey moved to bin")
		return nil
	})
	if err != nil {
		s.tracer.RecordError(txn, err)
		return nil, err
	}
	if res.Success {
		s.metrics.IncrementCounter("bin.manual_move")
	}
	return res, nil
}

// TransferLocation moves a journey to another physical location and lets the
// allocator re-place it into a matching zone there.
func (s *WorkflowService) TransferLocation(ctx context.Context, barcode string, newLocationID uuid.UUID, actorID uuid.UUID, reason string) (*TransitionResult, error) {
	txn := s.tracer.StartTransaction("transfer-location")
	defer s.tracer.EndTransaction(txn)

	var res *TransitionResult
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, r repository.Repository) error {
		journey, err := r.LockJourneyByBarcode(ctx, barcode)
		if err != nil {
			return err
		}
		if journey.CurrentLocationID != nil && *journey.CurrentLocationID == newLocationID {
			res = failure(journey, "journey is already at that location")
			return nil
		}

		previous := journey.CurrentLocationID
		journey.CurrentLocationID = &newLocationID
		if err := r.RecordLocationChange(ctx, &models.LocationHistory{
			JourneyID:      journey.ID,
			FromLocationID: previous,
			ToLocationID:   &newLocationID,
			ActorID:        &actorID,
			Reason:         reason,
		}); err != nil {
			return err
		}

		if _, err := s.allocator.AutoAssignBin(ctx, r, journey, journey.CurrentStatus, journey.CurrentStatus); err != nil {
			return err
		}
		if err := r.SaveJourney(ctx, journey); err != nil {
			return err
		}
		res = success(journey, "journey transferred")
		return nil
	})
	if err != nil {
		s.tracer.RecordError(txn, err)
		return nil, err
	}
	if res.Success {
		s.metrics.IncrementCounter("location.transfer")
	}
	return res, nil
}
