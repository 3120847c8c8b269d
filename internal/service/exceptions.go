package service

import (
	"context"
	"fmt"

	"example.com/backstage/services/buildline/internal/models"
	"example.com/backstage/services/buildline/internal/repository"

	"github.com/google/uuid"
)

// Exception flags are an informational side channel: they never change the
// journey's stage and write no audit rows.

// ReportMissingParts flags a journey as blocked on missing parts.
func (s *WorkflowService) ReportMissingParts(ctx context.Context, barcode string, technicianID uuid.UUID, parts []string) (*TransitionResult, error) {
	var res *TransitionResult
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, r repository.Repository) error {
		journey, err := r.LockJourneyByBarcode(ctx, barcode)
		if err != nil {
			return err
		}
		journey.PartsMissing = len(parts) > 0
		journey.PartsMissingList = parts
		if err := r.SaveJourney(ctx, journey); err != nil {
			return err
		}
		res = success(journey, fmt.Sprintf("%d missing parts recorded", len(parts)))
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncrementCounter("exception.parts_missing")
	return res, nil
}

// ReportDamage records damage observed on the asset.
func (s *WorkflowService) ReportDamage(ctx context.Context, barcode string, actorID uuid.UUID, notes string, photos []string) (*TransitionResult, error) {
	var res *TransitionResult
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, r repository.Repository) error {
		journey, err := r.LockJourneyByBarcode(ctx, barcode)
		if err != nil {
			return err
		}
		journey.DamageReported = true
		journey.DamageNotes = notes
		if len(photos) > 0 {
			journey.DamagePhotos = photos
		}
		if err := r.SaveJourney(ctx, journey); err != nil {
			return err
		}
		res = success(journey, "damage recorded")
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncrementCounter("exception.damage")
	return res, nil
}

// PauseAssembly marks in-progress work as paused with a reason.
func (s *WorkflowService) PauseAssembly(ctx context.Context, barcode string, technicianID uuid.UUID, reason string) (*TransitionResult, error) {
	var res *TransitionResult
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, r repository.Repository) error {
		journey, err := r.LockJourneyByBarcode(ctx, barcode)
		if err != nil {
			return err
		}
		if journey.CurrentStatus != models.StatusInProgress {
			res = failure(journey, fmt.Sprintf("cannot pause: journey is %s, expected %s",
				journey.CurrentStatus, models.StatusInProgress))
			return nil
		}
		journey.AssemblyPaused = true
		journey.PauseReason = reason
		if err := r.SaveJourney(ctx, journey); err != nil {
			return err
		}
		res = success(journey, "assembly paused")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ResumeAssembly clears the paused flag.
func (s *WorkflowService) ResumeAssembly(ctx context.Context, barcode string, technicianID uuid.UUID) (*TransitionResult, error) {
	var res *TransitionResult
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, r repository.Repository) error {
		journey, err := r.LockJourneyByBarcode(ctx, barcode)
		if err != nil {
			return err
		}
		if !journey.AssemblyPaused {
			res = failure(journey, "assembly is not paused")
			return nil
		}
		journey.AssemblyPaused = false
		journey.PauseReason = ""
		if err := r.SaveJourney(ctx, journey); err != nil {
			return err
		}
		res = success(journey, "assembly resumed")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
