package service

import (
	"context"

	"example.com/backstage/services/buildline/internal/models"
	"example.com/backstage/services/buildline/internal/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ZoneForStatus maps an assembly stage to the bin zone its assets belong in.
func ZoneForStatus(status models.JourneyStatus) (models.BinZone, bool) {
	switch status {
	case models.StatusInwarded:
		return models.ZoneInward, true
	case models.StatusAssigned, models.StatusInProgress:
		return models.ZoneAssembly, true
	case models.StatusCompleted:
		return models.ZoneCompletion, true
	case models.StatusQcReview:
		return models.ZoneQc, true
	case models.StatusReadyForSale:
		return models.ZoneReady, true
	}
	return "", false
}

// BinAllocator re-places a journey into the bin zone matching its new stage.
type BinAllocator struct{}

// NewBinAllocator creates a new bin allocator
func NewBinAllocator() *BinAllocator {
	return &BinAllocator{}
}

// AutoAssignBin picks the least-occupied active bin in the target zone at the
// journey's location, reserves it, releases the previous bin and records the
// movement as automatic. A zone with no available bin is not an error: the
// journey keeps its previous bin and the transition proceeds. Must run inside
// the transition's transaction so occupancy changes roll back with it.
func (a *BinAllocator) AutoAssignBin(
	ctx context.Context,
	r repository.Repository,
	journey *models.AssemblyJourney,
	oldStatus, newStatus models.JourneyStatus,
) (*uuid.UUID, error) {
	zone, ok := ZoneForStatus(newStatus)
	if !ok {
		return nil, nil
	}
	if journey.CurrentLocationID == nil {
		return nil, nil
	}

	bins, err := r.ListActiveBinsInZone(ctx, *journey.CurrentLocationID, zone)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query target zone")
	}

	for _, bin := range bins {
		if journey.BinLocationID != nil && bin.ID == *journey.BinLocationID {
			// Already in the best available bin of the target zone.
			return nil, nil
		}

		err := r.ReserveSlot(ctx, bin.ID)
		if errors.Is(err, repository.ErrCapacityExceeded) {
			// Lost the slot to a concurrent reservation; try the next bin.
			continue
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to reserve bin slot")
		}

		previous := journey.BinLocationID
		if previous != nil {
			if err := r.ReleaseSlot(ctx, *previous); err != nil {
				return nil, errors.Wrap(err, "failed to release previous bin")
			}
		}

		newBinID := bin.ID
		if err := r.RecordBinMovement(ctx, &models.BinMovementHistory{
			JourneyID:    journey.ID,
			FromBinID:    previous,
			ToBinID:      &newBinID,
			FromStatus:   oldStatus,
			ToStatus:     newStatus,
			Reason:       "auto-assignment on stage transition",
			AutoAssigned: true,
		}); err != nil {
			return nil, err
		}

		journey.BinLocationID = &newBinID
		return &newBinID, nil
	}

	log.Debug().
		Str("barcode", journey.Barcode).
		Str("zone", string(zone)).
		Msg("no bin available in target zone, journey keeps its current bin")
	return nil, nil
}
