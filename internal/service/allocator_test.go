package service

import (
	"context"
	"testing"

	"example.com/backstage/services/buildline/internal/models"
	"example.com/backstage/services/buildline/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestZoneForStatus(t *testing.T) {
	cases := []struct {
		status models.JourneyStatus
		zone   models.BinZone
	}{
		{models.StatusInwarded, models.ZoneInward},
		{models.StatusAssigned, models.ZoneAssembly},
		{models.StatusInProgress, models.ZoneAssembly},
		{models.StatusCompleted, models.ZoneCompletion},
		{models.StatusQcReview, models.ZoneQc},
		{models.StatusReadyForSale, models.ZoneReady},
	}

	for _, tc := range cases {
		zone, ok := ZoneForStatus(tc.status)
		require.True(t, ok, "status %s should map to a zone", tc.status)
		require.Equal(t, tc.zone, zone)
	}

	_, ok := ZoneForStatus("unknown")
	require.False(t, ok)
}

func TestAutoAssignSkipsJourneyWithoutLocation(t *testing.T) {
	repo := new(mockRepository)
	allocator := NewBinAllocator()

	journey := &models.AssemblyJourney{ID: uuid.New(), Barcode: "BIKE-001"}

	binID, err := allocator.AutoAssignBin(context.Background(), repo, journey,
		models.StatusInwarded, models.StatusAssigned)

	require.NoError(t, err)
	require.Nil(t, binID)
	repo.AssertNotCalled(t, "ListActiveBinsInZone", mock.Anything, mock.Anything, mock.Anything)
}

func TestAutoAssignFullZoneKeepsCurrentBin(t *testing.T) {
	repo := new(mockRepository)
	allocator := NewBinAllocator()

	locationID := uuid.New()
	currentBin := uuid.New()
	journey := &models.AssemblyJourney{
		ID:                uuid.New(),
		Barcode:           "BIKE-001",
		CurrentLocationID: &locationID,
		BinLocationID:     &currentBin,
	}

	repo.On("ListActiveBinsInZone", mock.Anything, locationID, models.ZoneAssembly).
		Return([]*models.AssemblyBin{}, nil)

	binID, err := allocator.AutoAssignBin(context.Background(), repo, journey,
		models.StatusInwarded, models.StatusAssigned)

	require.NoError(t, err)
	require.Nil(t, binID)
	require.Equal(t, currentBin, *journey.BinLocationID)
	repo.AssertNotCalled(t, "ReserveSlot", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "ReleaseSlot", mock.Anything, mock.Anything)
}

func TestAutoAssignTakesFirstAvailableBin(t *testing.T) {
	repo := new(mockRepository)
	allocator := NewBinAllocator()

	locationID := uuid.New()
	journey := &models.AssemblyJourney{
		ID:                uuid.New(),
		Barcode:           "BIKE-001",
		CurrentLocationID: &locationID,
	}

	// Repository returns bins least-occupied first.
	first := &models.AssemblyBin{ID: uuid.New(), CurrentOccupancy: 1}
	second := &models.AssemblyBin{ID: uuid.New(), CurrentOccupancy: 3}

	repo.On("ListActiveBinsInZone", mock.Anything, locationID, models.ZoneInward).
		Return([]*models.AssemblyBin{first, second}, nil)
	repo.On("ReserveSlot", mock.Anything, first.ID).Return(nil)
	repo.On("RecordBinMovement", mock.Anything, mock.MatchedBy(func(entry *models.BinMovementHistory) bool {
		return entry.AutoAssigned && *entry.ToBinID == first.ID && entry.FromBinID == nil
	})).Return(nil)

	binID, err := allocator.AutoAssignBin(context.Background(), repo, journey,
		models.StatusInwarded, models.StatusInwarded)

	require.NoError(t, err)
	require.NotNil(t, binID)
	require.Equal(t, first.ID, *binID)
	require.Equal(t, first.ID, *journey.BinLocationID)
	repo.AssertExpectations(t)
}

func TestAutoAssignRetriesNextBinOnCapacityRace(t *testing.T) {
	repo := new(mockRepository)
	allocator := NewBinAllocator()

	locationID := uuid.New()
	journey := &models.AssemblyJourney{
		ID:                uuid.New(),
		Barcode:           "BIKE-001",
		CurrentLocationID: &locationID,
	}

	first := &models.AssemblyBin{ID: uuid.New()}
	second := &models.AssemblyBin{ID: uuid.New()}

	repo.On("ListActiveBinsInZone", mock.Anything, locationID, models.ZoneQc).
		Return([]*models.AssemblyBin{first, second}, nil)
	// Another transaction claimed the last slot of the first bin.
	repo.On("ReserveSlot", mock.Anything, first.ID).Return(repository.ErrCapacityExceeded)
	repo.On("ReserveSlot", mock.Anything, second.ID).Return(nil)
	repo.On("RecordBinMovement", mock.Anything, mock.Anything).Return(nil)

	binID, err := allocator.AutoAssignBin(context.Background(), repo, journey,
		models.StatusCompleted, models.StatusQcReview)

	require.NoError(t, err)
	require.NotNil(t, binID)
	require.Equal(t, second.ID, *binID)
	repo.AssertExpectations(t)
}

func TestAutoAssignZoneAtCapacityKeepsCurrentBin(t *testing.T) {
	repo := new(mockRepository)
	allocator := NewBinAllocator()

	locationID := uuid.New()
	previous := uuid.New()
	full := &models.AssemblyBin{ID: uuid.New(), Capacity: 1, CurrentOccupancy: 1}
	journey := &models.AssemblyJourney{
		ID:                uuid.New(),
		Barcode:           "BIKE-002",
		CurrentLocationID: &locationID,
		BinLocationID:     &previous,
	}

	repo.On("ListActiveBinsInZone", mock.Anything, locationID, models.ZoneAssembly).
		Return([]*models.AssemblyBin{full}, nil)
	repo.On("ReserveSlot", mock.Anything, full.ID).Return(repository.ErrCapacityExceeded)

	binID, err := allocator.AutoAssignBin(context.Background(), repo, journey,
		models.StatusAssigned, models.StatusInProgress)

	require.NoError(t, err)
	require.Nil(t, binID)
	require.Equal(t, previous, *journey.BinLocationID)
	repo.AssertNotCalled(t, "ReleaseSlot", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "RecordBinMovement", mock.Anything, mock.Anything)
}

func TestAutoAssignNoMovementWhenAlreadyInBestBin(t *testing.T) {
	repo := new(mockRepository)
	allocator := NewBinAllocator()

	locationID := uuid.New()
	bin := &models.AssemblyBin{ID: uuid.New()}
	journey := &models.AssemblyJourney{
		ID:                uuid.New(),
		Barcode:           "BIKE-001",
		CurrentLocationID: &locationID,
		BinLocationID:     &bin.ID,
	}

	repo.On("ListActiveBinsInZone", mock.Anything, locationID, models.ZoneAssembly).
		Return([]*models.AssemblyBin{bin}, nil)

	binID, err := allocator.AutoAssignBin(context.Background(), repo, journey,
		models.StatusAssigned, models.StatusInProgress)

	require.NoError(t, err)
	require.Nil(t, binID)
	require.Equal(t, bin.ID, *journey.BinLocationID)
	repo.AssertNotCalled(t, "RecordBinMovement", mock.Anything, mock.Anything)
}

func TestAutoAssignReleasesPreviousBin(t *testing.T) {
	repo := new(mockRepository)
	allocator := NewBinAllocator()

	locationID := uuid.New()
	previous := uuid.New()
	target := &models.AssemblyBin{ID: uuid.New()}
	journey := &models.AssemblyJourney{
		ID:                uuid.New(),
		Barcode:           "BIKE-001",
		CurrentLocationID: &locationID,
		BinLocationID:     &previous,
	}

	repo.On("ListActiveBinsInZone", mock.Anything, locationID, models.ZoneReady).
		Return([]*models.AssemblyBin{target}, nil)
	repo.On("ReserveSlot", mock.Anything, target.ID).Return(nil)
	repo.On("ReleaseSlot", mock.Anything, previous).Return(nil)
	repo.On("RecordBinMovement", mock.Anything, mock.MatchedBy(func(entry *models.BinMovementHistory) bool {
		return *entry.FromBinID == previous && *entry.ToBinID == target.ID
	})).Return(nil)

	binID, err := allocator.AutoAssignBin(context.Background(), repo, journey,
		models.StatusQcReview, models.StatusReadyForSale)

	require.NoError(t, err)
	require.Equal(t, target.ID, *binID)
	repo.AssertExpectations(t)
}
