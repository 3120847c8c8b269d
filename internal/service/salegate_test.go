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

func TestCanInvoiceUnknownBarcode(t *testing.T) {
	repo := new(mockRepository)
	gate := NewSaleGateService(repo)

	repo.On("FindJourneyByBarcode", mock.Anything, "GHOST").Return(nil, repository.ErrNotFound)

	res, err := gate.CanInvoiceItem(context.Background(), "GHOST")

	require.NoError(t, err)
	require.False(t, res.CanInvoice)
	require.Contains(t, res.Message, "no assembly journey found")
}

func TestCanInvoiceReadyForSale(t *testing.T) {
	repo := new(mockRepository)
	gate := NewSaleGateService(repo)

	journey := &models.AssemblyJourney{
		ID:            uuid.New(),
		Barcode:       "BIKE-001",
		ModelSku:      "CITY-28-M",
		CurrentStatus: models.StatusReadyForSale,
	}
	repo.On("FindJourneyByBarcode", mock.Anything, "BIKE-001").Return(journey, nil)

	res, err := gate.CanInvoiceItem(context.Background(), "BIKE-001")

	require.NoError(t, err)
	require.True(t, res.CanInvoice)
	require.Equal(t, models.StatusReadyForSale, res.Status)
	require.Equal(t, "CITY-28-M", res.Sku)
}

func TestCanInvoiceBlocksEveryOtherStage(t *testing.T) {
	blocked := []models.JourneyStatus{
		models.StatusInwarded,
		models.StatusAssigned,
		models.StatusInProgress,
		models.StatusCompleted,
		models.StatusQcReview,
	}

	for _, status := range blocked {
		t.Run(string(status), func(t *testing.T) {
			repo := new(mockRepository)
			gate := NewSaleGateService(repo)

			journey := &models.AssemblyJourney{
				ID:            uuid.New(),
				Barcode:       "BIKE-001",
				CurrentStatus: status,
			}
			repo.On("FindJourneyByBarcode", mock.Anything, "BIKE-001").Return(journey, nil)

			res, err := gate.CanInvoiceItem(context.Background(), "BIKE-001")

			require.NoError(t, err)
			require.False(t, res.CanInvoice)
			require.Equal(t, status, res.Status)
			require.Contains(t, res.Message, string(status))
		})
	}
}
