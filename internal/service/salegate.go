package service

import (
	"context"
	"fmt"

	"example.com/backstage/services/buildline/internal/models"
	"example.com/backstage/services/buildline/internal/repository"

	"github.com/pkg/errors"
)

// SaleGateService answers the one question the invoicing subsystem asks:
// may this physical asset be invoiced yet.
type SaleGateService struct {
	repo repository.Repository
}

// NewSaleGateService creates a new sale gate service
func NewSaleGateService(repo repository.Repository) *SaleGateService {
	return &SaleGateService{repo: repo}
}

// CanInvoiceItem reports whether the asset behind a barcode is sale-ready.
func (s *SaleGateService) CanInvoiceItem(ctx context.Context, barcode string) (*InvoiceGate, error) {
	journey, err := s.repo.FindJourneyByBarcode(ctx, barcode)
	if errors.Is(err, repository.ErrNotFound) {
		return &InvoiceGate{
			CanInvoice: false,
			Message:    fmt.Sprintf("no assembly journey found for barcode %s", barcode),
		}, nil
	}
	if err != nil {
		return nil, err
	}

	if journey.CurrentStatus == models.StatusReadyForSale {
		return &InvoiceGate{
			CanInvoice: true,
			Message:    "asset is ready for sale",
			Status:     journey.CurrentStatus,
			Sku:        journey.ModelSku,
		}, nil
	}

	return &InvoiceGate{
		CanInvoice: false,
		Message:    fmt.Sprintf("asset is not sale-ready, current status is %s", journey.CurrentStatus),
		Status:     journey.CurrentStatus,
		Sku:        journey.ModelSku,
	}, nil
}
