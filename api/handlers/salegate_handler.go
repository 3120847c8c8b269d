package handlers

import (
	"net/http"

	"example.com/backstage/services/buildline/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// SaleGateHandler exposes the invoice eligibility check consumed by the
// billing side before an item can be invoiced.
type SaleGateHandler struct {
	gate *service.SaleGateService
}

// NewSaleGateHandler creates a new sale gate handler
func NewSaleGateHandler(gate *service.SaleGateService) *SaleGateHandler {
	return &SaleGateHandler{gate: gate}
}

// HandleInvoiceGate answers whether the item behind a barcode may be sold.
// An unknown barcode is a negative answer, not an error: billing should
// never be blocked by a lookup fault it cannot act on.
func (h *SaleGateHandler) HandleInvoiceGate(c *gin.Context) {
	gate, err := h.gate.CanInvoiceItem(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		log.Error().Err(err).Str("barcode", c.Param("barcode")).Msg("invoice gate check failed")
		c.JSON(http.StatusInternalServerError, gin.H{"can_invoice": false, "message": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gate)
}
