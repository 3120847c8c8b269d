package handlers

import (
	"net/http"

	"example.com/backstage/services/buildline/internal/models"
	"example.com/backstage/services/buildline/internal/repository"
	"example.com/backstage/services/buildline/internal/search"
	"example.com/backstage/services/buildline/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ReportHandler serves the read-side surface: journey lookups, technician
// queues, kanban, workload and bottleneck reports, and text search.
type ReportHandler struct {
	reports *service.ReportService
	search  *search.ElasticClient
}

// NewReportHandler creates a new report handler
func NewReportHandler(reports *service.ReportService, es *search.ElasticClient) *ReportHandler {
	return &ReportHandler{reports: reports, search: es}
}

// HandleGetJourney returns a single journey by barcode
func (h *ReportHandler) HandleGetJourney(c *gin.Context) {
	journey, err := h.reports.GetJourney(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "journey not found"})
			return
		}
		log.Error().Err(err).Msg("journey lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "internal error"})
		return
	}
	c.JSON(http.StatusOK, journey)
}

// HandleGetJourneyHistory returns the status and bin movement trails
func (h *ReportHandler) HandleGetJourneyHistory(c *gin.Context) {
	statuses, movements, err := h.reports.GetJourneyHistory(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "journey not found"})
			return
		}
		log.Error().Err(err).Msg("journey history lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status_history": statuses,
		"bin_movements":  movements,
	})
}

// HandleGetBin returns a bin with its current occupancy
func (h *ReportHandler) HandleGetBin(c *gin.Context) {
	binID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid bin id"})
		return
	}
	bin, err := h.reports.GetBin(c.Request.Context(), binID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "bin not found"})
			return
		}
		log.Error().Err(err).Str("bin_id", binID.String()).Msg("bin lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "internal error"})
		return
	}
	c.JSON(http.StatusOK, bin)
}

// HandleTechnicianQueue returns a technician's work queue, priority first
func (h *ReportHandler) HandleTechnicianQueue(c *gin.Context) {
	technicianID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid technician id"})
		return
	}
	queue, err := h.reports.GetTechnicianQueue(c.Request.Context(), technicianID)
	if err != nil {
		log.Error().Err(err).Str("technician_id", technicianID.String()).Msg("technician queue failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"technician_id": technicianID, "queue": queue})
}

// HandleJourneysByStage returns every journey sitting in one stage
func (h *ReportHandler) HandleJourneysByStage(c *gin.Context) {
	status := models.JourneyStatus(c.Param("status"))
	if !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "unknown status"})
		return
	}
	journeys, err := h.reports.GetJourneysByStatus(c.Request.Context(), status)
	if err != nil {
		log.Error().Err(err).Str("status", string(status)).Msg("stage listing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status, "journeys": journeys})
}

// HandleKanban returns the stage-grouped kanban board
func (h *ReportHandler) HandleKanban(c *gin.Context) {
	board, err := h.reports.GetKanbanBoard(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("kanban report failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "internal error"})
		return
	}
	c.JSON(http.StatusOK, board)
}

// HandleWorkload returns per-technician load
func (h *ReportHandler) HandleWorkload(c *gin.Context) {
	report, err := h.reports.GetWorkloadReport(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("workload report failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "internal error"})
		return
	}
	c.JSON(http.StatusOK, report)
}

// HandleBottlenecks returns stage counts plus journeys dwelling too long
func (h *ReportHandler) HandleBottlenecks(c *gin.Context) {
	report, err := h.reports.GetBottleneckReport(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("bottleneck report failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "internal error"})
		return
	}
	c.JSON(http.StatusOK, report)
}

// HandleSearch runs a free-text search over indexed journeys
func (h *ReportHandler) HandleSearch(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "missing query parameter q"})
		return
	}
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  q,
				"fields": []string{"barcode", "model_sku", "frame_number"},
			},
		},
	}
	hits, err := h.search.SearchJourneys(c.Request.Context(), query)
	if err != nil {
		log.Error().Err(err).Str("query", q).Msg("journey search failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": hits, "count": len(hits)})
}
