package handlers

import (
	"net/http"

	"example.com/backstage/services/buildline/internal/models"
	"example.com/backstage/services/buildline/internal/repository"
	"example.com/backstage/services/buildline/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// WorkflowHandler handles the guarded workflow HTTP operations
type WorkflowHandler struct {
	workflow *service.WorkflowService
}

// NewWorkflowHandler creates a new workflow handler
func NewWorkflowHandler(workflow *service.WorkflowService) *WorkflowHandler {
	return &WorkflowHandler{workflow: workflow}
}

// InwardRequest is the intake payload for a new journey
type InwardRequest struct {
	Barcode     string     `json:"barcode" binding:"required"`
	ModelSku    string     `json:"model_sku"`
	FrameNumber string     `json:"frame_number"`
	LocationID  *uuid.UUID `json:"location_id"`
	Priority    bool       `json:"priority"`
}

// AssignRequest assigns a journey to a technician
type AssignRequest struct {
	TechnicianID uuid.UUID `json:"technician_id" binding:"required"`
	SupervisorID uuid.UUID `json:"supervisor_id" binding:"required"`
}

// StartRequest starts assembly on a journey
type StartRequest struct {
	TechnicianID uuid.UUID `json:"technician_id" binding:"required"`
}

// CompleteRequest completes assembly. All three checklist flags must be
// present in the payload; missing keys are rejected before the state machine
// sees the request.
type CompleteRequest struct {
	TechnicianID uuid.UUID `json:"technician_id" binding:"required"`
	Checklist    struct {
		Tyres  *bool `json:"tyres" binding:"required"`
		Brakes *bool `json:"brakes" binding:"required"`
		Gears  *bool `json:"gears" binding:"required"`
	} `json:"checklist" binding:"required"`
}

// SendToQcRequest moves a completed journey into QC review
type SendToQcRequest struct {
	QcPersonID uuid.UUID `json:"qc_person_id" binding:"required"`
}

// QcResultRequest submits a QC verdict
type QcResultRequest struct {
	QcPersonID    uuid.UUID             `json:"qc_person_id" binding:"required"`
	Result        string                `json:"result" binding:"required"`
	FailureReason string                `json:"failure_reason"`
	Photos        []string              `json:"photos"`
	Inspection    *service.QcInspection `json:"inspection"`
}

// MoveBinRequest is the manual bin override payload
type MoveBinRequest struct {
	BinID   uuid.UUID `json:"bin_id" binding:"required"`
	ActorID uuid.UUID `json:"actor_id" binding:"required"`
	Reason  string    `json:"reason"`
}

// TransferRequest moves a journey to another location
type TransferRequest struct {
	LocationID uuid.UUID `json:"location_id" binding:"required"`
	ActorID    uuid.UUID `json:"actor_id" binding:"required"`
	Reason     string    `json:"reason"`
}

// PartsMissingRequest flags missing parts
type PartsMissingRequest struct {
	TechnicianID uuid.UUID `json:"technician_id" binding:"required"`
	Parts        []string  `json:"parts"`
}

// DamageRequest records observed damage
type DamageRequest struct {
	ActorID uuid.UUID `json:"actor_id" binding:"required"`
	Notes   string    `json:"notes" binding:"required"`
	Photos  []string  `json:"photos"`
}

// PauseRequest pauses in-progress assembly
type PauseRequest struct {
	TechnicianID uuid.UUID `json:"technician_id" binding:"required"`
	Reason       string    `json:"reason" binding:"required"`
}

// ResumeRequest resumes paused assembly
type ResumeRequest struct {
	TechnicianID uuid.UUID `json:"technician_id" binding:"required"`
}

// respond maps a workflow outcome to an HTTP response: unknown barcodes are
// 404, infrastructure faults 500, everything else is a structured result.
func respond(c *gin.Context, res *service.TransitionResult, err error) {
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "journey not found"})
			return
		}
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("workflow operation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "internal error"})
		return
	}
	c.JSON(http.StatusOK, res)
}

// HandleInward registers a newly received bicycle
func (h *WorkflowHandler) HandleInward(c *gin.Context) {
	var req InwardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	res, err := h.workflow.InwardJourney(c.Request.Context(), service.InwardRequest{
		Barcode:     req.Barcode,
		ModelSku:    req.ModelSku,
		FrameNumber: req.FrameNumber,
		LocationID:  req.LocationID,
		Priority:    req.Priority,
	})
	if err == nil && res.Success {
		c.JSON(http.StatusCreated, res)
		return
	}
	respond(c, res, err)
}

// HandleAssign assigns a journey to a technician
func (h *WorkflowHandler) HandleAssign(c *gin.Context) {
	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}
	res, err := h.workflow.AssignToTechnician(c.Request.Context(), c.Param("barcode"), req.TechnicianID, req.SupervisorID)
	respond(c, res, err)
}

// HandleStart starts assembly
func (h *WorkflowHandler) HandleStart(c *gin.Context) {
	var req StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}
	res, err := h.workflow.StartAssembly(c.Request.Context(), c.Param("barcode"), req.TechnicianID)
	respond(c, res, err)
}

// HandleComplete completes assembly against the checklist
func (h *WorkflowHandler) HandleComplete(c *gin.Context) {
	var req CompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}
	checklist := models.Checklist{
		Tyres:  *req.Checklist.Tyres,
		Brakes: *req.Checklist.Brakes,
		Gears:  *req.Checklist.Gears,
	}
	res, err := h.workflow.CompleteAssembly(c.Request.Context(), c.Param("barcode"), req.TechnicianID, checklist)
	respond(c, res, err)
}

// HandleSendToQc moves a completed journey into QC review
func (h *WorkflowHandler) HandleSendToQc(c *gin.Context) {
	var req SendToQcRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}
	res, err := h.workflow.SendToQc(c.Request.Context(), c.Param("barcode"), req.QcPersonID)
	respond(c, res, err)
}

// HandleQcResult submits a QC verdict
func (h *WorkflowHandler) HandleQcResult(c *gin.Context) {
	var req QcResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}
	res, err := h.workflow.SubmitQcResult(c.Request.Context(), c.Param("barcode"),
		req.QcPersonID, models.QcResult(req.Result), req.FailureReason, req.Photos, req.Inspection)
	respond(c, res, err)
}

// HandleMoveBin is the manual bin override
func (h *WorkflowHandler) HandleMoveBin(c *gin.Context) {
	var req MoveBinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}
	res, err := h.workflow.MoveBikeToBin(c.Request.Context(), c.Param("barcode"), req.BinID, req.ActorID, req.Reason)
	respond(c, res, err)
}

// HandleTransfer moves a journey to another location
func (h *WorkflowHandler) HandleTransfer(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}
	res, err := h.workflow.TransferLocation(c.Request.Context(), c.Param("barcode"), req.LocationID, req.ActorID, req.Reason)
	respond(c, res, err)
}

// HandlePartsMissing flags missing parts
func (h *WorkflowHandler) HandlePartsMissing(c *gin.Context) {
	var req PartsMissingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}
	res, err := h.workflow.ReportMissingParts(c.Request.Context(), c.Param("barcode"), req.TechnicianID, req.Parts)
	respond(c, res, err)
}

// HandleDamage records observed damage
func (h *WorkflowHandler) HandleDamage(c *gin.Context) {
	var req DamageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}
	res, err := h.workflow.ReportDamage(c.Request.Context(), c.Param("barcode"), req.ActorID, req.Notes, req.Photos)
	respond(c, res, err)
}

// HandlePause pauses in-progress assembly
func (h *WorkflowHandler) HandlePause(c *gin.Context) {
	var req PauseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}
	res, err := h.workflow.PauseAssembly(c.Request.Context(), c.Param("barcode"), req.TechnicianID, req.Reason)
	respond(c, res, err)
}

// HandleResume resumes paused assembly
func (h *WorkflowHandler) HandleResume(c *gin.Context) {
	var req ResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}
	res, err := h.workflow.ResumeAssembly(c.Request.Context(), c.Param("barcode"), req.TechnicianID)
	respond(c, res, err)
}
