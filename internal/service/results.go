package service

import (
	"time"

	"example.com/backstage/services/buildline/internal/models"

	"github.com/google/uuid"
)

// TransitionResult is the structured outcome of a guarded workflow operation.
// Precondition failures come back as Success=false with a message; errors are
// reserved for infrastructure faults.
type TransitionResult struct {
	Success     bool                 `json:"success"`
	Message     string               `json:"message"`
	Barcode     string               `json:"barcode"`
	Status      models.JourneyStatus `json:"status"`
	BinID       *uuid.UUID           `json:"bin_id,omitempty"`
	ReworkCount int                  `json:"rework_count"`
}

// InvoiceGate is the answer the sales subsystem consults before invoicing a
// physical asset.
type InvoiceGate struct {
	CanInvoice bool                 `json:"can_invoice"`
	Message    string               `json:"message"`
	Status     models.JourneyStatus `json:"status,omitempty"`
	Sku        string               `json:"sku,omitempty"`
}

// InwardRequest carries the intake details for a new journey.
type InwardRequest struct {
	Barcode     string     `json:"barcode"`
	ModelSku    string     `json:"model_sku"`
	FrameNumber string     `json:"frame_number"`
	LocationID  *uuid.UUID `json:"location_id"`
	Priority    bool       `json:"priority"`
}

// QcInspection carries the per-subsystem findings of a QC attempt.
type QcInspection struct {
	BrakePass       bool   `json:"brake_pass"`
	BrakeNotes      string `json:"brake_notes"`
	DrivetrainPass  bool   `json:"drivetrain_pass"`
	DrivetrainNotes string `json:"drivetrain_notes"`
	AlignmentPass   bool   `json:"alignment_pass"`
	AlignmentNotes  string `json:"alignment_notes"`
	TorquePass      bool   `json:"torque_pass"`
	TorqueNotes     string `json:"torque_notes"`
	AccessoriesPass bool   `json:"accessories_pass"`
	AccessoryNotes  string `json:"accessory_notes"`
}

// TransitionEvent is published to the ERP bus after a committed transition.
type TransitionEvent struct {
	Barcode    string               `json:"barcode"`
	FromStatus models.JourneyStatus `json:"from_status"`
	ToStatus   models.JourneyStatus `json:"to_status"`
	ActorID    *uuid.UUID           `json:"actor_id,omitempty"`
	BinID      *uuid.UUID           `json:"bin_id,omitempty"`
	OccurredAt time.Time            `json:"occurred_at"`
}

func failure(journey *models.AssemblyJourney, message string) *TransitionResult {
	res := &TransitionResult{Success: false, Message: message}
	if journey != nil {
		res.Barcode = journey.Barcode
		res.Status = journey.CurrentStatus
		res.BinID = journey.BinLocationID
		res.ReworkCount = journey.ReworkCount
	}
	return res
}

func success(journey *models.AssemblyJourney, message string) *TransitionResult {
	return &TransitionResult{
		Success:     true,
		Message:     message,
		Barcode:     journey.Barcode,
		Status:      journey.CurrentStatus,
		BinID:       journey.BinLocationID,
		ReworkCount: journey.ReworkCount,
	}
}
