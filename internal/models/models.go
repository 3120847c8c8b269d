package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// JourneyStatus is the assembly stage of a journey
type JourneyStatus string

const (
	StatusInwarded     JourneyStatus = "inwarded"
	StatusAssigned     JourneyStatus = "assigned"
	StatusInProgress   JourneyStatus = "in_progress"
	StatusCompleted    JourneyStatus = "completed"
	StatusQcReview     JourneyStatus = "qc_review"
	StatusReadyForSale JourneyStatus = "ready_for_sale"
)

// Valid reports whether s is a known journey status.
func (s JourneyStatus) Valid() bool {
	switch s {
	case StatusInwarded, StatusAssigned, StatusInProgress,
		StatusCompleted, StatusQcReview, StatusReadyForSale:
		return true
	}
	return false
}

// Terminal reports whether a journey in this status can transition further.
func (s JourneyStatus) Terminal() bool {
	return s == StatusReadyForSale
}

// BinZone classifies a bin by the assembly stage it serves
type BinZone string

const (
	ZoneInward     BinZone = "inward_zone"
	ZoneAssembly   BinZone = "assembly_zone"
	ZoneCompletion BinZone = "completion_zone"
	ZoneQc         BinZone = "qc_zone"
	ZoneReady      BinZone = "ready_zone"
)

// BinStatus is the operational state of a storage bin
type BinStatus string

const (
	BinActive      BinStatus = "active"
	BinMaintenance BinStatus = "maintenance"
	BinFull        BinStatus = "full"
	BinInactive    BinStatus = "inactive"
)

// QcResult is the outcome of a QC inspection
type QcResult string

const (
	QcPending QcResult = "pending"
	QcPass    QcResult = "pass"
	QcFail    QcResult = "fail"
)

// Checklist is the fixed three-point assembly checklist. Persisting it as a
// struct rather than a free-form map keeps the three keys structurally
// present on every journey.
type Checklist struct {
	Tyres  bool `json:"tyres"`
	Brakes bool `json:"brakes"`
	Gears  bool `json:"gears"`
}

// Complete reports whether every checklist point has been ticked.
func (c Checklist) Complete() bool {
	return c.Tyres && c.Brakes && c.Gears
}

// Value implements driver.Valuer so the checklist is stored as jsonb.
func (c Checklist) Value() (driver.Value, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal checklist")
	}
	return data, nil
}

// Scan implements sql.Scanner.
func (c *Checklist) Scan(value interface{}) error {
	if value == nil {
		*c = Checklist{}
		return nil
	}
	data, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			data = []byte(s)
		} else {
			return errors.Errorf("unsupported checklist column type %T", value)
		}
	}
	return errors.Wrap(json.Unmarshal(data, c), "failed to unmarshal checklist")
}

// StringList is a jsonb-backed list of strings (photo URLs, part names).
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal string list")
	}
	return data, nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	data, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			data = []byte(s)
		} else {
			return errors.Errorf("unsupported string list column type %T", value)
		}
	}
	return errors.Wrap(json.Unmarshal(data, l), "failed to unmarshal string list")
}

// AssemblyJourney tracks one physical bicycle from inward receipt to
// sale-readiness. Rows are never deleted; terminal journeys remain for audit.
type AssemblyJourney struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Barcode     string `gorm:"not null;uniqueIndex" json:"barcode"`
	ModelSku    string `json:"model_sku"`
	FrameNumber string `json:"frame_number"`

	CurrentStatus     JourneyStatus `gorm:"not null;index" json:"current_status"`
	CurrentLocationID *uuid.UUID    `gorm:"type:uuid" json:"current_location_id"`
	BinLocationID     *uuid.UUID    `gorm:"type:uuid" json:"bin_location_id"`
	Priority          bool          `gorm:"not null;default:false" json:"priority"`

	Checklist Checklist `gorm:"type:jsonb;not null" json:"checklist"`

	TechnicianID *uuid.UUID `gorm:"type:uuid;index" json:"technician_id"`
	SupervisorID *uuid.UUID `gorm:"type:uuid" json:"supervisor_id"`
	QcPersonID   *uuid.UUID `gorm:"type:uuid" json:"qc_person_id"`

	InwardedAt    *time.Time `json:"inwarded_at"`
	AssignedAt    *time.Time `json:"assigned_at"`
	StartedAt     *time.Time `json:"started_at"`
	CompletedAt   *time.Time `json:"completed_at"`
	QcStartedAt   *time.Time `json:"qc_started_at"`
	QcCompletedAt *time.Time `json:"qc_completed_at"`

	PartsMissing     bool       `gorm:"not null;default:false" json:"parts_missing"`
	PartsMissingList StringList `gorm:"type:jsonb" json:"parts_missing_list"`
	DamageReported   bool       `gorm:"not null;default:false" json:"damage_reported"`
	DamageNotes      string     `json:"damage_notes"`
	DamagePhotos     StringList `gorm:"type:jsonb" json:"damage_photos"`
	AssemblyPaused   bool       `gorm:"not null;default:false" json:"assembly_paused"`
	PauseReason      string     `json:"pause_reason"`

	QcStatus        QcResult   `gorm:"not null;default:pending" json:"qc_status"`
	QcFailureReason string     `json:"qc_failure_reason"`
	QcPhotos        StringList `gorm:"type:jsonb" json:"qc_photos"`
	ReworkCount     int        `gorm:"not null;default:0" json:"rework_count"`
}

// AssemblyBin is one physical storage slot in a zoned staging area.
type AssemblyBin struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	LocationID       uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_bin_location_code" json:"location_id"`
	BinCode          string    `gorm:"not null;uniqueIndex:idx_bin_location_code" json:"bin_code"`
	StatusZone       BinZone   `gorm:"not null;index" json:"status_zone"`
	BinStatus        BinStatus `gorm:"not null;default:active" json:"bin_status"`
	Capacity         int       `gorm:"not null;default:1" json:"capacity"`
	CurrentOccupancy int       `gorm:"not null;default:0" json:"current_occupancy"`
}

// StatusHistory is an append-only record of a journey status change.
type StatusHistory struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	JourneyID  uuid.UUID     `gorm:"type:uuid;not null;index" json:"journey_id"`
	FromStatus JourneyStatus `gorm:"not null" json:"from_status"`
	ToStatus   JourneyStatus `gorm:"not null" json:"to_status"`
	ActorID    *uuid.UUID    `gorm:"type:uuid" json:"actor_id"`
	Reason     string        `json:"reason"`
}

// LocationHistory is an append-only record of a journey location change.
type LocationHistory struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	JourneyID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"journey_id"`
	FromLocationID *uuid.UUID `gorm:"type:uuid" json:"from_location_id"`
	ToLocationID   *uuid.UUID `gorm:"type:uuid" json:"to_location_id"`
	ActorID        *uuid.UUID `gorm:"type:uuid" json:"actor_id"`
	Reason         string     `json:"reason"`
}

// BinMovementHistory is an append-only record of a journey moving between
// bins, either automatically on a stage transition or by manual override.
type BinMovementHistory struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	JourneyID    uuid.UUID     `gorm:"type:uuid;not null;index" json:"journey_id"`
	FromBinID    *uuid.UUID    `gorm:"type:uuid" json:"from_bin_id"`
	ToBinID      *uuid.UUID    `gorm:"type:uuid" json:"to_bin_id"`
	FromStatus   JourneyStatus `json:"from_status"`
	ToStatus     JourneyStatus `json:"to_status"`
	ActorID      *uuid.UUID    `gorm:"type:uuid" json:"actor_id"`
	Reason       string        `json:"reason"`
	AutoAssigned bool          `gorm:"not null;default:false" json:"auto_assigned"`
}

// QcChecklist is one detailed QC inspection attempt, kept separately from the
// coarse qc_status field on the journey.
type QcChecklist struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	JourneyID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"journey_id"`
	QcPersonID *uuid.UUID `gorm:"type:uuid" json:"qc_person_id"`

	BrakePass       bool   `gorm:"not null;default:false" json:"brake_pass"`
	BrakeNotes      string `json:"brake_notes"`
	DrivetrainPass  bool   `gorm:"not null;default:false" json:"drivetrain_pass"`
	DrivetrainNotes string `json:"drivetrain_notes"`
	AlignmentPass   bool   `gorm:"not null;default:false" json:"alignment_pass"`
	AlignmentNotes  string `json:"alignment_notes"`
	TorquePass      bool   `gorm:"not null;default:false" json:"torque_pass"`
	TorqueNotes     string `json:"torque_notes"`
	AccessoriesPass bool   `gorm:"not null;default:false" json:"accessories_pass"`
	AccessoryNotes  string `json:"accessory_notes"`

	Result        QcResult   `gorm:"not null;default:pending" json:"result"`
	FailureReason string     `json:"failure_reason"`
	Photos        StringList `gorm:"type:jsonb" json:"photos"`
	StartedAt     *time.Time `json:"started_at"`
	CompletedAt   *time.Time `json:"completed_at"`
}

// SetupModels configures GORM models and runs migrations
func SetupModels(db *gorm.DB) error {
	err := db.AutoMigrate(
		&AssemblyJourney{},
		&AssemblyBin{},
		&StatusHistory{},
		&LocationHistory{},
		&BinMovementHistory{},
		&QcChecklist{},
	)
	if err != nil {
		return errors.Wrap(err, "failed to run auto migrations")
	}
	return nil
}
