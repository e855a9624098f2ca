package core

import (
	"time"

	"printquote/internal/pricing"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusApproved   JobStatus = "approved"
	JobStatusRejected   JobStatus = "rejected"
)

// Terminal reports whether no further transition is allowed from s. A
// completed job is not terminal: it still awaits the admin approve/reject
// decision.
func (s JobStatus) Terminal() bool {
	return s == JobStatusFailed || s == JobStatusApproved || s == JobStatusRejected
}

// ModelSize is the bounding box of the model in millimeters.
type ModelSize struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// JobResult is what a completed job carries: the slicer measurements plus the
// price breakdown. PriceInfo.Error is set when slicing succeeded but the
// material or color could not be resolved against the catalog.
type JobResult struct {
	FilamentUsedG float64           `json:"filament_used_g"`
	EstimatedTime string            `json:"estimated_time"`
	HasSupports   bool              `json:"has_supports"`
	Size          ModelSize         `json:"size"`
	VolumeCM3     float64           `json:"volume_cm3"`
	FillDensity   float64           `json:"fill_density"`
	PriceInfo     pricing.PriceInfo `json:"price_info"`
}

// Job is one quote request and its lifecycle state. Invariants: Result is
// non-nil iff the job reached completed (or approved/rejected afterwards);
// Error is non-empty iff the job failed.
type Job struct {
	ID               string     `json:"id"`
	Filename         string     `json:"filename"`
	OriginalFilename string     `json:"original_filename"`
	Status           JobStatus  `json:"status"`
	MaterialID       string     `json:"material_id"`
	ColorID          string     `json:"color_id"`
	QualityID        string     `json:"quality_id,omitempty"`
	FillDensity      float64    `json:"fill_density"`
	EnableSupports   bool       `json:"enable_supports"`
	Error            string     `json:"error,omitempty"`
	Result           *JobResult `json:"result,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	ApprovedAt       *time.Time `json:"approved_at,omitempty"`
	RejectedAt       *time.Time `json:"rejected_at,omitempty"`
}
