package model

import "time"

// PackageStatus is the terminal outcome of a pipeline run.
type PackageStatus string

const (
	// StatusAccepted means the package cleared the gate and validation and a
	// memo was produced.
	StatusAccepted PackageStatus = "ACCEPTED"
	// StatusRejectedGate means the quality gate quarantined the package
	// before classification ran.
	StatusRejectedGate PackageStatus = "REJECTED_GATE"
	// StatusRejectedValidation means classification ran but cross-document
	// validation quarantined the package.
	StatusRejectedValidation PackageStatus = "REJECTED_VALIDATION"
)

// PackageRecord represents one submitted ZIP package and its decision outcome.
// This is a pure domain model with no database-specific dependencies or tags.
type PackageRecord struct {
	ID              string        `json:"id"`
	PackageName     string        `json:"package_name"`
	Filename        string        `json:"filename"`
	Size            int64         `json:"size"`
	Status          PackageStatus `json:"status"`
	Route           RoutePath     `json:"route"`
	TotalScore      int           `json:"total_score"`
	RejectionReason string        `json:"rejection_reason,omitempty"`
	Version         int           `json:"version"`
	CreatedAt       time.Time     `json:"created_at"`
}
