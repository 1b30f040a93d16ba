package model

// Package model contains domain models/data structures shared across layers
// (HTTP, service, pipeline, storage). Pure data, no persistence tags and no
// business logic, so records can cross layer boundaries without coupling.

// ArtifactKeys used in RunArtifacts maps. Values are storage keys (service)
// or local file paths (CLI).
const (
	ArtifactScoreJSON          = "score_json"
	ArtifactPDFTextsJSON       = "pdf_texts_json"
	ArtifactClassificationJSON = "classification_json"
	ArtifactValidationJSON     = "validation_json"
	ArtifactMemoText           = "memo_text"
	ArtifactMemoJSON           = "memo_json"
	ArtifactRejectionReport    = "rejection_report"
	ArtifactManifest           = "manifest"
	ArtifactPackageZip         = "package_zip"
)

// RunArtifacts maps artifact keys to where each artifact was persisted.
type RunArtifacts map[string]string
