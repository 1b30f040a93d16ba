// Package bank persists pipeline outcomes. Accepted packages land in the
// good bank under a versioned prefix with a manifest; rejected packages are
// quarantined in the bad bank together with a rejection report.
package bank

import (
	"path"
	"sort"
	"strings"

	"finpack/internal/model"
)

// Manifest describes the artifact set stored for one accepted package version.
type Manifest struct {
	PackageID string            `json:"package_id"`
	Version   int               `json:"version"`
	Artifacts map[string]string `json:"artifacts"`
}

// RejectionReport captures why a package was quarantined along with the
// evidence available at the time of rejection.
type RejectionReport struct {
	PackageID             string                      `json:"package_id"`
	Reason                string                      `json:"reason"`
	ScoreReport           *model.GateScoreResult      `json:"score_report"`
	ClassificationAttempt *model.ClassificationReport `json:"classification_attempt"`
}

func contentTypeFor(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".json":
		return "application/json"
	case ".txt":
		return "text/plain"
	case ".zip":
		return "application/zip"
	default:
		return "application/octet-stream"
	}
}

func sortedKeys(artifacts model.RunArtifacts) []string {
	keys := make([]string, 0, len(artifacts))
	for k := range artifacts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
