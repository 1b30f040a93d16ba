package bank

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"finpack/internal/model"
)

// Local is a filesystem-backed bank used by the CLI runner. Accepted runs go
// to <base>/good_bank, quarantined runs to <base>/bad_bank.
type Local struct {
	baseDir string
}

func NewLocal(baseDir string) *Local {
	return &Local{baseDir: baseDir}
}

// Store copies the artifact files of an accepted package into a versioned
// good-bank folder and writes a manifest. The returned map points at the
// copied files, plus the manifest itself.
func (l *Local) Store(packageID string, artifacts model.RunArtifacts, version int) (model.RunArtifacts, error) {
	base := filepath.Join(l.baseDir, "good_bank", packageID, fmt.Sprintf("v%d", version))
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("create good bank dir: %w", err)
	}

	copied := model.RunArtifacts{}
	for _, key := range sortedKeys(artifacts) {
		src := artifacts[key]
		if src == "" {
			continue
		}
		dest := filepath.Join(base, filepath.Base(src))
		if err := copyFile(src, dest); err != nil {
			return nil, fmt.Errorf("copy artifact %s: %w", key, err)
		}
		copied[key] = dest
	}

	manifest := Manifest{PackageID: packageID, Version: version, Artifacts: copied}
	manifestPath := filepath.Join(base, "manifest.json")
	if err := writeJSON(manifest, manifestPath); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}
	copied[model.ArtifactManifest] = manifestPath
	return copied, nil
}

// Quarantine copies the offending ZIP into the bad bank next to a rejection
// report describing the failure.
func (l *Local) Quarantine(packageID, zipPath, reason string, score *model.GateScoreResult, classification *model.ClassificationReport) (model.RunArtifacts, error) {
	base := filepath.Join(l.baseDir, "bad_bank", packageID)
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("create bad bank dir: %w", err)
	}

	copied := model.RunArtifacts{}
	dest := filepath.Join(base, filepath.Base(zipPath))
	if err := copyFile(zipPath, dest); err != nil {
		return nil, fmt.Errorf("copy zip: %w", err)
	}
	copied[model.ArtifactPackageZip] = dest

	report := RejectionReport{
		PackageID:             packageID,
		Reason:                reason,
		ScoreReport:           score,
		ClassificationAttempt: classification,
	}
	reportPath := filepath.Join(base, "rejection_report.json")
	if err := writeJSON(report, reportPath); err != nil {
		return nil, fmt.Errorf("write rejection report: %w", err)
	}
	copied[model.ArtifactRejectionReport] = reportPath
	return copied, nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func writeJSON(v any, path string) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}
