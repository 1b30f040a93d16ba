package bank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"finpack/internal/model"
	"finpack/internal/storage"
)

// Object is an object-store-backed bank used by the API service. Accepted
// packages upload under good-bank/<id>/v<version>/, quarantined ones under
// bad-bank/<id>/.
type Object struct {
	store storage.Storage
}

func NewObject(store storage.Storage) *Object {
	return &Object{store: store}
}

// Store uploads the artifact files of an accepted package and a manifest
// describing them. The returned map holds object keys, not local paths.
func (o *Object) Store(ctx context.Context, packageID string, artifacts model.RunArtifacts, version int) (model.RunArtifacts, error) {
	prefix := fmt.Sprintf("good-bank/%s/v%d", packageID, version)

	stored := model.RunArtifacts{}
	for _, key := range sortedKeys(artifacts) {
		src := artifacts[key]
		if src == "" {
			continue
		}
		objectKey := prefix + "/" + filepath.Base(src)
		if err := o.putFile(ctx, objectKey, src, packageID); err != nil {
			return nil, fmt.Errorf("store artifact %s: %w", key, err)
		}
		stored[key] = objectKey
	}

	manifest := Manifest{PackageID: packageID, Version: version, Artifacts: stored}
	manifestKey := prefix + "/manifest.json"
	if err := o.putJSON(ctx, manifestKey, manifest, packageID); err != nil {
		return nil, fmt.Errorf("store manifest: %w", err)
	}
	stored[model.ArtifactManifest] = manifestKey
	return stored, nil
}

// Quarantine uploads the offending ZIP and a rejection report.
func (o *Object) Quarantine(ctx context.Context, packageID, zipPath, reason string, score *model.GateScoreResult, classification *model.ClassificationReport) (model.RunArtifacts, error) {
	prefix := "bad-bank/" + packageID

	stored := model.RunArtifacts{}
	zipKey := prefix + "/" + filepath.Base(zipPath)
	if err := o.putFile(ctx, zipKey, zipPath, packageID); err != nil {
		return nil, fmt.Errorf("store zip: %w", err)
	}
	stored[model.ArtifactPackageZip] = zipKey

	report := RejectionReport{
		PackageID:             packageID,
		Reason:                reason,
		ScoreReport:           score,
		ClassificationAttempt: classification,
	}
	reportKey := prefix + "/rejection_report.json"
	if err := o.putJSON(ctx, reportKey, report, packageID); err != nil {
		return nil, fmt.Errorf("store rejection report: %w", err)
	}
	stored[model.ArtifactRejectionReport] = reportKey
	return stored, nil
}

// Delete removes every stored object of a package, both bank sides.
func (o *Object) Delete(ctx context.Context, keys model.RunArtifacts) error {
	for _, key := range sortedKeys(keys) {
		if err := o.store.Delete(ctx, keys[key]); err != nil {
			return fmt.Errorf("delete %s: %w", key, err)
		}
	}
	return nil
}

// Uploads carry the owning package id as user metadata so objects stay
// attributable when found outside their prefix.
func (o *Object) putFile(ctx context.Context, objectKey, src, packageID string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return err
	}
	_, err = o.store.Put(ctx, objectKey, f, storage.PutObjectOptions{
		Size:        st.Size(),
		ContentType: contentTypeFor(objectKey),
		Metadata:    map[string]string{"package-id": packageID},
	})
	return err
}

func (o *Object) putJSON(ctx context.Context, objectKey string, v any, packageID string) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = o.store.Put(ctx, objectKey, bytes.NewReader(raw), storage.PutObjectOptions{
		Size:        int64(len(raw)),
		ContentType: "application/json",
		Metadata:    map[string]string{"package-id": packageID},
	})
	return err
}
