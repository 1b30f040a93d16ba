package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"finpack/internal/archive"
	"finpack/internal/bank"
	"finpack/internal/model"
	"finpack/internal/pipeline"
	"finpack/internal/repository"
	"finpack/internal/storage"
)

var (
	ErrIDRequired = errors.New("id is required")
	ErrNotFound   = errors.New("package not found")
	ErrReaderNil  = errors.New("reader is nil")
)

// Rejection reasons recorded on quarantined packages.
const (
	ReasonGateFailure       = "Quality gate failure"
	ReasonValidationFailure = "Validation failures"
)

const presignExpiry = 15 * time.Minute

// PipelineRunner runs the decision pipeline over a saved ZIP. Satisfied by
// pipeline.Runner.
type PipelineRunner interface {
	Run(zipPath, workdir string) (*pipeline.Result, error)
}

// ObjectBank stores pipeline outcomes in the object store. Satisfied by
// bank.Object.
type ObjectBank interface {
	Store(ctx context.Context, packageID string, artifacts model.RunArtifacts, version int) (model.RunArtifacts, error)
	Quarantine(ctx context.Context, packageID, zipPath, reason string, score *model.GateScoreResult, classification *model.ClassificationReport) (model.RunArtifacts, error)
	Delete(ctx context.Context, keys model.RunArtifacts) error
}

// PackageListResult is the service-level DTO for paginated packages.
type PackageListResult struct {
	Items []model.PackageRecord `json:"data"`
	Total int                   `json:"total"`
}

// PackageService defines the use cases for handling submitted packages.
type PackageService interface {
	// Submit saves the uploaded ZIP to a scratch workdir, runs the decision
	// pipeline, banks the outcome, and persists the record. Bank objects are
	// rolled back if the DB save fails. A rejected package is a normal
	// result; the returned record carries the rejection reason.
	Submit(ctx context.Context, r io.Reader, originalFilename string, size int64) (*model.PackageRecord, error)

	// List returns package records using limit/offset and a total count.
	List(ctx context.Context, limit, offset int) (*PackageListResult, error)

	// Get returns a single package record by its ID.
	Get(ctx context.Context, id string) (*model.PackageRecord, error)

	// Report returns presigned download URLs for every banked artifact of a
	// package, keyed by artifact name.
	Report(ctx context.Context, id string) (map[string]string, error)

	// Delete removes a package's banked objects and its record.
	Delete(ctx context.Context, id string) error
}

// packageService is a concrete implementation of PackageService.
type packageService struct {
	runner      PipelineRunner
	banks       ObjectBank
	store       storage.Storage
	repo        repository.PackageRepository
	workdirBase string
	tracer      trace.Tracer
}

// NewPackageService constructs a new PackageService. workdirBase is where
// per-submission scratch directories are created; they are removed when the
// submission finishes.
func NewPackageService(runner PipelineRunner, banks ObjectBank, store storage.Storage, repo repository.PackageRepository, workdirBase string) PackageService {
	return &packageService{
		runner:      runner,
		banks:       banks,
		store:       store,
		repo:        repo,
		workdirBase: workdirBase,
		tracer:      otel.Tracer("finpack/service"),
	}
}

func (s *packageService) Submit(ctx context.Context, r io.Reader, originalFilename string, size int64) (*model.PackageRecord, error) {
	if r == nil {
		return nil, ErrReaderNil
	}

	// Submissions run the whole pipeline, so they get their own span between
	// the server span and the storage/DB client spans.
	ctx, span := s.tracer.Start(ctx, "package.submit")
	defer span.End()

	packageID := uuid.New().String()
	workdir := filepath.Join(s.workdirBase, packageID)
	if err := os.MkdirAll(workdir, 0o755); err != nil {
		return nil, fmt.Errorf("create workdir: %w", err)
	}
	defer os.RemoveAll(workdir)

	localZip := filepath.Join(workdir, filepath.Base(originalFilename))
	written, err := archive.Save(r, localZip)
	if err != nil {
		return nil, fmt.Errorf("save upload: %w", err)
	}
	if size <= 0 {
		size = written
	}

	res, err := s.runner.Run(localZip, workdir)
	if err != nil {
		return nil, fmt.Errorf("run pipeline: %w", err)
	}
	span.SetAttributes(
		attribute.String("package.id", packageID),
		attribute.String("package.status", string(res.Status)),
	)

	record := &model.PackageRecord{
		ID:          packageID,
		PackageName: res.PackageName,
		Filename:    filepath.Base(originalFilename),
		Size:        size,
		Status:      res.Status,
		Route:       res.Route,
		TotalScore:  res.Score.TotalScore,
		Version:     1,
		CreatedAt:   time.Now().UTC(),
	}

	var keys model.RunArtifacts
	switch res.Status {
	case model.StatusRejectedGate:
		record.RejectionReason = ReasonGateFailure
		keys, err = s.banks.Quarantine(ctx, packageID, localZip, record.RejectionReason, &res.Score, nil)
	case model.StatusRejectedValidation:
		record.RejectionReason = ReasonValidationFailure
		keys, err = s.banks.Quarantine(ctx, packageID, localZip, record.RejectionReason, &res.Score, res.Classification)
	default:
		keys, err = s.banks.Store(ctx, packageID, res.Artifacts, record.Version)
	}
	if err != nil {
		return nil, fmt.Errorf("bank outcome: %w", err)
	}

	stored, err := s.repo.Create(ctx, record)
	if err != nil {
		// Rollback: delete the banked objects
		if delErr := s.banks.Delete(ctx, keys); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	return stored, nil
}

// List returns paginated packages without exposing repository types.
func (s *packageService) List(ctx context.Context, limit, offset int) (*PackageListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &PackageListResult{Items: res.Items, Total: res.Total}, nil
}

// Get returns a package record by ID.
func (s *packageService) Get(ctx context.Context, id string) (*model.PackageRecord, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	pkg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return pkg, nil
}

// Report presigns every banked object of the package. Accepted packages are
// resolved through their stored manifest; rejected ones have a fixed layout.
func (s *packageService) Report(ctx context.Context, id string) (map[string]string, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	pkg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	keys, err := s.artifactKeys(ctx, pkg)
	if err != nil {
		return nil, err
	}
	urls := make(map[string]string, len(keys))
	for name, key := range keys {
		url, err := s.store.PresignGet(ctx, key, presignExpiry)
		if err != nil {
			return nil, fmt.Errorf("presign %s: %w", name, err)
		}
		urls[name] = url
	}
	return urls, nil
}

// Delete removes a package's banked objects first, then its record. A bank
// failure keeps the DB row so the objects stay reachable.
func (s *packageService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	pkg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	keys, err := s.artifactKeys(ctx, pkg)
	if err != nil {
		return err
	}
	if err := s.banks.Delete(ctx, keys); err != nil {
		return fmt.Errorf("delete storage: %w", err)
	}
	return s.repo.Delete(ctx, id)
}

// artifactKeys reconstructs the object keys banked for a package. No keys
// are stored in the database; the good bank is indexed by its manifest and
// the bad bank layout is derivable from the record alone.
func (s *packageService) artifactKeys(ctx context.Context, pkg *model.PackageRecord) (model.RunArtifacts, error) {
	if pkg.Status != model.StatusAccepted {
		prefix := "bad-bank/" + pkg.ID
		return model.RunArtifacts{
			model.ArtifactPackageZip:      prefix + "/" + pkg.Filename,
			model.ArtifactRejectionReport: prefix + "/rejection_report.json",
		}, nil
	}

	manifestKey := fmt.Sprintf("good-bank/%s/v%d/manifest.json", pkg.ID, pkg.Version)
	rc, _, err := s.store.Get(ctx, manifestKey)
	if err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}
	defer rc.Close()

	var manifest bank.Manifest
	if err := json.NewDecoder(rc).Decode(&manifest); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	keys := model.RunArtifacts{model.ArtifactManifest: manifestKey}
	for name, key := range manifest.Artifacts {
		if strings.TrimSpace(key) == "" {
			continue
		}
		keys[name] = key
	}
	return keys, nil
}
