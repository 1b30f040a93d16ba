package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"testing"

	bankMocks "finpack/internal/bank/mocks"
	"finpack/internal/model"
	"finpack/internal/pipeline"
	pipelineMocks "finpack/internal/pipeline/mocks"
	"finpack/internal/repository"
	repoMocks "finpack/internal/repository/mocks"
	storeMocks "finpack/internal/storage/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func acceptedResult() *pipeline.Result {
	return &pipeline.Result{
		PackageName: "acme_q1",
		Status:      model.StatusAccepted,
		Route:       model.RouteStandard,
		Score:       model.GateScoreResult{Status: model.GateGood, TotalScore: 100},
		Artifacts: model.RunArtifacts{
			model.ArtifactScoreJSON: "/scratch/score.json",
			model.ArtifactMemoText:  "/scratch/credit_memo.txt",
		},
	}
}

func TestPackageService_Submit(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name             string
		originalFilename string
		size             int64
		setupMocks       func(mRunner *pipelineMocks.MockRunner, mBank *bankMocks.MockBank, mRepo *repoMocks.MockPackageRepository) io.Reader
		wantErr          error
		wantErrMsg       string
		checkRecord      func(t *testing.T, pkg *model.PackageRecord)
	}{
		{
			name:             "accepted package",
			originalFilename: "acme_q1.zip",
			size:             0,
			setupMocks: func(mRunner *pipelineMocks.MockRunner, mBank *bankMocks.MockBank, mRepo *repoMocks.MockPackageRepository) io.Reader {
				res := acceptedResult()
				mRunner.On("Run", mock.MatchedBy(func(zipPath string) bool {
					return strings.HasSuffix(zipPath, "acme_q1.zip")
				}), mock.Anything).Return(res, nil)

				mBank.On("Store", mock.Anything, mock.Anything, res.Artifacts, 1).
					Return(model.RunArtifacts{model.ArtifactManifest: "good-bank/id/v1/manifest.json"}, nil)

				mRepo.On("Create", mock.Anything, mock.MatchedBy(func(pkg *model.PackageRecord) bool {
					return pkg.PackageName == "acme_q1" &&
						pkg.Status == model.StatusAccepted &&
						pkg.RejectionReason == "" &&
						pkg.Version == 1 &&
						pkg.Size == int64(len("zip bytes"))
				})).Return(&model.PackageRecord{ID: "gen-id", Status: model.StatusAccepted}, nil)

				return strings.NewReader("zip bytes")
			},
			checkRecord: func(t *testing.T, pkg *model.PackageRecord) {
				assert.Equal(t, "gen-id", pkg.ID)
				assert.Equal(t, model.StatusAccepted, pkg.Status)
			},
		},
		{
			name:             "gate rejected package is quarantined",
			originalFilename: "bad.zip",
			size:             20,
			setupMocks: func(mRunner *pipelineMocks.MockRunner, mBank *bankMocks.MockBank, mRepo *repoMocks.MockPackageRepository) io.Reader {
				res := &pipeline.Result{
					PackageName: "bad",
					Status:      model.StatusRejectedGate,
					Route:       model.RouteException,
					Score:       model.GateScoreResult{Status: model.GateBad, TotalScore: 0},
					Artifacts:   model.RunArtifacts{model.ArtifactScoreJSON: "/scratch/score.json"},
				}
				mRunner.On("Run", mock.Anything, mock.Anything).Return(res, nil)

				mBank.On("Quarantine", mock.Anything, mock.Anything, mock.MatchedBy(func(zipPath string) bool {
					return strings.HasSuffix(zipPath, "bad.zip")
				}), ReasonGateFailure, mock.MatchedBy(func(score *model.GateScoreResult) bool {
					return score.TotalScore == 0
				}), (*model.ClassificationReport)(nil)).
					Return(model.RunArtifacts{model.ArtifactPackageZip: "bad-bank/id/bad.zip"}, nil)

				mRepo.On("Create", mock.Anything, mock.MatchedBy(func(pkg *model.PackageRecord) bool {
					return pkg.Status == model.StatusRejectedGate &&
						pkg.RejectionReason == ReasonGateFailure &&
						pkg.Size == 20
				})).Return(&model.PackageRecord{ID: "gen-id", Status: model.StatusRejectedGate}, nil)

				return strings.NewReader("not a zip")
			},
			checkRecord: func(t *testing.T, pkg *model.PackageRecord) {
				assert.Equal(t, model.StatusRejectedGate, pkg.Status)
			},
		},
		{
			name:             "validation rejected package keeps classification evidence",
			originalFilename: "acme_q2.zip",
			size:             9,
			setupMocks: func(mRunner *pipelineMocks.MockRunner, mBank *bankMocks.MockBank, mRepo *repoMocks.MockPackageRepository) io.Reader {
				classification := &model.ClassificationReport{
					Summary: model.ClassificationSummary{TotalDocuments: 3},
				}
				res := &pipeline.Result{
					PackageName:    "acme_q2",
					Status:         model.StatusRejectedValidation,
					Route:          model.RouteStandard,
					Score:          model.GateScoreResult{Status: model.GateGood, TotalScore: 85},
					Classification: classification,
					Artifacts:      model.RunArtifacts{model.ArtifactScoreJSON: "/scratch/score.json"},
				}
				mRunner.On("Run", mock.Anything, mock.Anything).Return(res, nil)

				mBank.On("Quarantine", mock.Anything, mock.Anything, mock.Anything, ReasonValidationFailure, mock.Anything, classification).
					Return(model.RunArtifacts{model.ArtifactPackageZip: "bad-bank/id/acme_q2.zip"}, nil)

				mRepo.On("Create", mock.Anything, mock.MatchedBy(func(pkg *model.PackageRecord) bool {
					return pkg.Status == model.StatusRejectedValidation &&
						pkg.RejectionReason == ReasonValidationFailure &&
						pkg.TotalScore == 85
				})).Return(&model.PackageRecord{ID: "gen-id"}, nil)

				return strings.NewReader("zip bytes")
			},
		},
		{
			name:             "validation error - nil reader",
			originalFilename: "acme_q1.zip",
			setupMocks: func(mRunner *pipelineMocks.MockRunner, mBank *bankMocks.MockBank, mRepo *repoMocks.MockPackageRepository) io.Reader {
				return nil
			},
			wantErr: ErrReaderNil,
		},
		{
			name:             "pipeline error",
			originalFilename: "acme_q1.zip",
			size:             9,
			setupMocks: func(mRunner *pipelineMocks.MockRunner, mBank *bankMocks.MockBank, mRepo *repoMocks.MockPackageRepository) io.Reader {
				mRunner.On("Run", mock.Anything, mock.Anything).Return(nil, errors.New("scan fail"))
				return strings.NewReader("zip bytes")
			},
			wantErrMsg: "run pipeline: scan fail",
		},
		{
			name:             "bank error",
			originalFilename: "acme_q1.zip",
			size:             9,
			setupMocks: func(mRunner *pipelineMocks.MockRunner, mBank *bankMocks.MockBank, mRepo *repoMocks.MockPackageRepository) io.Reader {
				mRunner.On("Run", mock.Anything, mock.Anything).Return(acceptedResult(), nil)
				mBank.On("Store", mock.Anything, mock.Anything, mock.Anything, 1).
					Return(nil, errors.New("minio down"))
				return strings.NewReader("zip bytes")
			},
			wantErrMsg: "bank outcome: minio down",
		},
		{
			name:             "repository error with successful rollback",
			originalFilename: "acme_q1.zip",
			size:             9,
			setupMocks: func(mRunner *pipelineMocks.MockRunner, mBank *bankMocks.MockBank, mRepo *repoMocks.MockPackageRepository) io.Reader {
				keys := model.RunArtifacts{model.ArtifactManifest: "good-bank/id/v1/manifest.json"}
				mRunner.On("Run", mock.Anything, mock.Anything).Return(acceptedResult(), nil)
				mBank.On("Store", mock.Anything, mock.Anything, mock.Anything, 1).Return(keys, nil)
				mRepo.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("db fail"))
				mBank.On("Delete", mock.Anything, keys).Return(nil)
				return strings.NewReader("zip bytes")
			},
			wantErrMsg: "db save failed: db fail",
		},
		{
			name:             "repository error with failed rollback",
			originalFilename: "acme_q1.zip",
			size:             9,
			setupMocks: func(mRunner *pipelineMocks.MockRunner, mBank *bankMocks.MockBank, mRepo *repoMocks.MockPackageRepository) io.Reader {
				mRunner.On("Run", mock.Anything, mock.Anything).Return(acceptedResult(), nil)
				mBank.On("Store", mock.Anything, mock.Anything, mock.Anything, 1).
					Return(model.RunArtifacts{}, nil)
				mRepo.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("db fail"))
				mBank.On("Delete", mock.Anything, mock.Anything).Return(errors.New("delete fail"))
				return strings.NewReader("zip bytes")
			},
			wantErrMsg: "rollback delete failed: delete fail",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRunner := new(pipelineMocks.MockRunner)
			mBank := new(bankMocks.MockBank)
			mRepo := new(repoMocks.MockPackageRepository)
			svc := NewPackageService(mRunner, mBank, nil, mRepo, t.TempDir())

			r := tt.setupMocks(mRunner, mBank, mRepo)

			pkg, err := svc.Submit(ctx, r, tt.originalFilename, tt.size)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else if tt.wantErrMsg != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrMsg)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, pkg)
				if tt.checkRecord != nil {
					tt.checkRecord(t, pkg)
				}
			}

			mRunner.AssertExpectations(t)
			mBank.AssertExpectations(t)
			mRepo.AssertExpectations(t)
		})
	}
}

func TestPackageService_List(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		limit      int
		offset     int
		setupMocks func(mRepo *repoMocks.MockPackageRepository)
		wantErr    error
		checkRes   func(t *testing.T, res *PackageListResult)
	}{
		{
			name:   "happy path",
			limit:  10,
			offset: 0,
			setupMocks: func(mRepo *repoMocks.MockPackageRepository) {
				mRepo.On("List", ctx, repository.PageQuery{Limit: 10, Offset: 0}).
					Return(&repository.PageResult[model.PackageRecord]{
						Items: []model.PackageRecord{{ID: "1"}, {ID: "2"}},
						Total: 2,
					}, nil)
			},
			checkRes: func(t *testing.T, res *PackageListResult) {
				assert.Equal(t, 2, len(res.Items))
				assert.Equal(t, 2, res.Total)
			},
		},
		{
			name:   "pagination boundary - zero limit uses default",
			limit:  0,
			offset: -1,
			setupMocks: func(mRepo *repoMocks.MockPackageRepository) {
				mRepo.On("List", ctx, repository.PageQuery{Limit: 10, Offset: 0}).
					Return(&repository.PageResult[model.PackageRecord]{Items: []model.PackageRecord{}, Total: 0}, nil)
			},
		},
		{
			name:  "repository error",
			limit: 10,
			setupMocks: func(mRepo *repoMocks.MockPackageRepository) {
				mRepo.On("List", ctx, mock.Anything).Return(nil, errors.New("db fail"))
			},
			wantErr: errors.New("db fail"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockPackageRepository)
			svc := NewPackageService(nil, nil, nil, mRepo, "")

			tt.setupMocks(mRepo)

			res, err := svc.List(ctx, tt.limit, tt.offset)

			if tt.wantErr != nil {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				if tt.checkRes != nil {
					tt.checkRes(t, res)
				}
			}
			mRepo.AssertExpectations(t)
		})
	}
}

func TestPackageService_Get(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		id         string
		setupMocks func(mRepo *repoMocks.MockPackageRepository)
		wantErr    error
	}{
		{
			name: "happy path",
			id:   "valid-id",
			setupMocks: func(mRepo *repoMocks.MockPackageRepository) {
				mRepo.On("FindByID", ctx, "valid-id").Return(&model.PackageRecord{ID: "valid-id"}, nil)
			},
		},
		{
			name:       "validation - empty id",
			id:         "",
			setupMocks: func(mRepo *repoMocks.MockPackageRepository) {},
			wantErr:    ErrIDRequired,
		},
		{
			name: "not found - mapping sql.ErrNoRows",
			id:   "missing-id",
			setupMocks: func(mRepo *repoMocks.MockPackageRepository) {
				mRepo.On("FindByID", ctx, "missing-id").Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
		{
			name: "generic repository error",
			id:   "error-id",
			setupMocks: func(mRepo *repoMocks.MockPackageRepository) {
				mRepo.On("FindByID", ctx, "error-id").Return(nil, errors.New("db fail"))
			},
			wantErr: errors.New("db fail"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockPackageRepository)
			svc := NewPackageService(nil, nil, nil, mRepo, "")

			tt.setupMocks(mRepo)

			pkg, err := svc.Get(ctx, tt.id)

			if tt.wantErr != nil {
				if errors.Is(tt.wantErr, ErrIDRequired) || errors.Is(tt.wantErr, ErrNotFound) {
					assert.ErrorIs(t, err, tt.wantErr)
				} else {
					assert.Error(t, err)
				}
				assert.Nil(t, pkg)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, pkg)
				assert.Equal(t, tt.id, pkg.ID)
			}
			mRepo.AssertExpectations(t)
		})
	}
}

const manifestJSON = `{
  "package_id": "p1",
  "version": 2,
  "artifacts": {
    "score_json": "good-bank/p1/v2/score.json",
    "memo_text": "good-bank/p1/v2/credit_memo.txt"
  }
}`

func TestPackageService_Report(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		id         string
		setupMocks func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockPackageRepository)
		wantErr    error
		wantErrMsg string
		checkURLs  func(t *testing.T, urls map[string]string)
	}{
		{
			name: "accepted package resolves through manifest",
			id:   "p1",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockPackageRepository) {
				mRepo.On("FindByID", ctx, "p1").
					Return(&model.PackageRecord{ID: "p1", Status: model.StatusAccepted, Version: 2}, nil)
				mStore.On("Get", ctx, "good-bank/p1/v2/manifest.json").
					Return(io.NopCloser(strings.NewReader(manifestJSON)), nil, nil)
				mStore.On("PresignGet", ctx, "good-bank/p1/v2/manifest.json", presignExpiry).
					Return("http://dl/manifest", nil)
				mStore.On("PresignGet", ctx, "good-bank/p1/v2/score.json", presignExpiry).
					Return("http://dl/score", nil)
				mStore.On("PresignGet", ctx, "good-bank/p1/v2/credit_memo.txt", presignExpiry).
					Return("http://dl/memo", nil)
			},
			checkURLs: func(t *testing.T, urls map[string]string) {
				assert.Equal(t, map[string]string{
					model.ArtifactManifest:  "http://dl/manifest",
					model.ArtifactScoreJSON: "http://dl/score",
					model.ArtifactMemoText:  "http://dl/memo",
				}, urls)
			},
		},
		{
			name: "rejected package has fixed bad bank layout",
			id:   "p2",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockPackageRepository) {
				mRepo.On("FindByID", ctx, "p2").
					Return(&model.PackageRecord{ID: "p2", Status: model.StatusRejectedGate, Filename: "acme.zip"}, nil)
				mStore.On("PresignGet", ctx, "bad-bank/p2/acme.zip", presignExpiry).
					Return("http://dl/zip", nil)
				mStore.On("PresignGet", ctx, "bad-bank/p2/rejection_report.json", presignExpiry).
					Return("http://dl/report", nil)
			},
			checkURLs: func(t *testing.T, urls map[string]string) {
				assert.Equal(t, map[string]string{
					model.ArtifactPackageZip:      "http://dl/zip",
					model.ArtifactRejectionReport: "http://dl/report",
				}, urls)
			},
		},
		{
			name:       "validation - empty id",
			id:         "",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockPackageRepository) {},
			wantErr:    ErrIDRequired,
		},
		{
			name: "not found",
			id:   "missing",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockPackageRepository) {
				mRepo.On("FindByID", ctx, "missing").Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
		{
			name: "manifest load error",
			id:   "p1",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockPackageRepository) {
				mRepo.On("FindByID", ctx, "p1").
					Return(&model.PackageRecord{ID: "p1", Status: model.StatusAccepted, Version: 1}, nil)
				mStore.On("Get", ctx, "good-bank/p1/v1/manifest.json").
					Return(nil, nil, errors.New("minio down"))
			},
			wantErrMsg: "load manifest: minio down",
		},
		{
			name: "presign error",
			id:   "p2",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockPackageRepository) {
				mRepo.On("FindByID", ctx, "p2").
					Return(&model.PackageRecord{ID: "p2", Status: model.StatusRejectedGate, Filename: "acme.zip"}, nil)
				mStore.On("PresignGet", ctx, mock.Anything, presignExpiry).
					Return("", errors.New("minio down"))
			},
			wantErrMsg: "presign",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			mRepo := new(repoMocks.MockPackageRepository)
			svc := NewPackageService(nil, nil, mStore, mRepo, "")

			tt.setupMocks(mStore, mRepo)

			urls, err := svc.Report(ctx, tt.id)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else if tt.wantErrMsg != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrMsg)
			} else {
				assert.NoError(t, err)
				if tt.checkURLs != nil {
					tt.checkURLs(t, urls)
				}
			}
			mStore.AssertExpectations(t)
			mRepo.AssertExpectations(t)
		})
	}
}

func TestPackageService_Delete(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		id         string
		setupMocks func(mStore *storeMocks.MockStorage, mBank *bankMocks.MockBank, mRepo *repoMocks.MockPackageRepository)
		wantErr    error
		wantErrMsg string
	}{
		{
			name: "accepted package deletes manifest artifacts",
			id:   "p1",
			setupMocks: func(mStore *storeMocks.MockStorage, mBank *bankMocks.MockBank, mRepo *repoMocks.MockPackageRepository) {
				mRepo.On("FindByID", ctx, "p1").
					Return(&model.PackageRecord{ID: "p1", Status: model.StatusAccepted, Version: 2}, nil)
				mStore.On("Get", ctx, "good-bank/p1/v2/manifest.json").
					Return(io.NopCloser(strings.NewReader(manifestJSON)), nil, nil)
				mBank.On("Delete", ctx, model.RunArtifacts{
					model.ArtifactManifest:  "good-bank/p1/v2/manifest.json",
					model.ArtifactScoreJSON: "good-bank/p1/v2/score.json",
					model.ArtifactMemoText:  "good-bank/p1/v2/credit_memo.txt",
				}).Return(nil)
				mRepo.On("Delete", ctx, "p1").Return(nil)
			},
		},
		{
			name: "rejected package deletes bad bank objects",
			id:   "p2",
			setupMocks: func(mStore *storeMocks.MockStorage, mBank *bankMocks.MockBank, mRepo *repoMocks.MockPackageRepository) {
				mRepo.On("FindByID", ctx, "p2").
					Return(&model.PackageRecord{ID: "p2", Status: model.StatusRejectedValidation, Filename: "acme.zip"}, nil)
				mBank.On("Delete", ctx, model.RunArtifacts{
					model.ArtifactPackageZip:      "bad-bank/p2/acme.zip",
					model.ArtifactRejectionReport: "bad-bank/p2/rejection_report.json",
				}).Return(nil)
				mRepo.On("Delete", ctx, "p2").Return(nil)
			},
		},
		{
			name:       "validation - empty id",
			id:         "",
			setupMocks: func(mStore *storeMocks.MockStorage, mBank *bankMocks.MockBank, mRepo *repoMocks.MockPackageRepository) {},
			wantErr:    ErrIDRequired,
		},
		{
			name: "not found",
			id:   "missing",
			setupMocks: func(mStore *storeMocks.MockStorage, mBank *bankMocks.MockBank, mRepo *repoMocks.MockPackageRepository) {
				mRepo.On("FindByID", ctx, "missing").Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
		{
			name: "manifest load error keeps everything",
			id:   "p1",
			setupMocks: func(mStore *storeMocks.MockStorage, mBank *bankMocks.MockBank, mRepo *repoMocks.MockPackageRepository) {
				mRepo.On("FindByID", ctx, "p1").
					Return(&model.PackageRecord{ID: "p1", Status: model.StatusAccepted, Version: 1}, nil)
				mStore.On("Get", ctx, "good-bank/p1/v1/manifest.json").
					Return(nil, nil, errors.New("minio down"))
			},
			wantErrMsg: "load manifest",
		},
		{
			name: "bank delete error keeps DB row",
			id:   "p2",
			setupMocks: func(mStore *storeMocks.MockStorage, mBank *bankMocks.MockBank, mRepo *repoMocks.MockPackageRepository) {
				mRepo.On("FindByID", ctx, "p2").
					Return(&model.PackageRecord{ID: "p2", Status: model.StatusRejectedGate, Filename: "acme.zip"}, nil)
				mBank.On("Delete", ctx, mock.Anything).Return(errors.New("minio down"))
			},
			wantErrMsg: "delete storage: minio down",
		},
		{
			name: "repository delete error",
			id:   "p2",
			setupMocks: func(mStore *storeMocks.MockStorage, mBank *bankMocks.MockBank, mRepo *repoMocks.MockPackageRepository) {
				mRepo.On("FindByID", ctx, "p2").
					Return(&model.PackageRecord{ID: "p2", Status: model.StatusRejectedGate, Filename: "acme.zip"}, nil)
				mBank.On("Delete", ctx, mock.Anything).Return(nil)
				mRepo.On("Delete", ctx, "p2").Return(errors.New("db fail"))
			},
			wantErrMsg: "db fail",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			mBank := new(bankMocks.MockBank)
			mRepo := new(repoMocks.MockPackageRepository)
			svc := NewPackageService(nil, mBank, mStore, mRepo, "")

			tt.setupMocks(mStore, mBank, mRepo)

			err := svc.Delete(ctx, tt.id)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else if tt.wantErrMsg != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrMsg)
			} else {
				assert.NoError(t, err)
			}
			mStore.AssertExpectations(t)
			mBank.AssertExpectations(t)
			mRepo.AssertExpectations(t)
		})
	}
}
