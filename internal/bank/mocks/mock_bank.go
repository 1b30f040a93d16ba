package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"finpack/internal/model"
)

// MockBank is a mock implementation of the object bank for testing.
type MockBank struct {
	mock.Mock
}

func (m *MockBank) Store(ctx context.Context, packageID string, artifacts model.RunArtifacts, version int) (model.RunArtifacts, error) {
	args := m.Called(ctx, packageID, artifacts, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(model.RunArtifacts), args.Error(1)
}

func (m *MockBank) Quarantine(ctx context.Context, packageID, zipPath, reason string, score *model.GateScoreResult, classification *model.ClassificationReport) (model.RunArtifacts, error) {
	args := m.Called(ctx, packageID, zipPath, reason, score, classification)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(model.RunArtifacts), args.Error(1)
}

func (m *MockBank) Delete(ctx context.Context, keys model.RunArtifacts) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}
