package mocks

import (
	"github.com/stretchr/testify/mock"

	"finpack/internal/pipeline"
)

// MockRunner is a mock implementation of the pipeline runner for testing.
type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(zipPath, workdir string) (*pipeline.Result, error) {
	args := m.Called(zipPath, workdir)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pipeline.Result), args.Error(1)
}
