package mocks

import (
	"context"
	"io"

	"finpack/internal/model"
	"finpack/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockPackageService struct {
	mock.Mock
}

func (m *MockPackageService) Submit(ctx context.Context, r io.Reader, originalFilename string, size int64) (*model.PackageRecord, error) {
	args := m.Called(ctx, r, originalFilename, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PackageRecord), args.Error(1)
}

func (m *MockPackageService) List(ctx context.Context, limit, offset int) (*service.PackageListResult, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PackageListResult), args.Error(1)
}

func (m *MockPackageService) Get(ctx context.Context, id string) (*model.PackageRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PackageRecord), args.Error(1)
}

func (m *MockPackageService) Report(ctx context.Context, id string) (map[string]string, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

func (m *MockPackageService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
