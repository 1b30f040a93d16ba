package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"finpack/internal/model"
	"finpack/internal/repository"
)

type MockPackageRepository struct {
	mock.Mock
}

func (m *MockPackageRepository) Create(ctx context.Context, pkg *model.PackageRecord) (*model.PackageRecord, error) {
	args := m.Called(ctx, pkg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PackageRecord), args.Error(1)
}

func (m *MockPackageRepository) FindByID(ctx context.Context, id string) (*model.PackageRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PackageRecord), args.Error(1)
}

func (m *MockPackageRepository) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.PackageRecord], error) {
	args := m.Called(ctx, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.PackageRecord]), args.Error(1)
}

func (m *MockPackageRepository) UpdateStatus(ctx context.Context, id string, status model.PackageStatus, reason string) (*model.PackageRecord, error) {
	args := m.Called(ctx, id, status, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PackageRecord), args.Error(1)
}

func (m *MockPackageRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
