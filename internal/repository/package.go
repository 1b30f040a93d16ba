// Package repository contains data access layer abstractions.
// Implementations can live in subpackages (e.g., postgres, mongo) inside this directory.
package repository

import (
	"context"

	"finpack/internal/model"
)

// PackageRepository defines data access for package records using SQL queries only.
// No business logic here — strictly persistence operations.
type PackageRepository interface {
	// Create inserts a new package record.
	// The caller should provide required fields (e.g., ID, CreatedAt) according to the database schema defaults.
	// Returns the stored record (may include values set by the DB).
	Create(ctx context.Context, pkg *model.PackageRecord) (*model.PackageRecord, error)

	// FindByID returns a package record by its ID.
	FindByID(ctx context.Context, id string) (*model.PackageRecord, error)

	// List returns a paginated list of package records and total rows count for the given filter.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.PackageRecord], error)

	// UpdateStatus sets the decision status and rejection reason of a record
	// and returns the updated row.
	UpdateStatus(ctx context.Context, id string, status model.PackageStatus, reason string) (*model.PackageRecord, error)

	// Delete removes a package record by ID. It returns nil if the row was deleted or did not exist.
	Delete(ctx context.Context, id string) error
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
