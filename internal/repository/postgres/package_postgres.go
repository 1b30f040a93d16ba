package postgres

import (
	"context"
	"database/sql"

	"finpack/internal/model"
	"finpack/internal/repository"
)

// PackagePostgres is a PostgreSQL implementation of repository.PackageRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type PackagePostgres struct {
	db *sql.DB
}

// NewPackagePostgres creates a new PackagePostgres repository.
func NewPackagePostgres(db *sql.DB) *PackagePostgres {
	return &PackagePostgres{db: db}
}

var _ repository.PackageRepository = (*PackagePostgres)(nil)

// Create inserts a new package row and returns the stored record.
func (r *PackagePostgres) Create(ctx context.Context, pkg *model.PackageRecord) (*model.PackageRecord, error) {
	const q = `
		INSERT INTO packages (id, package_name, filename, size, status, route, total_score, rejection_reason, version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, package_name, filename, size, status, route, total_score, rejection_reason, version, created_at
	`
	row := r.db.QueryRowContext(ctx, q,
		pkg.ID,
		pkg.PackageName,
		pkg.Filename,
		pkg.Size,
		pkg.Status,
		pkg.Route,
		pkg.TotalScore,
		pkg.RejectionReason,
		pkg.Version,
		pkg.CreatedAt,
	)
	return scanPackage(row)
}

// FindByID fetches a single package record by its ID.
func (r *PackagePostgres) FindByID(ctx context.Context, id string) (*model.PackageRecord, error) {
	const q = `
		SELECT id, package_name, filename, size, status, route, total_score, rejection_reason, version, created_at
		FROM packages
		WHERE id = $1
	`
	return scanPackage(r.db.QueryRowContext(ctx, q, id))
}

// List returns package records using LIMIT/OFFSET pagination and a total count.
func (r *PackagePostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.PackageRecord], error) {
	// Count total rows
	const qCount = `SELECT COUNT(*) FROM packages`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	// Fetch page
	const qList = `
		SELECT id, package_name, filename, size, status, route, total_score, rejection_reason, version, created_at
		FROM packages
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.PackageRecord, 0)
	for rows.Next() {
		var p model.PackageRecord
		if err := rows.Scan(
			&p.ID,
			&p.PackageName,
			&p.Filename,
			&p.Size,
			&p.Status,
			&p.Route,
			&p.TotalScore,
			&p.RejectionReason,
			&p.Version,
			&p.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.PackageRecord]{
		Items: items,
		Total: total,
	}, nil
}

// UpdateStatus sets the status and rejection reason of one row and returns it.
func (r *PackagePostgres) UpdateStatus(ctx context.Context, id string, status model.PackageStatus, reason string) (*model.PackageRecord, error) {
	const q = `
		UPDATE packages
		SET status = $2, rejection_reason = $3
		WHERE id = $1
		RETURNING id, package_name, filename, size, status, route, total_score, rejection_reason, version, created_at
	`
	return scanPackage(r.db.QueryRowContext(ctx, q, id, status, reason))
}

// Delete removes a package record by ID. It does not return an error if the row does not exist.
func (r *PackagePostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM packages WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	// Ignore rows affected to keep behavior simple per requirement (no business logic).
	_, _ = res.RowsAffected()
	return nil
}

func scanPackage(row *sql.Row) (*model.PackageRecord, error) {
	var p model.PackageRecord
	if err := row.Scan(
		&p.ID,
		&p.PackageName,
		&p.Filename,
		&p.Size,
		&p.Status,
		&p.Route,
		&p.TotalScore,
		&p.RejectionReason,
		&p.Version,
		&p.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}
