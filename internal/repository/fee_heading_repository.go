package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/school-fees-api/internal/models"
)

// FeeHeadingRepository persists fee headings.
type FeeHeadingRepository struct {
	db *sqlx.DB
}

// NewFeeHeadingRepository constructs a FeeHeadingRepository.
func NewFeeHeadingRepository(db *sqlx.DB) *FeeHeadingRepository {
	return &FeeHeadingRepository{db: db}
}

// List returns all headings ordered by name.
func (r *FeeHeadingRepository) List(ctx context.Context) ([]models.FeeHeading, error) {
	const query = `SELECT id, fees_heading, group_name, frequency, account_name, months, created_at FROM fees_headings ORDER BY fees_heading, id`
	headings := []models.FeeHeading{}
	if err := r.db.SelectContext(ctx, &headings, query); err != nil {
		return nil, fmt.Errorf("list fee headings: %w", err)
	}
	return headings, nil
}

// DistinctNames returns each heading name once.
func (r *FeeHeadingRepository) DistinctNames(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT fees_heading FROM fees_headings ORDER BY fees_heading`
	names := []string{}
	if err := r.db.SelectContext(ctx, &names, query); err != nil {
		return nil, fmt.Errorf("list fee heading names: %w", err)
	}
	return names, nil
}

// Create inserts a heading.
func (r *FeeHeadingRepository) Create(ctx context.Context, heading *models.FeeHeading) error {
	const query = `INSERT INTO fees_headings (fees_heading, group_name, frequency, account_name, months)
        VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`
	err := r.db.QueryRowxContext(ctx, query, heading.FeesHeading, heading.GroupName, heading.Frequency, heading.AccountName, pq.Array([]string(heading.Months))).
		Scan(&heading.ID, &heading.CreatedAt)
	if err != nil {
		return fmt.Errorf("create fee heading: %w", err)
	}
	return nil
}

// Update replaces a heading. It returns sql.ErrNoRows when id is unknown.
func (r *FeeHeadingRepository) Update(ctx context.Context, heading *models.FeeHeading) error {
	const query = `UPDATE fees_headings SET fees_heading = $2, group_name = $3, frequency = $4, account_name = $5, months = $6 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, heading.ID, heading.FeesHeading, heading.GroupName, heading.Frequency, heading.AccountName, pq.Array([]string(heading.Months)))
	if err != nil {
		return fmt.Errorf("update fee heading: %w", err)
	}
	return requireAffected(res)
}

// Delete removes a heading. It returns sql.ErrNoRows when id is unknown.
func (r *FeeHeadingRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM fees_headings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete fee heading: %w", err)
	}
	return requireAffected(res)
}
