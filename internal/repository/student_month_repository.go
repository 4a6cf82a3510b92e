package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/school-fees-api/internal/models"
)

// StudentMonthRepository tracks the billing months a student still owes.
type StudentMonthRepository struct {
	db *sqlx.DB
}

// NewStudentMonthRepository constructs a StudentMonthRepository.
func NewStudentMonthRepository(db *sqlx.DB) *StudentMonthRepository {
	return &StudentMonthRepository{db: db}
}

// ListMonths returns outstanding months in the order they were seeded.
func (r *StudentMonthRepository) ListMonths(ctx context.Context, admissionNumber string) ([]string, error) {
	const query = `SELECT month FROM student_months WHERE admission_number = $1 ORDER BY id`
	months := []string{}
	if err := r.db.SelectContext(ctx, &months, query, admissionNumber); err != nil {
		return nil, fmt.Errorf("list student months: %w", err)
	}
	return months, nil
}

// SeedTx inserts months keeping their order; months already present are left alone.
func (r *StudentMonthRepository) SeedTx(ctx context.Context, tx *sqlx.Tx, admissionNumber string, months []string) error {
	const query = `INSERT INTO student_months (admission_number, month)
        SELECT $1, m FROM unnest($2::text[]) WITH ORDINALITY AS t(m, ord) ORDER BY ord
        ON CONFLICT (admission_number, month) DO NOTHING`
	if _, err := tx.ExecContext(ctx, query, admissionNumber, pq.Array(months)); err != nil {
		return fmt.Errorf("seed student months: %w", err)
	}
	return nil
}

// DeleteTx removes settled months.
func (r *StudentMonthRepository) DeleteTx(ctx context.Context, tx *sqlx.Tx, admissionNumber string, months []string) error {
	const query = `DELETE FROM student_months WHERE admission_number = $1 AND month = ANY($2)`
	if _, err := tx.ExecContext(ctx, query, admissionNumber, pq.Array(models.CanonicalMonths(months))); err != nil {
		return fmt.Errorf("delete student months: %w", err)
	}
	return nil
}
