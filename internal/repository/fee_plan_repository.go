package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-fees-api/internal/models"
)

// FeePlanRepository persists fee plans.
type FeePlanRepository struct {
	db *sqlx.DB
}

// NewFeePlanRepository constructs a FeePlanRepository.
func NewFeePlanRepository(db *sqlx.DB) *FeePlanRepository {
	return &FeePlanRepository{db: db}
}

// List returns every plan, newest first.
func (r *FeePlanRepository) List(ctx context.Context) ([]models.FeePlan, error) {
	const query = `SELECT id, fees_heading, value, class_name, category, created_at FROM fees_plan ORDER BY id DESC`
	plans := []models.FeePlan{}
	if err := r.db.SelectContext(ctx, &plans, query); err != nil {
		return nil, fmt.Errorf("list fee plans: %w", err)
	}
	return plans, nil
}

// ListByClassCategory returns the plans a class/category is billed for, in creation order.
func (r *FeePlanRepository) ListByClassCategory(ctx context.Context, className, category string) ([]models.FeePlan, error) {
	const query = `SELECT id, fees_heading, value, class_name, category, created_at FROM fees_plan WHERE class_name = $1 AND category = $2 ORDER BY id`
	plans := []models.FeePlan{}
	if err := r.db.SelectContext(ctx, &plans, query, className, category); err != nil {
		return nil, fmt.Errorf("list fee plans by class: %w", err)
	}
	return plans, nil
}

// UpsertTx inserts a plan or updates the value of the existing (class, category, heading) row.
func (r *FeePlanRepository) UpsertTx(ctx context.Context, tx *sqlx.Tx, plan *models.FeePlan) error {
	const query = `INSERT INTO fees_plan (fees_heading, value, class_name, category)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (class_name, category, fees_heading) DO UPDATE SET value = EXCLUDED.value
        RETURNING id, created_at`
	if err := tx.QueryRowxContext(ctx, query, plan.FeesHeading, plan.Value, plan.ClassName, plan.Category).Scan(&plan.ID, &plan.CreatedAt); err != nil {
		return fmt.Errorf("upsert fee plan: %w", err)
	}
	return nil
}

// Update replaces a plan. It returns sql.ErrNoRows when id is unknown.
func (r *FeePlanRepository) Update(ctx context.Context, plan *models.FeePlan) error {
	const query = `UPDATE fees_plan SET fees_heading = $2, value = $3, class_name = $4, category = $5 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, plan.ID, plan.FeesHeading, plan.Value, plan.ClassName, plan.Category)
	if err != nil {
		return fmt.Errorf("update fee plan: %w", err)
	}
	return requireAffected(res)
}

// Delete removes a plan. It returns sql.ErrNoRows when id is unknown.
func (r *FeePlanRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM fees_plan WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete fee plan: %w", err)
	}
	return requireAffected(res)
}
