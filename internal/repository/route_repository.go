package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/school-fees-api/internal/models"
)

// RouteRepository persists transport routes and their price plans.
type RouteRepository struct {
	db *sqlx.DB
}

// NewRouteRepository constructs a RouteRepository.
func NewRouteRepository(db *sqlx.DB) *RouteRepository {
	return &RouteRepository{db: db}
}

// ListRoutes returns routes ordered by name.
func (r *RouteRepository) ListRoutes(ctx context.Context) ([]models.Route, error) {
	const query = `SELECT id, route_name, months, created_at FROM routes ORDER BY route_name`
	routes := []models.Route{}
	if err := r.db.SelectContext(ctx, &routes, query); err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}
	return routes, nil
}

// FindRoute returns the named route or sql.ErrNoRows.
func (r *RouteRepository) FindRoute(ctx context.Context, routeName string) (*models.Route, error) {
	const query = `SELECT id, route_name, months, created_at FROM routes WHERE route_name = $1`
	var route models.Route
	if err := r.db.GetContext(ctx, &route, query, routeName); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find route: %w", err)
	}
	return &route, nil
}

// UpsertRoute creates the route or replaces its months.
func (r *RouteRepository) UpsertRoute(ctx context.Context, route *models.Route) error {
	const query = `INSERT INTO routes (route_name, months) VALUES ($1, $2)
        ON CONFLICT (route_name) DO UPDATE SET months = EXCLUDED.months
        RETURNING id, created_at`
	if err := r.db.QueryRowxContext(ctx, query, route.RouteName, pq.Array([]string(route.Months))).Scan(&route.ID, &route.CreatedAt); err != nil {
		return fmt.Errorf("upsert route: %w", err)
	}
	return nil
}

// ListPlans returns route plans ordered by route, class and category.
func (r *RouteRepository) ListPlans(ctx context.Context) ([]models.RoutePlan, error) {
	const query = `SELECT id, class_name, category_name, route_name, price, created_at FROM route_plans ORDER BY route_name, class_name, category_name`
	plans := []models.RoutePlan{}
	if err := r.db.SelectContext(ctx, &plans, query); err != nil {
		return nil, fmt.Errorf("list route plans: %w", err)
	}
	return plans, nil
}

// FindPlan returns the transport price plan or sql.ErrNoRows.
func (r *RouteRepository) FindPlan(ctx context.Context, className, category, routeName string) (*models.RoutePlan, error) {
	const query = `SELECT id, class_name, category_name, route_name, price, created_at FROM route_plans
        WHERE class_name = $1 AND category_name = $2 AND route_name = $3`
	var plan models.RoutePlan
	if err := r.db.GetContext(ctx, &plan, query, className, category, routeName); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find route plan: %w", err)
	}
	return &plan, nil
}

// UpsertPlan creates the plan or updates its price.
func (r *RouteRepository) UpsertPlan(ctx context.Context, plan *models.RoutePlan) error {
	const query = `INSERT INTO route_plans (class_name, category_name, route_name, price) VALUES ($1, $2, $3, $4)
        ON CONFLICT (class_name, category_name, route_name) DO UPDATE SET price = EXCLUDED.price
        RETURNING id, created_at`
	if err := r.db.QueryRowxContext(ctx, query, plan.ClassName, plan.CategoryName, plan.RouteName, plan.Price).Scan(&plan.ID, &plan.CreatedAt); err != nil {
		return fmt.Errorf("upsert route plan: %w", err)
	}
	return nil
}
