package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/school-fees-api/internal/dto"
	"github.com/noah-isme/school-fees-api/internal/models"
	appErrors "github.com/noah-isme/school-fees-api/pkg/errors"
	"github.com/noah-isme/school-fees-api/pkg/validation"
)

type routeRepository interface {
	ListRoutes(ctx context.Context) ([]models.Route, error)
	FindRoute(ctx context.Context, routeName string) (*models.Route, error)
	UpsertRoute(ctx context.Context, route *models.Route) error
	ListPlans(ctx context.Context) ([]models.RoutePlan, error)
	UpsertPlan(ctx context.Context, plan *models.RoutePlan) error
}

// RouteService manages transport routes and their per class/category prices.
type RouteService struct {
	repo      routeRepository
	cache     *CacheService
	validator *validation.Validator
	logger    *zap.Logger
}

// NewRouteService constructs a RouteService.
func NewRouteService(repo routeRepository, cache *CacheService, validator *validation.Validator, logger *zap.Logger) *RouteService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validator == nil {
		validator = validation.New()
	}
	return &RouteService{repo: repo, cache: cache, validator: validator, logger: logger}
}

// ListRoutes returns all routes.
func (s *RouteService) ListRoutes(ctx context.Context) ([]models.Route, error) {
	routes, err := s.repo.ListRoutes(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list routes")
	}
	return routes, nil
}

// UpsertRoute creates a route or replaces the months it bills.
// Months may arrive comma-joined; they are split and trimmed before storing.
func (s *RouteService) UpsertRoute(ctx context.Context, req dto.UpsertRouteRequest) (*models.Route, error) {
	req.RouteName = strings.TrimSpace(req.RouteName)
	if err := s.validator.Struct(req, "invalid route payload"); err != nil {
		return nil, err
	}
	months := splitMonths(req.Months)
	if len(months) == 0 {
		return nil, appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrValidation, "invalid route payload"),
			map[string]string{"months": "months must contain at least one month"},
		)
	}

	route := &models.Route{RouteName: req.RouteName, Months: pq.StringArray(months)}
	if err := s.repo.UpsertRoute(ctx, route); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save route")
	}
	_ = s.cache.InvalidateAllPending(ctx)
	s.logger.Info("route saved", zap.String("route_name", route.RouteName), zap.Strings("months", months))
	return route, nil
}

// ListPlans returns all route plans.
func (s *RouteService) ListPlans(ctx context.Context) ([]models.RoutePlan, error) {
	plans, err := s.repo.ListPlans(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list route plans")
	}
	return plans, nil
}

// UpsertPlan sets the monthly transport price of a route for a class/category.
func (s *RouteService) UpsertPlan(ctx context.Context, req dto.UpsertRoutePlanRequest) (*models.RoutePlan, error) {
	req.ClassName = strings.TrimSpace(req.ClassName)
	req.CategoryName = strings.TrimSpace(req.CategoryName)
	req.RouteName = strings.TrimSpace(req.RouteName)
	if err := s.validator.Struct(req, "invalid route plan payload"); err != nil {
		return nil, err
	}

	if _, err := s.repo.FindRoute(ctx, req.RouteName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "route not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load route")
	}

	plan := &models.RoutePlan{
		ClassName:    req.ClassName,
		CategoryName: req.CategoryName,
		RouteName:    req.RouteName,
		Price:        round2(req.Price),
	}
	if err := s.repo.UpsertPlan(ctx, plan); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save route plan")
	}
	_ = s.cache.InvalidateAllPending(ctx)
	return plan, nil
}
