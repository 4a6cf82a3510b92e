package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/school-fees-api/internal/dto"
	"github.com/noah-isme/school-fees-api/internal/models"
	appErrors "github.com/noah-isme/school-fees-api/pkg/errors"
	"github.com/noah-isme/school-fees-api/pkg/validation"
)

type feePlanRepository interface {
	List(ctx context.Context) ([]models.FeePlan, error)
	UpsertTx(ctx context.Context, tx *sqlx.Tx, plan *models.FeePlan) error
	Update(ctx context.Context, plan *models.FeePlan) error
	Delete(ctx context.Context, id int64) error
}

// FeePlanService manages per class/category fee amounts.
type FeePlanService struct {
	tx        txProvider
	repo      feePlanRepository
	cache     *CacheService
	validator *validation.Validator
	logger    *zap.Logger
}

// NewFeePlanService constructs a FeePlanService.
func NewFeePlanService(tx txProvider, repo feePlanRepository, cache *CacheService, validator *validation.Validator, logger *zap.Logger) *FeePlanService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validator == nil {
		validator = validation.New()
	}
	return &FeePlanService{tx: tx, repo: repo, cache: cache, validator: validator, logger: logger}
}

// List returns all plans, newest first.
func (s *FeePlanService) List(ctx context.Context) ([]models.FeePlan, error) {
	plans, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list fee plans")
	}
	return plans, nil
}

// Create writes one plan per class × category in a single transaction.
func (s *FeePlanService) Create(ctx context.Context, req dto.CreateFeePlanRequest) (result *dto.CreateFeePlanResult, err error) {
	req.FeesHeading = strings.TrimSpace(req.FeesHeading)
	if err := s.validator.Struct(req, "invalid fee plan payload"); err != nil {
		return nil, err
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	inserted := 0
	for _, className := range req.Classes {
		for _, category := range req.Categories {
			plan := &models.FeePlan{
				FeesHeading: req.FeesHeading,
				Value:       round2(req.Value),
				ClassName:   strings.TrimSpace(className),
				Category:    strings.TrimSpace(category),
			}
			if err = s.repo.UpsertTx(ctx, tx, plan); err != nil {
				err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save fee plan")
				return nil, err
			}
			inserted++
		}
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit fee plans")
		return nil, err
	}

	_ = s.cache.InvalidateAllPending(ctx)
	s.logger.Info("fee plans saved", zap.String("fees_heading", req.FeesHeading), zap.Int("rows", inserted))
	return &dto.CreateFeePlanResult{FeesHeading: req.FeesHeading, Inserted: inserted}, nil
}

// Update replaces a plan row.
func (s *FeePlanService) Update(ctx context.Context, id int64, req dto.UpdateFeePlanRequest) (*models.FeePlan, error) {
	req.FeesHeading = strings.TrimSpace(req.FeesHeading)
	req.ClassName = strings.TrimSpace(req.ClassName)
	req.Category = strings.TrimSpace(req.Category)
	if err := s.validator.Struct(req, "invalid fee plan payload"); err != nil {
		return nil, err
	}
	plan := &models.FeePlan{
		ID:          id,
		FeesHeading: req.FeesHeading,
		Value:       round2(req.Value),
		ClassName:   req.ClassName,
		Category:    req.Category,
	}
	if err := s.repo.Update(ctx, plan); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "fee plan not found")
		}
		if appErrors.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "fee plan already exists for class and category")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update fee plan")
	}
	_ = s.cache.InvalidateAllPending(ctx)
	return plan, nil
}

// Delete removes a plan row.
func (s *FeePlanService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "fee plan not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete fee plan")
	}
	_ = s.cache.InvalidateAllPending(ctx)
	return nil
}
