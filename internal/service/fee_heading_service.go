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

type feeHeadingRepository interface {
	List(ctx context.Context) ([]models.FeeHeading, error)
	DistinctNames(ctx context.Context) ([]string, error)
	Create(ctx context.Context, heading *models.FeeHeading) error
	Update(ctx context.Context, heading *models.FeeHeading) error
	Delete(ctx context.Context, id int64) error
}

// FeeHeadingService manages the catalogue of fee headings.
type FeeHeadingService struct {
	repo      feeHeadingRepository
	validator *validation.Validator
	logger    *zap.Logger
}

// NewFeeHeadingService constructs a FeeHeadingService.
func NewFeeHeadingService(repo feeHeadingRepository, validator *validation.Validator, logger *zap.Logger) *FeeHeadingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validator == nil {
		validator = validation.New()
	}
	return &FeeHeadingService{repo: repo, validator: validator, logger: logger}
}

// Names returns the distinct heading names.
func (s *FeeHeadingService) Names(ctx context.Context) ([]string, error) {
	names, err := s.repo.DistinctNames(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list fee headings")
	}
	return names, nil
}

// List returns every heading row.
func (s *FeeHeadingService) List(ctx context.Context) ([]models.FeeHeading, error) {
	headings, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list fee headings")
	}
	return headings, nil
}

// Create adds a heading.
func (s *FeeHeadingService) Create(ctx context.Context, req dto.FeeHeadingRequest) (*models.FeeHeading, error) {
	heading, err := s.build(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, heading); err != nil {
		if appErrors.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "fee heading already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create fee heading")
	}
	s.logger.Info("fee heading created", zap.String("fees_heading", heading.FeesHeading))
	return heading, nil
}

// Update replaces a heading.
func (s *FeeHeadingService) Update(ctx context.Context, id int64, req dto.FeeHeadingRequest) (*models.FeeHeading, error) {
	heading, err := s.build(req)
	if err != nil {
		return nil, err
	}
	heading.ID = id
	if err := s.repo.Update(ctx, heading); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "fee heading not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update fee heading")
	}
	return heading, nil
}

// Delete removes a heading.
func (s *FeeHeadingService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "fee heading not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete fee heading")
	}
	return nil
}

func (s *FeeHeadingService) build(req dto.FeeHeadingRequest) (*models.FeeHeading, error) {
	req.FeesHeading = strings.TrimSpace(req.FeesHeading)
	req.GroupName = strings.TrimSpace(req.GroupName)
	req.Frequency = strings.TrimSpace(req.Frequency)
	req.AccountName = strings.TrimSpace(req.AccountName)
	if err := s.validator.Struct(req, "invalid fee heading payload"); err != nil {
		return nil, err
	}
	return &models.FeeHeading{
		FeesHeading: req.FeesHeading,
		GroupName:   req.GroupName,
		Frequency:   req.Frequency,
		AccountName: req.AccountName,
		Months:      pq.StringArray(splitMonths(req.Months)),
	}, nil
}
