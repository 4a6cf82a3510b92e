package service

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/school-fees-api/internal/dto"
	"github.com/noah-isme/school-fees-api/internal/models"
	appErrors "github.com/noah-isme/school-fees-api/pkg/errors"
	"github.com/noah-isme/school-fees-api/pkg/validation"
)

const noPendingMonths = "No Pending Months"

// Fee apply outcomes reported to metrics.
const (
	applyOutcomeApplied  = "applied"
	applyOutcomeConflict = "conflict"
	applyOutcomeError    = "error"
)

type feeStudentRepository interface {
	FindByAdmission(ctx context.Context, admissionNumber string) (*models.Student, error)
	FindByAdmissionForUpdateTx(ctx context.Context, tx *sqlx.Tx, admissionNumber string) (*models.Student, error)
}

type studentMonthRepository interface {
	ListMonths(ctx context.Context, admissionNumber string) ([]string, error)
	DeleteTx(ctx context.Context, tx *sqlx.Tx, admissionNumber string, months []string) error
}

type feePlanReader interface {
	ListByClassCategory(ctx context.Context, className, category string) ([]models.FeePlan, error)
}

type routeReader interface {
	FindRoute(ctx context.Context, routeName string) (*models.Route, error)
	FindPlan(ctx context.Context, className, category, routeName string) (*models.RoutePlan, error)
}

type ledgerRepository interface {
	AppliedMonthsTx(ctx context.Context, tx *sqlx.Tx, admissionNumber string, months []string) ([]string, error)
	InsertTx(ctx context.Context, tx *sqlx.Tx, entry *models.FeesRegisterEntry, items []models.FeesRegisterItem) error
	PaidByHeading(ctx context.Context, admissionNumber string) ([]models.HeadingPaid, error)
	LedgerMonths(ctx context.Context, admissionNumber string) ([]string, error)
}

// FeeServiceDeps groups the collaborators of FeeService.
type FeeServiceDeps struct {
	Tx        txProvider
	Students  feeStudentRepository
	Months    studentMonthRepository
	Plans     feePlanReader
	Routes    routeReader
	Ledger    ledgerRepository
	Cache     *CacheService
	Metrics   *MetricsService
	Validator *validation.Validator
	Logger    *zap.Logger
}

// FeeService applies fees to student months and reports what is still owed.
type FeeService struct {
	tx        txProvider
	students  feeStudentRepository
	months    studentMonthRepository
	plans     feePlanReader
	routes    routeReader
	ledger    ledgerRepository
	cache     *CacheService
	metrics   *MetricsService
	validator *validation.Validator
	logger    *zap.Logger
	now       func() time.Time
	receiptNo func(time.Time) string
}

// NewFeeService constructs a FeeService.
func NewFeeService(deps FeeServiceDeps) *FeeService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Validator == nil {
		deps.Validator = validation.New()
	}
	return &FeeService{
		tx:        deps.Tx,
		students:  deps.Students,
		months:    deps.Months,
		plans:     deps.Plans,
		routes:    deps.Routes,
		ledger:    deps.Ledger,
		cache:     deps.Cache,
		metrics:   deps.Metrics,
		validator: deps.Validator,
		logger:    deps.Logger,
		now:       time.Now,
		receiptNo: NewReceiptNo,
	}
}

// Apply writes one ledger row per unpaid selected month and clears those months from the
// student's pending set, all in a single transaction.
func (s *FeeService) Apply(ctx context.Context, req dto.ApplyFeesRequest) (result *dto.ApplyFeesResult, err error) {
	req = normalizeApplyRequest(req)
	if err := s.validator.Struct(req, "invalid fee application"); err != nil {
		return nil, err
	}
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	start := time.Now()
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		s.metrics.ObserveDBQuery("fees_apply_tx", time.Since(start))
		if err != nil {
			_ = tx.Rollback()
			if !errors.Is(err, appErrors.ErrConflict) {
				s.metrics.RecordFeeApply(applyOutcomeError, 0, 0)
			}
		}
	}()

	student, err := s.students.FindByAdmissionForUpdateTx(ctx, tx, req.AdmissionNo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = appErrors.Clone(appErrors.ErrNotFound, "student not found")
			return nil, err
		}
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
		return nil, err
	}

	applied, err := s.ledger.AppliedMonthsTx(ctx, tx, student.AdmissionNumber, req.SelectedMonths)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check applied months")
		return nil, err
	}
	alreadyApplied, monthsToApply := partitionMonths(req.SelectedMonths, applied)
	if len(monthsToApply) == 0 {
		s.metrics.RecordFeeApply(applyOutcomeConflict, 0, 0)
		err = appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrConflict, "fees already applied for all selected months"),
			map[string]interface{}{"alreadyApplied": alreadyApplied},
		)
		return nil, err
	}

	plans, err := s.plans.ListByClassCategory(ctx, req.ClassName, req.Category)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee plans")
		return nil, err
	}
	if len(plans) == 0 {
		err = appErrors.Clone(appErrors.ErrNotFound, "no academic fee plan found for class and category")
		return nil, err
	}

	breakdown := make([]dto.BreakdownLine, 0, len(plans)*len(monthsToApply))
	for _, plan := range plans {
		for _, month := range monthsToApply {
			breakdown = append(breakdown, dto.BreakdownLine{
				FeesHeading:    plan.FeesHeading,
				Month:          month,
				OriginalAmount: plan.Value,
				FinalAmount:    plan.Value,
			})
		}
	}

	transport, routeFee, err := s.transportLines(ctx, student, req.ClassName, req.Category, monthsToApply)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load route plan")
		return nil, err
	}
	breakdown = append(breakdown, transport...)

	now := s.now()
	receipts := make([]dto.AppliedReceipt, 0, len(monthsToApply))
	for _, month := range monthsToApply {
		entry, items := s.ledgerRow(student, req, month, breakdown, now)
		if err = s.ledger.InsertTx(ctx, tx, entry, items); err != nil {
			if appErrors.IsUniqueViolation(err) {
				s.metrics.RecordFeeApply(applyOutcomeConflict, 0, 0)
				err = appErrors.WithDetails(
					appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "fees were applied concurrently for a selected month"),
					map[string]interface{}{"month": month},
				)
				return nil, err
			}
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record fees")
			return nil, err
		}
		receipts = append(receipts, dto.AppliedReceipt{Month: month, RecNo: entry.RecNo, Amount: entry.Total})
	}

	if err = s.months.DeleteTx(ctx, tx, student.AdmissionNumber, monthsToApply); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear pending months")
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit fee application")
		return nil, err
	}

	totals := dto.FeeTotals{}
	for _, line := range breakdown {
		totals.Original += line.OriginalAmount
		totals.Final += line.FinalAmount
	}
	totals.Original = round2(totals.Original)
	totals.Final = round2(totals.Final)

	_ = s.cache.InvalidatePending(ctx, student.AdmissionNumber)
	s.metrics.RecordFeeApply(applyOutcomeApplied, len(monthsToApply), totals.Final)
	s.logger.Info("fees applied",
		zap.String("admission_number", student.AdmissionNumber),
		zap.Strings("months", monthsToApply),
		zap.Strings("skipped", alreadyApplied),
		zap.Float64("total", totals.Final),
	)

	return &dto.ApplyFeesResult{
		AdmissionNo:   student.AdmissionNumber,
		AppliedMonths: monthsToApply,
		SkippedMonths: alreadyApplied,
		Breakdown:     breakdown,
		Totals:        totals,
		RouteFee:      routeFee,
		Receipts:      receipts,
	}, nil
}

// transportLines returns the transport breakdown for the months the student's route bills.
// A missing route plan or route yields no lines.
func (s *FeeService) transportLines(ctx context.Context, student *models.Student, className, category string, months []string) ([]dto.BreakdownLine, float64, error) {
	routeName := student.Route()
	if routeName == "" || s.routes == nil {
		return nil, 0, nil
	}
	plan, err := s.routes.FindPlan(ctx, className, category, routeName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, nil
		}
		return nil, 0, err
	}
	route, err := s.routes.FindRoute(ctx, routeName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, nil
		}
		return nil, 0, err
	}
	billable := monthSet(route.Months)
	if len(billable) == 0 {
		return nil, 0, nil
	}

	// routeFee reports the route price even when no requested month is billable.
	var lines []dto.BreakdownLine
	for _, month := range months {
		if _, ok := billable[strings.ToLower(month)]; !ok {
			continue
		}
		lines = append(lines, dto.BreakdownLine{
			FeesHeading:    models.TransportFeeHeading,
			Month:          month,
			OriginalAmount: plan.Price,
			FinalAmount:    plan.Price,
		})
	}
	return lines, plan.Price, nil
}

func (s *FeeService) ledgerRow(student *models.Student, req dto.ApplyFeesRequest, month string, breakdown []dto.BreakdownLine, now time.Time) (*models.FeesRegisterEntry, []models.FeesRegisterItem) {
	var sum float64
	var headings []string
	var items []models.FeesRegisterItem
	for _, line := range breakdown {
		if line.Month != month {
			continue
		}
		sum += line.FinalAmount
		headings = append(headings, line.FeesHeading)
		items = append(items, models.FeesRegisterItem{Month: month, FeesHeading: line.FeesHeading, Amount: line.FinalAmount})
	}
	sum = round2(sum)

	return &models.FeesRegisterEntry{
		Date:            now,
		RecNo:           s.receiptNo(now),
		AdmissionNumber: student.AdmissionNumber,
		RollNo:          student.RollNo,
		StudentName:     student.FullName(),
		ClassName:       req.ClassName,
		Category:        req.Category,
		Route:           student.Route(),
		Months:          month,
		Fees:            sum,
		LedgerAmt:       sum,
		Total:           sum,
		RecdAmt:         sum,
		Balance:         sum,
		FeesHeading:     strings.Join(headings, ", "),
	}, items
}

// Pending reports planned, paid and outstanding amounts per heading for a student.
// The boolean reports whether the result came from cache.
func (s *FeeService) Pending(ctx context.Context, admissionNo string) (*dto.PendingFeesResult, bool, error) {
	admissionNo = strings.TrimSpace(admissionNo)
	if admissionNo == "" {
		return nil, false, appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrValidation, "admissionNo is required"),
			map[string]string{"admissionNo": "admissionNo is required"},
		)
	}

	key := PendingCacheKey(admissionNo)
	var cached dto.PendingFeesResult
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	student, err := s.students.FindByAdmission(ctx, admissionNo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	remaining, err := s.months.ListMonths(ctx, student.AdmissionNumber)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pending months")
	}

	plans, err := s.plans.ListByClassCategory(ctx, student.ClassName, student.Category)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee plans")
	}

	paidRows, err := s.ledger.PaidByHeading(ctx, student.AdmissionNumber)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load paid amounts")
	}
	paid := make(map[string]float64, len(paidRows))
	for _, row := range paidRows {
		paid[row.FeesHeading] += row.Paid
	}

	ledgerMonths, err := s.ledger.LedgerMonths(ctx, student.AdmissionNumber)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load paid months")
	}
	paidMonths := splitMonths(ledgerMonths)

	display := noPendingMonths
	if len(remaining) > 0 {
		display = strings.Join(remaining, ", ")
	}

	lines := make([]dto.PendingFeeLine, 0, len(plans)+1)
	for _, plan := range plans {
		lines = append(lines, pendingLine(plan.FeesHeading, plan.Value, paid[plan.FeesHeading], display, paidMonths))
	}

	if routeName := student.Route(); routeName != "" && s.routes != nil {
		plan, err := s.routes.FindPlan(ctx, student.ClassName, student.Category, routeName)
		switch {
		case err == nil:
			total := plan.Price * float64(len(remaining))
			lines = append(lines, pendingLine(models.TransportFeeHeading, total, paid[models.TransportFeeHeading], display, paidMonths))
		case !errors.Is(err, sql.ErrNoRows):
			return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load route plan")
		}
	}

	result := &dto.PendingFeesResult{
		Student:         *student,
		PendingFees:     lines,
		RemainingMonths: remaining,
		PaidMonths:      paidMonths,
	}
	_ = s.cache.Set(ctx, key, result, 0)
	return result, false, nil
}

func pendingLine(heading string, total, paid float64, months string, paidMonths []string) dto.PendingFeeLine {
	total = round2(total)
	paid = round2(paid)
	return dto.PendingFeeLine{
		FeesHeading: heading,
		Total:       total,
		Paid:        paid,
		Balance:     math.Max(round2(total-paid), 0),
		Months:      months,
		PaidMonths:  paidMonths,
	}
}

func normalizeApplyRequest(req dto.ApplyFeesRequest) dto.ApplyFeesRequest {
	req.AdmissionNo = strings.TrimSpace(req.AdmissionNo)
	req.ClassName = strings.TrimSpace(req.ClassName)
	req.Category = strings.TrimSpace(req.Category)
	req.SelectedMonths = models.CanonicalMonths(req.SelectedMonths)
	return req
}

// partitionMonths splits requested into those present in applied and the rest, keeping request order.
func partitionMonths(requested, applied []string) (already, toApply []string) {
	seen := make(map[string]struct{}, len(applied))
	for _, m := range applied {
		seen[m] = struct{}{}
	}
	already = []string{}
	toApply = []string{}
	for _, m := range requested {
		if _, ok := seen[m]; ok {
			already = append(already, m)
		} else {
			toApply = append(toApply, m)
		}
	}
	return already, toApply
}

// monthSet lower-cases and trims months, accepting comma-joined entries.
func monthSet(months []string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, m := range splitMonths(months) {
		set[strings.ToLower(m)] = struct{}{}
	}
	return set
}

// splitMonths flattens comma-joined month lists, trimming and de-duplicating in first-seen order.
func splitMonths(values []string) []string {
	out := []string{}
	seen := make(map[string]struct{})
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			month := strings.TrimSpace(part)
			if month == "" {
				continue
			}
			if _, ok := seen[month]; ok {
				continue
			}
			seen[month] = struct{}{}
			out = append(out, month)
		}
	}
	return out
}

// NewReceiptNo returns a receipt number of the form REC-YYYYMMDD-XXXXXXXXXXXX.
func NewReceiptNo(at time.Time) string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "REC-" + at.Format("20060102") + "-" + id[:12]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
