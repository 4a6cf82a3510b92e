package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/school-fees-api/internal/dto"
	"github.com/noah-isme/school-fees-api/internal/models"
	appErrors "github.com/noah-isme/school-fees-api/pkg/errors"
	"github.com/noah-isme/school-fees-api/pkg/export"
	"github.com/noah-isme/school-fees-api/pkg/validation"
)

// Export formats supported by the register download.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

var registerExportHeaders = []string{
	"Date", "Receipt No", "Admission No", "Student", "Class", "Category", "Route",
	"Months", "Fees Heading", "Fees", "Late Fee", "Discount", "Total", "Received", "Balance",
}

type registerRepository interface {
	InsertTx(ctx context.Context, tx *sqlx.Tx, entry *models.FeesRegisterEntry, items []models.FeesRegisterItem) error
	List(ctx context.Context, filter models.RegisterFilter) ([]models.FeesRegisterEntry, int, error)
	ListForExport(ctx context.Context, admissionNumber string) ([]models.FeesRegisterEntry, error)
	FindByRecNo(ctx context.Context, recNo string) (*models.FeesRegisterEntry, error)
	ItemsByRegister(ctx context.Context, registerID int64) ([]models.FeesRegisterItem, error)
}

type registerStudentRepository interface {
	FindByAdmissionForUpdateTx(ctx context.Context, tx *sqlx.Tx, admissionNumber string) (*models.Student, error)
}

type monthRemover interface {
	DeleteTx(ctx context.Context, tx *sqlx.Tx, admissionNumber string, months []string) error
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// RegisterServiceDeps groups the collaborators of RegisterService.
type RegisterServiceDeps struct {
	Tx         txProvider
	Ledger     registerRepository
	Students   registerStudentRepository
	Months     monthRemover
	Cache      *CacheService
	Metrics    *MetricsService
	Validator  *validation.Validator
	Logger     *zap.Logger
	CSV        csvRenderer
	PDF        pdfRenderer
	SchoolName string
}

// RegisterService records manual receipts and serves the fees register.
type RegisterService struct {
	tx         txProvider
	ledger     registerRepository
	students   registerStudentRepository
	months     monthRemover
	cache      *CacheService
	metrics    *MetricsService
	validator  *validation.Validator
	logger     *zap.Logger
	csv        csvRenderer
	pdf        pdfRenderer
	schoolName string
	now        func() time.Time
	receiptNo  func(time.Time) string
}

// NewRegisterService constructs a RegisterService.
func NewRegisterService(deps RegisterServiceDeps) *RegisterService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Validator == nil {
		deps.Validator = validation.New()
	}
	if deps.CSV == nil {
		deps.CSV = export.NewCSVExporter()
	}
	if deps.PDF == nil {
		deps.PDF = export.NewPDFExporter(deps.SchoolName)
	}
	return &RegisterService{
		tx:         deps.Tx,
		ledger:     deps.Ledger,
		students:   deps.Students,
		months:     deps.Months,
		cache:      deps.Cache,
		metrics:    deps.Metrics,
		validator:  deps.Validator,
		logger:     deps.Logger,
		csv:        deps.CSV,
		pdf:        deps.PDF,
		schoolName: deps.SchoolName,
		now:        time.Now,
		receiptNo:  NewReceiptNo,
	}
}

// List returns ledger rows newest first.
func (s *RegisterService) List(ctx context.Context, filter models.RegisterFilter) ([]models.FeesRegisterEntry, *models.Pagination, error) {
	filter.AdmissionNumber = strings.TrimSpace(filter.AdmissionNumber)
	entries, total, err := s.ledger.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list fees register")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return entries, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Record stores a manual receipt and clears its months from the student's pending set.
func (s *RegisterService) Record(ctx context.Context, req dto.RecordFeeRequest) (entry *models.FeesRegisterEntry, err error) {
	req = normalizeRecordRequest(req)
	if err := s.validator.Struct(req, "invalid register entry"); err != nil {
		return nil, err
	}

	date := s.now()
	if req.Date != "" {
		date, _ = time.Parse("2006-01-02", req.Date)
	}
	total := round2(req.Fees + req.LateFee - req.Discount)
	if total < 0 {
		return nil, appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrValidation, "invalid register entry"),
			map[string]string{"discount": "discount must not exceed fees plus late fee"},
		)
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

	student, err := s.students.FindByAdmissionForUpdateTx(ctx, tx, req.AdmissionNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = appErrors.Clone(appErrors.ErrNotFound, "student not found")
			return nil, err
		}
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
		return nil, err
	}

	recNo := req.RecNo
	if recNo == "" {
		recNo = s.receiptNo(date)
	}
	entry = &models.FeesRegisterEntry{
		Date:            date,
		RecNo:           recNo,
		AdmissionNumber: student.AdmissionNumber,
		RollNo:          student.RollNo,
		StudentName:     student.FullName(),
		ClassName:       student.ClassName,
		Category:        student.Category,
		Route:           student.Route(),
		Months:          strings.Join(req.Months, ", "),
		Fees:            round2(req.Fees),
		LateFee:         round2(req.LateFee),
		LedgerAmt:       round2(req.Fees),
		Discount:        round2(req.Discount),
		Total:           total,
		RecdAmt:         round2(req.RecdAmt),
		Balance:         round2(total - req.RecdAmt),
		FeesHeading:     req.FeesHeading,
	}

	amounts := splitAmount(entry.RecdAmt, len(req.Months))
	items := make([]models.FeesRegisterItem, 0, len(req.Months))
	for i, month := range req.Months {
		items = append(items, models.FeesRegisterItem{Month: month, FeesHeading: req.FeesHeading, Amount: amounts[i]})
	}

	if err = s.ledger.InsertTx(ctx, tx, entry, items); err != nil {
		if appErrors.IsUniqueViolation(err) {
			err = appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "receipt number or month already recorded for this heading")
			return nil, err
		}
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record fees")
		return nil, err
	}
	if err = s.months.DeleteTx(ctx, tx, student.AdmissionNumber, req.Months); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear pending months")
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit register entry")
		return nil, err
	}

	_ = s.cache.InvalidatePending(ctx, student.AdmissionNumber)
	s.metrics.ObserveLedgerWrite(entry.RecdAmt)
	s.logger.Info("register entry recorded",
		zap.String("rec_no", entry.RecNo),
		zap.String("admission_number", entry.AdmissionNumber),
		zap.Float64("recd_amt", entry.RecdAmt),
	)
	return entry, nil
}

// Export renders the register as CSV or PDF.
func (s *RegisterService) Export(ctx context.Context, format, admissionNo string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrValidation, "unsupported export format"),
			map[string]string{"format": "format must be csv or pdf"},
		)
	}

	admissionNo = strings.TrimSpace(admissionNo)
	entries, err := s.ledger.ListForExport(ctx, admissionNo)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fees register")
	}

	dataset := export.Dataset{Title: "Fees Register", Headers: registerExportHeaders, Rows: make([][]string, 0, len(entries))}
	if admissionNo != "" {
		dataset.Title = "Fees Register - " + admissionNo
	}
	for _, e := range entries {
		dataset.Rows = append(dataset.Rows, []string{
			e.Date.Format("2006-01-02"), e.RecNo, e.AdmissionNumber, e.StudentName, e.ClassName, e.Category, e.Route,
			e.Months, e.FeesHeading, money(e.Fees), money(e.LateFee), money(e.Discount), money(e.Total), money(e.RecdAmt), money(e.Balance),
		})
	}

	file := &ExportFile{Filename: fmt.Sprintf("fees_register_%s.%s", s.now().UTC().Format("20060102_150405"), format)}
	switch format {
	case ExportFormatPDF:
		file.ContentType = "application/pdf"
		file.Data, err = s.pdf.Render(dataset)
	default:
		file.ContentType = "text/csv"
		file.Data, err = s.csv.Render(dataset)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render fees register")
	}
	return file, nil
}

// Receipt renders the PDF receipt of one ledger row.
func (s *RegisterService) Receipt(ctx context.Context, recNo string) (*ExportFile, error) {
	recNo = strings.TrimSpace(recNo)
	entry, err := s.ledger.FindByRecNo(ctx, recNo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "receipt not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load receipt")
	}
	items, err := s.ledger.ItemsByRegister(ctx, entry.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load receipt lines")
	}

	receipt := export.Receipt{
		SchoolName:      s.schoolName,
		ReceiptNo:       entry.RecNo,
		Date:            entry.Date,
		AdmissionNumber: entry.AdmissionNumber,
		StudentName:     entry.StudentName,
		ClassName:       entry.ClassName,
		Category:        entry.Category,
		Route:           entry.Route,
		Months:          entry.Months,
		Fees:            entry.Fees,
		LateFee:         entry.LateFee,
		Discount:        entry.Discount,
		Total:           entry.Total,
		Received:        entry.RecdAmt,
		Balance:         entry.Balance,
	}
	for _, item := range items {
		receipt.Lines = append(receipt.Lines, export.ReceiptLine{Label: item.FeesHeading + " (" + item.Month + ")", Amount: item.Amount})
	}

	data, err := export.RenderReceipt(receipt)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render receipt")
	}
	return &ExportFile{Filename: "receipt_" + photoFileName(entry.RecNo) + ".pdf", ContentType: "application/pdf", Data: data}, nil
}

func normalizeRecordRequest(req dto.RecordFeeRequest) dto.RecordFeeRequest {
	req.AdmissionNumber = strings.TrimSpace(req.AdmissionNumber)
	req.RecNo = strings.TrimSpace(req.RecNo)
	req.Date = strings.TrimSpace(req.Date)
	req.FeesHeading = strings.TrimSpace(req.FeesHeading)
	req.Months = models.CanonicalMonths(req.Months)
	return req
}

// splitAmount divides amount into n parts in whole cents, the remainder going to the last part.
func splitAmount(amount float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	cents := int64(math.Round(amount * 100))
	share := cents / int64(n)
	parts := make([]float64, n)
	for i := range parts {
		parts[i] = float64(share) / 100
	}
	parts[n-1] = float64(cents-share*int64(n-1)) / 100
	return parts
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
