package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/school-fees-api/internal/models"
)

const registerColumns = `id, date, rec_no, admission_number, roll_no, student_name, class_name, category, route, months,
        fees, late_fee, ledger_amt, discount, total, recd_amt, balance, fees_heading, created_at`

// exportRowLimit caps unpaginated ledger reads used for downloads.
const exportRowLimit = 10000

// FeeRegisterRepository persists the fee ledger and its per-month items.
type FeeRegisterRepository struct {
	db *sqlx.DB
}

// NewFeeRegisterRepository constructs a FeeRegisterRepository.
func NewFeeRegisterRepository(db *sqlx.DB) *FeeRegisterRepository {
	return &FeeRegisterRepository{db: db}
}

// AppliedMonthsTx returns which of months already have a ledger item for the student.
func (r *FeeRegisterRepository) AppliedMonthsTx(ctx context.Context, tx *sqlx.Tx, admissionNumber string, months []string) ([]string, error) {
	const query = `SELECT DISTINCT month FROM fees_register_items WHERE admission_number = $1 AND month = ANY($2)`
	applied := []string{}
	if err := tx.SelectContext(ctx, &applied, query, admissionNumber, pq.Array(models.CanonicalMonths(months))); err != nil {
		return nil, fmt.Errorf("applied months: %w", err)
	}
	return applied, nil
}

// InsertTx writes a ledger row and its items inside tx.
func (r *FeeRegisterRepository) InsertTx(ctx context.Context, tx *sqlx.Tx, entry *models.FeesRegisterEntry, items []models.FeesRegisterItem) error {
	const query = `INSERT INTO fees_register (date, rec_no, admission_number, roll_no, student_name, class_name, category, route, months,
        fees, late_fee, ledger_amt, discount, total, recd_amt, balance, fees_heading)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
        RETURNING id, created_at`
	err := tx.QueryRowxContext(ctx, query,
		entry.Date, entry.RecNo, entry.AdmissionNumber, entry.RollNo, entry.StudentName, entry.ClassName, entry.Category,
		entry.Route, entry.Months, entry.Fees, entry.LateFee, entry.LedgerAmt, entry.Discount, entry.Total,
		entry.RecdAmt, entry.Balance, entry.FeesHeading,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert ledger row: %w", err)
	}

	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].RegisterID = entry.ID
		items[i].AdmissionNumber = entry.AdmissionNumber
	}
	const itemQuery = `INSERT INTO fees_register_items (register_id, admission_number, month, fees_heading, amount)
        VALUES (:register_id, :admission_number, :month, :fees_heading, :amount)`
	if _, err := tx.NamedExecContext(ctx, itemQuery, items); err != nil {
		return fmt.Errorf("insert ledger items: %w", err)
	}
	return nil
}

// PaidByHeading sums received item amounts per heading for a student.
func (r *FeeRegisterRepository) PaidByHeading(ctx context.Context, admissionNumber string) ([]models.HeadingPaid, error) {
	const query = `SELECT fees_heading, COALESCE(SUM(amount), 0) AS paid FROM fees_register_items
        WHERE admission_number = $1 GROUP BY fees_heading`
	paid := []models.HeadingPaid{}
	if err := r.db.SelectContext(ctx, &paid, query, admissionNumber); err != nil {
		return nil, fmt.Errorf("paid by heading: %w", err)
	}
	return paid, nil
}

// LedgerMonths returns the raw months column of every ledger row for a student, oldest first.
func (r *FeeRegisterRepository) LedgerMonths(ctx context.Context, admissionNumber string) ([]string, error) {
	const query = `SELECT months FROM fees_register WHERE admission_number = $1 ORDER BY id`
	months := []string{}
	if err := r.db.SelectContext(ctx, &months, query, admissionNumber); err != nil {
		return nil, fmt.Errorf("ledger months: %w", err)
	}
	return months, nil
}

// List returns ledger rows newest first, optionally for one student.
func (r *FeeRegisterRepository) List(ctx context.Context, filter models.RegisterFilter) ([]models.FeesRegisterEntry, int, error) {
	where := ""
	var args []interface{}
	if filter.AdmissionNumber != "" {
		where = " WHERE admission_number = $1"
		args = append(args, filter.AdmissionNumber)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s FROM fees_register%s ORDER BY id DESC LIMIT %d OFFSET %d", registerColumns, where, size, offset)
	entries := []models.FeesRegisterEntry{}
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list ledger: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM fees_register"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count ledger: %w", err)
	}
	return entries, total, nil
}

// ListForExport returns up to exportRowLimit ledger rows, oldest first.
func (r *FeeRegisterRepository) ListForExport(ctx context.Context, admissionNumber string) ([]models.FeesRegisterEntry, error) {
	where := ""
	var args []interface{}
	if admissionNumber != "" {
		where = " WHERE admission_number = $1"
		args = append(args, admissionNumber)
	}
	query := fmt.Sprintf("SELECT %s FROM fees_register%s ORDER BY id LIMIT %d", registerColumns, where, exportRowLimit)
	entries := []models.FeesRegisterEntry{}
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("export ledger: %w", err)
	}
	return entries, nil
}

// FindByRecNo returns the ledger row for a receipt or sql.ErrNoRows.
func (r *FeeRegisterRepository) FindByRecNo(ctx context.Context, recNo string) (*models.FeesRegisterEntry, error) {
	query := "SELECT " + registerColumns + " FROM fees_register WHERE rec_no = $1"
	var entry models.FeesRegisterEntry
	if err := r.db.GetContext(ctx, &entry, query, recNo); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find receipt: %w", err)
	}
	return &entry, nil
}

// ItemsByRegister returns the items of one ledger row.
func (r *FeeRegisterRepository) ItemsByRegister(ctx context.Context, registerID int64) ([]models.FeesRegisterItem, error) {
	const query = `SELECT id, register_id, admission_number, month, fees_heading, amount FROM fees_register_items WHERE register_id = $1 ORDER BY id`
	items := []models.FeesRegisterItem{}
	if err := r.db.SelectContext(ctx, &items, query, registerID); err != nil {
		return nil, fmt.Errorf("ledger items: %w", err)
	}
	return items, nil
}
