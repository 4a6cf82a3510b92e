package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-fees-api/internal/models"
)

const studentColumns = `id, admission_number, roll_no, first_name, middle_name, last_name, dob, gender, category, class_name, section,
        mobile, email, address, city, state, pincode, route_name, photo, created_at, updated_at`

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.ClassName != "" {
		conditions = append(conditions, fmt.Sprintf("class_name = $%d", len(args)+1))
		args = append(args, filter.ClassName)
	}
	if filter.Section != "" {
		conditions = append(conditions, fmt.Sprintf("section = $%d", len(args)+1))
		args = append(args, filter.Section)
	}
	if filter.Keyword != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(LOWER(first_name || ' ' || last_name) LIKE $%d OR LOWER(admission_number) LIKE $%d)", idx, idx))
		args = append(args, "%"+strings.ToLower(filter.Keyword)+"%")
	}

	base := "FROM students WHERE " + strings.Join(conditions, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY id DESC LIMIT %d OFFSET %d", studentColumns, base, size, offset)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByAdmission fetches a student by admission number. It returns sql.ErrNoRows when absent.
func (r *StudentRepository) FindByAdmission(ctx context.Context, admissionNumber string) (*models.Student, error) {
	query := "SELECT " + studentColumns + " FROM students WHERE admission_number = $1"
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, admissionNumber); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &student, nil
}

// FindByAdmissionForUpdateTx loads the student and holds its row lock until tx ends.
func (r *StudentRepository) FindByAdmissionForUpdateTx(ctx context.Context, tx *sqlx.Tx, admissionNumber string) (*models.Student, error) {
	query := "SELECT " + studentColumns + " FROM students WHERE admission_number = $1 FOR UPDATE"
	var student models.Student
	if err := tx.GetContext(ctx, &student, query, admissionNumber); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("lock student: %w", err)
	}
	return &student, nil
}

// ExistsByAdmission checks for an admission number ignoring case and surrounding spaces.
func (r *StudentRepository) ExistsByAdmission(ctx context.Context, admissionNumber string) (bool, error) {
	const query = `SELECT 1 FROM students WHERE LOWER(TRIM(admission_number)) = LOWER(TRIM($1)) LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, admissionNumber); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check admission number: %w", err)
	}
	return true, nil
}

// CreateTx inserts a student inside tx and fills in its generated fields.
func (r *StudentRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, student *models.Student) error {
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now
	const query = `INSERT INTO students (admission_number, roll_no, first_name, middle_name, last_name, dob, gender, category, class_name, section,
        mobile, email, address, city, state, pincode, route_name, photo, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20) RETURNING id`
	err := tx.QueryRowxContext(ctx, query,
		student.AdmissionNumber, student.RollNo, student.FirstName, student.MiddleName, student.LastName, student.DOB,
		student.Gender, student.Category, student.ClassName, student.Section, student.Mobile, student.Email,
		student.Address, student.City, student.State, student.Pincode, student.RouteName, student.Photo,
		student.CreatedAt, student.UpdatedAt,
	).Scan(&student.ID)
	if err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// UpdatePhoto stores the photo path. It returns sql.ErrNoRows when the student does not exist.
func (r *StudentRepository) UpdatePhoto(ctx context.Context, admissionNumber, photo string) error {
	const query = `UPDATE students SET photo = $2, updated_at = $3 WHERE admission_number = $1`
	res, err := r.db.ExecContext(ctx, query, admissionNumber, photo, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update student photo: %w", err)
	}
	return requireAffected(res)
}

// requireAffected maps a zero-row write to sql.ErrNoRows.
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
