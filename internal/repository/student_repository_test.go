package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-fees-api/internal/models"
)

var studentRowColumns = []string{"id", "admission_number", "roll_no", "first_name", "middle_name", "last_name", "dob", "gender", "category",
	"class_name", "section", "mobile", "email", "address", "city", "state", "pincode", "route_name", "photo", "created_at", "updated_at"}

func studentRow(rows *sqlmock.Rows, admission string, route interface{}) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(1, admission, "7", "Asha", "", "Rao", nil, "F", "General", "10th", "A", "", "", "", "", "", "", route, nil, now, now)
}

func TestStudentRepositoryList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM students WHERE 1=1 AND class_name = $1 AND (LOWER(first_name || ' ' || last_name) LIKE $2 OR LOWER(admission_number) LIKE $2) ORDER BY id DESC LIMIT 10 OFFSET 10")).
		WithArgs("10th", "%asha%").
		WillReturnRows(studentRow(sqlmock.NewRows(studentRowColumns), "ADM-1", nil))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students WHERE 1=1 AND class_name = $1")).
		WithArgs("10th", "%asha%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	students, total, err := repo.List(context.Background(), models.StudentFilter{ClassName: "10th", Keyword: "Asha", Page: 2, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "Asha Rao", students[0].FullName())
	assert.Equal(t, 11, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFindByAdmission(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM students WHERE admission_number = $1")).
		WithArgs("ADM-1").
		WillReturnRows(studentRow(sqlmock.NewRows(studentRowColumns), "ADM-1", "R1"))

	student, err := repo.FindByAdmission(context.Background(), "ADM-1")
	require.NoError(t, err)
	assert.Equal(t, "R1", student.Route())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryForUpdateLocksRow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE admission_number = $1 FOR UPDATE")).
		WithArgs("ADM-404").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	tx, err := db.Beginx()
	require.NoError(t, err)
	_, err = repo.FindByAdmissionForUpdateTx(context.Background(), tx, "ADM-404")
	assert.Equal(t, sql.ErrNoRows, err)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryExistsByAdmission(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("LOWER(TRIM(admission_number)) = LOWER(TRIM($1))")).
		WithArgs("adm-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("LOWER(TRIM(admission_number)) = LOWER(TRIM($1))")).
		WithArgs("ADM-2").
		WillReturnError(sql.ErrNoRows)

	exists, err := repo.ExistsByAdmission(context.Background(), "adm-1")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByAdmission(context.Background(), "ADM-2")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCreateTx(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO students").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	student := &models.Student{AdmissionNumber: "ADM-1", FirstName: "Asha", Category: "General", ClassName: "10th"}
	require.NoError(t, repo.CreateTx(context.Background(), tx, student))
	require.NoError(t, tx.Commit())
	assert.Equal(t, int64(42), student.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryUpdatePhotoMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("UPDATE students SET photo").
		WithArgs("ADM-9", "students/ADM-9.jpg", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdatePhoto(context.Background(), "ADM-9", "students/ADM-9.jpg")
	assert.Equal(t, sql.ErrNoRows, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentMonthRepository(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentMonthRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT month FROM student_months WHERE admission_number = $1 ORDER BY id")).
		WithArgs("ADM-1").
		WillReturnRows(sqlmock.NewRows([]string{"month"}).AddRow("Apr").AddRow("May"))
	months, err := repo.ListMonths(context.Background(), "ADM-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Apr", "May"}, months)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("unnest($2::text[]) WITH ORDINALITY")).
		WithArgs("ADM-1", "{\"Apr\",\"May\"}").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM student_months WHERE admission_number = $1 AND month = ANY($2)")).
		WithArgs("ADM-1", "{\"Apr\"}").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM student_months WHERE admission_number = $1 AND month = ANY($2)")).
		WithArgs("ADM-1", "{\"May\"}").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	require.NoError(t, repo.SeedTx(context.Background(), tx, "ADM-1", []string{"Apr", "May"}))
	require.NoError(t, repo.DeleteTx(context.Background(), tx, "ADM-1", []string{"Apr"}))
	require.NoError(t, repo.DeleteTx(context.Background(), tx, "ADM-1", []string{"may"}))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}
