package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"image"
	_ "image/jpeg"
	"image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/school-fees-api/internal/dto"
	"github.com/noah-isme/school-fees-api/internal/models"
	appErrors "github.com/noah-isme/school-fees-api/pkg/errors"
	"github.com/noah-isme/school-fees-api/pkg/storage"
)

type mockStudentRepo struct {
	students   map[string]*models.Student
	lastFilter models.StudentFilter
	listTotal  int
	createErr  error
	photos     map[string]string
	err        error
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	m.lastFilter = filter
	if m.err != nil {
		return nil, 0, m.err
	}
	out := make([]models.Student, 0, len(m.students))
	for _, s := range m.students {
		out = append(out, *s)
	}
	return out, m.listTotal, nil
}

func (m *mockStudentRepo) FindByAdmission(ctx context.Context, admissionNumber string) (*models.Student, error) {
	if s, ok := m.students[admissionNumber]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) ExistsByAdmission(ctx context.Context, admissionNumber string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	for key := range m.students {
		if strings.EqualFold(strings.TrimSpace(key), strings.TrimSpace(admissionNumber)) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockStudentRepo) CreateTx(ctx context.Context, tx *sqlx.Tx, student *models.Student) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.students == nil {
		m.students = make(map[string]*models.Student)
	}
	student.ID = int64(len(m.students) + 1)
	m.students[student.AdmissionNumber] = student
	return nil
}

func (m *mockStudentRepo) UpdatePhoto(ctx context.Context, admissionNumber, photo string) error {
	if _, ok := m.students[admissionNumber]; !ok {
		return sql.ErrNoRows
	}
	if m.photos == nil {
		m.photos = make(map[string]string)
	}
	m.photos[admissionNumber] = photo
	return nil
}

type mockMonthSeeder struct {
	seeded  map[string][]string
	seedErr error
}

func (m *mockMonthSeeder) ListMonths(ctx context.Context, admissionNumber string) ([]string, error) {
	return m.seeded[admissionNumber], nil
}

func (m *mockMonthSeeder) SeedTx(ctx context.Context, tx *sqlx.Tx, admissionNumber string, months []string) error {
	if m.seedErr != nil {
		return m.seedErr
	}
	if m.seeded == nil {
		m.seeded = make(map[string][]string)
	}
	m.seeded[admissionNumber] = append([]string{}, months...)
	return nil
}

func validStudentRequest() dto.CreateStudentRequest {
	return dto.CreateStudentRequest{
		AdmissionNumber: " ADM-001 ",
		FirstName:       "Asha",
		LastName:        "Rao",
		DOB:             "2012-06-01",
		Category:        "General",
		ClassName:       "5th",
		RouteName:       "R1",
	}
}

func TestStudentServiceCreateSeedsAcademicMonths(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	repo := &mockStudentRepo{}
	months := &mockMonthSeeder{}
	svc := NewStudentService(tx, repo, months, nil, nil, nil, zap.NewNop())

	mock.ExpectBegin()
	mock.ExpectCommit()

	student, err := svc.Create(context.Background(), validStudentRequest())
	require.NoError(t, err)
	assert.Equal(t, "ADM-001", student.AdmissionNumber)
	require.NotNil(t, student.DOB)
	assert.Equal(t, "2012-06-01", student.DOB.Format("2006-01-02"))
	assert.Equal(t, "R1", student.Route())
	assert.Equal(t, []string{"Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec", "Jan", "Feb", "Mar"}, months.seeded["ADM-001"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentServiceCreateDuplicate(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	repo := &mockStudentRepo{students: map[string]*models.Student{"adm-001": {AdmissionNumber: "adm-001"}}}
	svc := NewStudentService(tx, repo, &mockMonthSeeder{}, nil, nil, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), validStudentRequest())
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, appErrors.FromError(err).Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentServiceCreateRollsBackWhenSeedingFails(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	svc := NewStudentService(tx, &mockStudentRepo{}, &mockMonthSeeder{seedErr: errors.New("boom")}, nil, nil, nil, zap.NewNop())

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), validStudentRequest())
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, appErrors.FromError(err).Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentServiceCreateValidation(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	svc := NewStudentService(tx, &mockStudentRepo{}, &mockMonthSeeder{}, nil, nil, nil, zap.NewNop())

	req := validStudentRequest()
	req.FirstName = "  "
	req.DOB = "01/06/2012"
	_, err := svc.Create(context.Background(), req)
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	details := appErr.Details.(map[string]string)
	assert.Contains(t, details, "firstName")
	assert.Contains(t, details, "dob")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentServiceGetByAdmission(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]*models.Student{"ADM-001": {AdmissionNumber: "ADM-001", FirstName: "Asha"}}}
	months := &mockMonthSeeder{seeded: map[string][]string{"ADM-001": {"Jan", "Feb"}}}
	svc := NewStudentService(nil, repo, months, nil, nil, nil, zap.NewNop())

	detail, err := svc.GetByAdmission(context.Background(), "ADM-001")
	require.NoError(t, err)
	assert.Equal(t, "Asha", detail.Student.FirstName)
	assert.Equal(t, []string{"Jan", "Feb"}, detail.Months)

	_, err = svc.GetByAdmission(context.Background(), "missing")
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
}

func TestStudentServiceListDefaultsPagination(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]*models.Student{"A": {AdmissionNumber: "A"}}, listTotal: 1}
	svc := NewStudentService(nil, repo, &mockMonthSeeder{}, nil, nil, nil, zap.NewNop())

	students, pagination, err := svc.List(context.Background(), models.StudentFilter{Keyword: "  asha ", PageSize: 500})
	require.NoError(t, err)
	assert.Len(t, students, 1)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 1, pagination.TotalCount)
	assert.Equal(t, "asha", repo.lastFilter.Keyword)
}

func TestStudentServiceUploadPhotoResizes(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	repo := &mockStudentRepo{students: map[string]*models.Student{"ADM/7": {AdmissionNumber: "ADM/7"}}}
	cache := newMemoryCacheRepo()
	require.NoError(t, cache.Set(context.Background(), PendingCacheKey("ADM/7"), dto.PendingFeesResult{}, time.Minute))
	svc := NewStudentService(nil, repo, &mockMonthSeeder{}, store, NewCacheService(cache, nil, time.Minute, nil, true), nil, zap.NewNop())

	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, image.NewRGBA(image.Rect(0, 0, 1200, 900))))

	student, err := svc.UploadPhoto(context.Background(), "ADM/7", buf)
	require.NoError(t, err)
	require.NotNil(t, student.Photo)
	assert.Equal(t, "/uploads/students/ADM_7.jpg", *student.Photo)
	assert.Equal(t, *student.Photo, repo.photos["ADM/7"])
	assert.Contains(t, cache.deletes, PendingCacheKey("ADM/7"))
	assert.NotContains(t, cache.values, PendingCacheKey("ADM/7"))

	f, err := os.Open(filepath.Join(dir, "students", "ADM_7.jpg"))
	require.NoError(t, err)
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 600, cfg.Width)
	assert.Equal(t, 450, cfg.Height)
}

func TestStudentServiceUploadPhotoRejectsGarbage(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	repo := &mockStudentRepo{students: map[string]*models.Student{"ADM-1": {AdmissionNumber: "ADM-1"}}}
	svc := NewStudentService(nil, repo, &mockMonthSeeder{}, store, nil, nil, zap.NewNop())

	_, err = svc.UploadPhoto(context.Background(), "ADM-1", strings.NewReader("not an image"))
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)
	assert.Empty(t, repo.photos)
}
