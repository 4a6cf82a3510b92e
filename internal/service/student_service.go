package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/school-fees-api/internal/dto"
	"github.com/noah-isme/school-fees-api/internal/models"
	appErrors "github.com/noah-isme/school-fees-api/pkg/errors"
	"github.com/noah-isme/school-fees-api/pkg/storage"
	"github.com/noah-isme/school-fees-api/pkg/validation"
)

const (
	photoMaxWidth  = 600
	photoURLPrefix = "/uploads/"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByAdmission(ctx context.Context, admissionNumber string) (*models.Student, error)
	ExistsByAdmission(ctx context.Context, admissionNumber string) (bool, error)
	CreateTx(ctx context.Context, tx *sqlx.Tx, student *models.Student) error
	UpdatePhoto(ctx context.Context, admissionNumber, photo string) error
}

type studentMonthSeeder interface {
	ListMonths(ctx context.Context, admissionNumber string) ([]string, error)
	SeedTx(ctx context.Context, tx *sqlx.Tx, admissionNumber string, months []string) error
}

type photoStore interface {
	SaveImage(name string, r io.Reader, opts storage.ImageOptions) (string, error)
}

// StudentService handles admissions and student lookups.
type StudentService struct {
	tx        txProvider
	repo      studentRepository
	months    studentMonthSeeder
	photos    photoStore
	cache     *CacheService
	validator *validation.Validator
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(tx txProvider, repo studentRepository, months studentMonthSeeder, photos photoStore, cache *CacheService, validator *validation.Validator, logger *zap.Logger) *StudentService {
	if validator == nil {
		validator = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{tx: tx, repo: repo, months: months, photos: photos, cache: cache, validator: validator, logger: logger}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	filter.Keyword = strings.TrimSpace(filter.Keyword)
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	if students == nil {
		students = []models.Student{}
	}
	return students, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// GetByAdmission returns the student with the months still owed.
func (s *StudentService) GetByAdmission(ctx context.Context, admissionNo string) (*dto.StudentDetail, error) {
	student, err := s.find(ctx, admissionNo)
	if err != nil {
		return nil, err
	}
	months, err := s.months.ListMonths(ctx, student.AdmissionNumber)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pending months")
	}
	return &dto.StudentDetail{Student: *student, Months: months}, nil
}

// Create admits a student and seeds the academic months in one transaction.
func (s *StudentService) Create(ctx context.Context, req dto.CreateStudentRequest) (student *models.Student, err error) {
	req = normalizeStudentRequest(req)
	if err := s.validator.Struct(req, "invalid student payload"); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByAdmission(ctx, req.AdmissionNumber)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate admission number")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "admission number already exists")
	}

	student = studentFromRequest(req)

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.repo.CreateTx(ctx, tx, student); err != nil {
		if appErrors.IsUniqueViolation(err) {
			err = appErrors.Clone(appErrors.ErrConflict, "admission number already exists")
			return nil, err
		}
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
		return nil, err
	}
	if err = s.months.SeedTx(ctx, tx, student.AdmissionNumber, models.AcademicMonths); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to seed student months")
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit admission")
		return nil, err
	}

	s.logger.Info("student admitted", zap.String("admission_number", student.AdmissionNumber), zap.String("class_name", student.ClassName))
	return student, nil
}

// UploadPhoto stores a resized JPEG for the student and records its public path.
func (s *StudentService) UploadPhoto(ctx context.Context, admissionNo string, r io.Reader) (*models.Student, error) {
	if s.photos == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "photo storage not configured")
	}
	student, err := s.find(ctx, admissionNo)
	if err != nil {
		return nil, err
	}

	name := "students/" + photoFileName(student.AdmissionNumber) + ".jpg"
	stored, err := s.photos.SaveImage(name, r, storage.ImageOptions{MaxWidth: photoMaxWidth})
	if err != nil {
		if errors.Is(err, storage.ErrInvalidName) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store photo")
		}
		return nil, appErrors.WithDetails(
			appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "photo must be a valid jpeg or png image"),
			map[string]string{"photo": "unsupported or corrupt image"},
		)
	}

	photo := photoURLPrefix + stored
	if err := s.repo.UpdatePhoto(ctx, student.AdmissionNumber, photo); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save photo path")
	}
	// the pending view carries the photo path
	_ = s.cache.InvalidatePending(ctx, student.AdmissionNumber)
	student.Photo = &photo
	return student, nil
}

func (s *StudentService) find(ctx context.Context, admissionNo string) (*models.Student, error) {
	admissionNo = strings.TrimSpace(admissionNo)
	if admissionNo == "" {
		return nil, appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrValidation, "admissionNo is required"),
			map[string]string{"admissionNo": "admissionNo is required"},
		)
	}
	student, err := s.repo.FindByAdmission(ctx, admissionNo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

func normalizeStudentRequest(req dto.CreateStudentRequest) dto.CreateStudentRequest {
	for _, field := range []*string{
		&req.AdmissionNumber, &req.RollNo, &req.FirstName, &req.MiddleName, &req.LastName,
		&req.DOB, &req.Gender, &req.Category, &req.ClassName, &req.Section, &req.Mobile,
		&req.Email, &req.Address, &req.City, &req.State, &req.Pincode, &req.RouteName,
	} {
		*field = strings.TrimSpace(*field)
	}
	return req
}

func studentFromRequest(req dto.CreateStudentRequest) *models.Student {
	student := &models.Student{
		AdmissionNumber: req.AdmissionNumber,
		RollNo:          req.RollNo,
		FirstName:       req.FirstName,
		MiddleName:      req.MiddleName,
		LastName:        req.LastName,
		Gender:          req.Gender,
		Category:        req.Category,
		ClassName:       req.ClassName,
		Section:         req.Section,
		Mobile:          req.Mobile,
		Email:           req.Email,
		Address:         req.Address,
		City:            req.City,
		State:           req.State,
		Pincode:         req.Pincode,
	}
	if req.DOB != "" {
		// validated as 2006-01-02 above
		dob, _ := time.Parse("2006-01-02", req.DOB)
		student.DOB = &dob
	}
	if req.RouteName != "" {
		route := req.RouteName
		student.RouteName = &route
	}
	return student
}

func photoFileName(admissionNo string) string {
	name := unsafeFileChars.ReplaceAllString(admissionNo, "_")
	if name == "" {
		return "student"
	}
	return name
}
