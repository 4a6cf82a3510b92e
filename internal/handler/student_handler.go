package handler

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-fees-api/internal/dto"
	"github.com/noah-isme/school-fees-api/internal/models"
	appErrors "github.com/noah-isme/school-fees-api/pkg/errors"
	"github.com/noah-isme/school-fees-api/pkg/response"
)

type studentService interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error)
	GetByAdmission(ctx context.Context, admissionNo string) (*dto.StudentDetail, error)
	Create(ctx context.Context, req dto.CreateStudentRequest) (*models.Student, error)
	UploadPhoto(ctx context.Context, admissionNo string, r io.Reader) (*models.Student, error)
}

// StudentHandler exposes student endpoints.
type StudentHandler struct {
	students       studentService
	maxPhotoBytes  int64
	allowedFormats map[string]struct{}
}

// NewStudentHandler constructs StudentHandler. maxPhotoBytes <= 0 disables the size check.
func NewStudentHandler(students studentService, maxPhotoBytes int64) *StudentHandler {
	return &StudentHandler{
		students:      students,
		maxPhotoBytes: maxPhotoBytes,
		allowedFormats: map[string]struct{}{
			"image/jpeg": {},
			"image/png":  {},
		},
	}
}

// List godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param class query string false "Filter by class"
// @Param section query string false "Filter by section"
// @Param keyword query string false "Search by name or admission number"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope{data=[]models.Student}
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	page, pageSize := pageParams(c)
	filter := models.StudentFilter{
		ClassName: strings.TrimSpace(c.Query("class")),
		Section:   strings.TrimSpace(c.Query("section")),
		Keyword:   strings.TrimSpace(c.Query("keyword")),
		Page:      page,
		PageSize:  pageSize,
	}

	students, pagination, err := h.students.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// Get godoc
// @Summary Get a student with pending months
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param admissionNo path string true "Admission number"
// @Success 200 {object} response.Envelope{data=dto.StudentDetail}
// @Failure 404 {object} response.Envelope
// @Router /students/student/{admissionNo} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	detail, err := h.students.GetByAdmission(c.Request.Context(), c.Param("admissionNo"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Create godoc
// @Summary Admit a student
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateStudentRequest true "Student"
// @Success 201 {object} response.Envelope{data=models.Student}
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	var req dto.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid student payload"))
		return
	}
	student, err := h.students.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// UploadPhoto godoc
// @Summary Upload a student photo
// @Tags Students
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param admissionNo path string true "Admission number"
// @Param photo formData file true "JPEG or PNG image"
// @Success 200 {object} response.Envelope{data=models.Student}
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Router /students/{admissionNo}/photo [post]
func (h *StudentHandler) UploadPhoto(c *gin.Context) {
	fileHeader, err := c.FormFile("photo")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "photo is required"))
		return
	}
	if h.maxPhotoBytes > 0 && fileHeader.Size > h.maxPhotoBytes {
		response.Error(c, appErrors.ErrPayloadTooLarge)
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open photo"))
		return
	}
	defer src.Close()

	content, err := io.ReadAll(src)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to buffer photo"))
		return
	}
	if len(content) == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "empty file"))
		return
	}
	sniff := content
	if len(sniff) > 512 {
		sniff = sniff[:512]
	}
	if _, ok := h.allowedFormats[http.DetectContentType(sniff)]; !ok {
		response.Error(c, appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrValidation, "unsupported photo format"),
			map[string]string{"photo": "photo must be a JPEG or PNG image"},
		))
		return
	}

	student, err := h.students.UploadPhoto(c.Request.Context(), c.Param("admissionNo"), bytes.NewReader(content))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}
