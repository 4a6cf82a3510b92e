package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-fees-api/internal/dto"
	"github.com/noah-isme/school-fees-api/internal/models"
	"github.com/noah-isme/school-fees-api/internal/service"
	"github.com/noah-isme/school-fees-api/pkg/response"
)

type registerService interface {
	List(ctx context.Context, filter models.RegisterFilter) ([]models.FeesRegisterEntry, *models.Pagination, error)
	Record(ctx context.Context, req dto.RecordFeeRequest) (*models.FeesRegisterEntry, error)
	Export(ctx context.Context, format, admissionNo string) (*service.ExportFile, error)
	Receipt(ctx context.Context, recNo string) (*service.ExportFile, error)
}

// RegisterHandler serves the fees register, exports and receipts.
type RegisterHandler struct {
	service registerService
}

// NewRegisterHandler constructs a RegisterHandler.
func NewRegisterHandler(service registerService) *RegisterHandler {
	return &RegisterHandler{service: service}
}

// List godoc
// @Summary List fees register entries
// @Tags Register
// @Produce json
// @Security BearerAuth
// @Param admissionNo query string false "Admission number"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope{data=[]models.FeesRegisterEntry}
// @Router /fees/register [get]
func (h *RegisterHandler) List(c *gin.Context) {
	page, pageSize := pageParams(c)
	filter := models.RegisterFilter{
		AdmissionNumber: strings.TrimSpace(c.Query("admissionNo")),
		Page:            page,
		PageSize:        pageSize,
	}
	entries, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}

// Record godoc
// @Summary Record a manual fee payment
// @Tags Register
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.RecordFeeRequest true "Payment"
// @Success 201 {object} response.Envelope{data=models.FeesRegisterEntry}
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /fees/register [post]
func (h *RegisterHandler) Record(c *gin.Context) {
	var req dto.RecordFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid register payload"))
		return
	}
	entry, err := h.service.Record(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// Export godoc
// @Summary Download the fees register
// @Tags Register
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv or pdf" default(csv)
// @Param admissionNo query string false "Admission number"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /fees/register/export [get]
func (h *RegisterHandler) Export(c *gin.Context) {
	file, err := h.service.Export(c.Request.Context(), c.Query("format"), strings.TrimSpace(c.Query("admissionNo")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Data)
}

// Receipt godoc
// @Summary Download a fee receipt
// @Tags Register
// @Produce application/pdf
// @Security BearerAuth
// @Param recNo path string true "Receipt number"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /fees/receipts/{recNo} [get]
func (h *RegisterHandler) Receipt(c *gin.Context) {
	file, err := h.service.Receipt(c.Request.Context(), c.Param("recNo"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Data)
}
