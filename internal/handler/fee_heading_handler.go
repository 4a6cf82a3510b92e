package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-fees-api/internal/dto"
	"github.com/noah-isme/school-fees-api/internal/models"
	"github.com/noah-isme/school-fees-api/pkg/response"
)

type feeHeadingService interface {
	Names(ctx context.Context) ([]string, error)
	List(ctx context.Context) ([]models.FeeHeading, error)
	Create(ctx context.Context, req dto.FeeHeadingRequest) (*models.FeeHeading, error)
	Update(ctx context.Context, id int64, req dto.FeeHeadingRequest) (*models.FeeHeading, error)
	Delete(ctx context.Context, id int64) error
}

// FeeHeadingHandler manages fee headings.
type FeeHeadingHandler struct {
	service feeHeadingService
}

// NewFeeHeadingHandler constructs a FeeHeadingHandler.
func NewFeeHeadingHandler(service feeHeadingService) *FeeHeadingHandler {
	return &FeeHeadingHandler{service: service}
}

// Names godoc
// @Summary Distinct fee heading names
// @Tags Fee Headings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope{data=[]string}
// @Router /fees [get]
func (h *FeeHeadingHandler) Names(c *gin.Context) {
	names, err := h.service.Names(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, names, nil)
}

// List godoc
// @Summary List fee headings
// @Tags Fee Headings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope{data=[]models.FeeHeading}
// @Router /fees/headings [get]
func (h *FeeHeadingHandler) List(c *gin.Context) {
	headings, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, headings, nil)
}

// Create godoc
// @Summary Create a fee heading
// @Tags Fee Headings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.FeeHeadingRequest true "Fee heading"
// @Success 201 {object} response.Envelope{data=models.FeeHeading}
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /fees/headings [post]
func (h *FeeHeadingHandler) Create(c *gin.Context) {
	var req dto.FeeHeadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid fee heading payload"))
		return
	}
	heading, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, heading)
}

// Update godoc
// @Summary Update a fee heading
// @Tags Fee Headings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Heading ID"
// @Param payload body dto.FeeHeadingRequest true "Fee heading"
// @Success 200 {object} response.Envelope{data=models.FeeHeading}
// @Failure 404 {object} response.Envelope
// @Router /fees/headings/{id} [put]
func (h *FeeHeadingHandler) Update(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.FeeHeadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid fee heading payload"))
		return
	}
	heading, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, heading, nil)
}

// Delete godoc
// @Summary Delete a fee heading
// @Tags Fee Headings
// @Security BearerAuth
// @Param id path int true "Heading ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /fees/headings/{id} [delete]
func (h *FeeHeadingHandler) Delete(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
