package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-fees-api/internal/dto"
	"github.com/noah-isme/school-fees-api/internal/middleware"
	"github.com/noah-isme/school-fees-api/pkg/response"
)

type feeService interface {
	Apply(ctx context.Context, req dto.ApplyFeesRequest) (*dto.ApplyFeesResult, error)
	Pending(ctx context.Context, admissionNo string) (*dto.PendingFeesResult, bool, error)
}

// FeeHandler exposes fee application and pending-fee lookups.
type FeeHandler struct {
	service feeService
}

// NewFeeHandler constructs a FeeHandler.
func NewFeeHandler(service feeService) *FeeHandler {
	return &FeeHandler{service: service}
}

// Apply godoc
// @Summary Apply fees for selected months
// @Description Writes one ledger row per not-yet-applied month and clears those months from the student's pending set.
// @Tags Fees
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.ApplyFeesRequest true "Fee application"
// @Success 200 {object} response.Envelope{data=dto.ApplyFeesResult}
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /fees/apply [post]
func (h *FeeHandler) Apply(c *gin.Context) {
	var req dto.ApplyFeesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid fee application"))
		return
	}

	result, err := h.service.Apply(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Pending godoc
// @Summary Pending fees for a student
// @Tags Fees
// @Produce json
// @Security BearerAuth
// @Param admissionNo query string true "Admission number"
// @Success 200 {object} response.Envelope{data=dto.PendingFeesResult}
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /fees/pending [get]
func (h *FeeHandler) Pending(c *gin.Context) {
	result, hit, err := h.service.Pending(c.Request.Context(), c.Query("admissionNo"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, result, nil, middleware.ExtractMeta(c))
}
