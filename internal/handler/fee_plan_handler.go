package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-fees-api/internal/dto"
	"github.com/noah-isme/school-fees-api/internal/models"
	"github.com/noah-isme/school-fees-api/pkg/response"
)

type feePlanService interface {
	List(ctx context.Context) ([]models.FeePlan, error)
	Create(ctx context.Context, req dto.CreateFeePlanRequest) (*dto.CreateFeePlanResult, error)
	Update(ctx context.Context, id int64, req dto.UpdateFeePlanRequest) (*models.FeePlan, error)
	Delete(ctx context.Context, id int64) error
}

// FeePlanHandler manages fee plans.
type FeePlanHandler struct {
	service feePlanService
}

// NewFeePlanHandler constructs a FeePlanHandler.
func NewFeePlanHandler(service feePlanService) *FeePlanHandler {
	return &FeePlanHandler{service: service}
}

// List godoc
// @Summary List fee plans
// @Tags Fee Plans
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope{data=[]models.FeePlan}
// @Router /fees/plans [get]
func (h *FeePlanHandler) List(c *gin.Context) {
	plans, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plans, nil)
}

// Create godoc
// @Summary Create fee plans for every class and category
// @Tags Fee Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateFeePlanRequest true "Fee plan"
// @Success 201 {object} response.Envelope{data=dto.CreateFeePlanResult}
// @Failure 400 {object} response.Envelope
// @Router /fees/plan [post]
func (h *FeePlanHandler) Create(c *gin.Context) {
	var req dto.CreateFeePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid fee plan payload"))
		return
	}
	result, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Update godoc
// @Summary Update a fee plan
// @Tags Fee Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Plan ID"
// @Param payload body dto.UpdateFeePlanRequest true "Fee plan"
// @Success 200 {object} response.Envelope{data=models.FeePlan}
// @Failure 404 {object} response.Envelope
// @Router /fees/plans/{id} [put]
func (h *FeePlanHandler) Update(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateFeePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid fee plan payload"))
		return
	}
	plan, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan, nil)
}

// Delete godoc
// @Summary Delete a fee plan
// @Tags Fee Plans
// @Security BearerAuth
// @Param id path int true "Plan ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /fees/plans/{id} [delete]
func (h *FeePlanHandler) Delete(c *gin.Context) {
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
