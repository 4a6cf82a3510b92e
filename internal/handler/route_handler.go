package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-fees-api/internal/dto"
	"github.com/noah-isme/school-fees-api/internal/models"
	"github.com/noah-isme/school-fees-api/pkg/response"
)

type routeService interface {
	ListRoutes(ctx context.Context) ([]models.Route, error)
	UpsertRoute(ctx context.Context, req dto.UpsertRouteRequest) (*models.Route, error)
	ListPlans(ctx context.Context) ([]models.RoutePlan, error)
	UpsertPlan(ctx context.Context, req dto.UpsertRoutePlanRequest) (*models.RoutePlan, error)
}

// RouteHandler manages transport routes.
type RouteHandler struct {
	service routeService
}

// NewRouteHandler constructs a RouteHandler.
func NewRouteHandler(service routeService) *RouteHandler {
	return &RouteHandler{service: service}
}

// ListRoutes godoc
// @Summary List transport routes
// @Tags Routes
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope{data=[]models.Route}
// @Router /routes [get]
func (h *RouteHandler) ListRoutes(c *gin.Context) {
	routes, err := h.service.ListRoutes(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, routes, nil)
}

// UpsertRoute godoc
// @Summary Create or update a route
// @Tags Routes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.UpsertRouteRequest true "Route"
// @Success 200 {object} response.Envelope{data=models.Route}
// @Failure 400 {object} response.Envelope
// @Router /routes [post]
func (h *RouteHandler) UpsertRoute(c *gin.Context) {
	var req dto.UpsertRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid route payload"))
		return
	}
	route, err := h.service.UpsertRoute(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, route, nil)
}

// ListPlans godoc
// @Summary List route plans
// @Tags Routes
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope{data=[]models.RoutePlan}
// @Router /routes/plans [get]
func (h *RouteHandler) ListPlans(c *gin.Context) {
	plans, err := h.service.ListPlans(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plans, nil)
}

// UpsertPlan godoc
// @Summary Set a route price for a class and category
// @Tags Routes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.UpsertRoutePlanRequest true "Route plan"
// @Success 200 {object} response.Envelope{data=models.RoutePlan}
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /routes/plans [post]
func (h *RouteHandler) UpsertPlan(c *gin.Context) {
	var req dto.UpsertRoutePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid route plan payload"))
		return
	}
	plan, err := h.service.UpsertPlan(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan, nil)
}
