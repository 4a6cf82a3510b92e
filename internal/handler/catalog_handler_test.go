package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-fees-api/internal/dto"
	"github.com/noah-isme/school-fees-api/internal/models"
	appErrors "github.com/noah-isme/school-fees-api/pkg/errors"
)

type fakeFeePlanSrv struct {
	plans      []models.FeePlan
	created    dto.CreateFeePlanRequest
	updatedID  int64
	deletedID  int64
	deleteErr  error
	createResp *dto.CreateFeePlanResult
}

func (f *fakeFeePlanSrv) List(context.Context) ([]models.FeePlan, error) { return f.plans, nil }

func (f *fakeFeePlanSrv) Create(_ context.Context, req dto.CreateFeePlanRequest) (*dto.CreateFeePlanResult, error) {
	f.created = req
	return f.createResp, nil
}

func (f *fakeFeePlanSrv) Update(_ context.Context, id int64, req dto.UpdateFeePlanRequest) (*models.FeePlan, error) {
	f.updatedID = id
	return &models.FeePlan{ID: id, FeesHeading: req.FeesHeading, Value: req.Value}, nil
}

func (f *fakeFeePlanSrv) Delete(_ context.Context, id int64) error {
	f.deletedID = id
	return f.deleteErr
}

func newPlanRouter(srv *fakeFeePlanSrv) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewFeePlanHandler(srv)
	r := gin.New()
	r.GET("/fees/plans", h.List)
	r.POST("/fees/plan", h.Create)
	r.PUT("/fees/plans/:id", h.Update)
	r.DELETE("/fees/plans/:id", h.Delete)
	return r
}

func TestFeePlanHandlerCreateReturnsInsertedCount(t *testing.T) {
	srv := &fakeFeePlanSrv{createResp: &dto.CreateFeePlanResult{FeesHeading: "Tuition", Inserted: 4}}
	r := newPlanRouter(srv)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/fees/plan",
		strings.NewReader(`{"feesHeading":"Tuition","value":500,"classes":["9th","10th"],"categories":["General","OBC"]}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, []string{"9th", "10th"}, srv.created.Classes)
	env := decodeEnvelope(t, rec)
	var result dto.CreateFeePlanResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 4, result.Inserted)
}

func TestFeePlanHandlerUpdateParsesID(t *testing.T) {
	srv := &fakeFeePlanSrv{}
	r := newPlanRouter(srv)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/fees/plans/7",
		strings.NewReader(`{"feesHeading":"Tuition","value":550,"className":"10th","category":"General"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), srv.updatedID)
}

func TestFeePlanHandlerRejectsInvalidID(t *testing.T) {
	srv := &fakeFeePlanSrv{}
	r := newPlanRouter(srv)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/fees/plans/abc", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, srv.deletedID)
}

func TestFeePlanHandlerDeleteNotFound(t *testing.T) {
	srv := &fakeFeePlanSrv{deleteErr: appErrors.Clone(appErrors.ErrNotFound, "fee plan not found")}
	r := newPlanRouter(srv)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/fees/plans/3", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, int64(3), srv.deletedID)
}

type fakeHeadingSrv struct {
	names []string
}

func (f *fakeHeadingSrv) Names(context.Context) ([]string, error) { return f.names, nil }
func (f *fakeHeadingSrv) List(context.Context) ([]models.FeeHeading, error) {
	return nil, nil
}
func (f *fakeHeadingSrv) Create(_ context.Context, req dto.FeeHeadingRequest) (*models.FeeHeading, error) {
	return &models.FeeHeading{ID: 1, FeesHeading: req.FeesHeading}, nil
}
func (f *fakeHeadingSrv) Update(_ context.Context, id int64, req dto.FeeHeadingRequest) (*models.FeeHeading, error) {
	return &models.FeeHeading{ID: id, FeesHeading: req.FeesHeading}, nil
}
func (f *fakeHeadingSrv) Delete(context.Context, int64) error { return nil }

func TestFeeHeadingHandlerNames(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewFeeHeadingHandler(&fakeHeadingSrv{names: []string{"Exam", "Tuition"}})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/fees", nil)
	h.Names(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var names []string
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &names))
	assert.Equal(t, []string{"Exam", "Tuition"}, names)
}

func TestFeeHeadingHandlerDeleteNoContent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewFeeHeadingHandler(&fakeHeadingSrv{})
	r := gin.New()
	r.DELETE("/fees/headings/:id", h.Delete)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/fees/headings/2", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

type fakeRouteSrv struct {
	lastRoute dto.UpsertRouteRequest
	planErr   error
}

func (f *fakeRouteSrv) ListRoutes(context.Context) ([]models.Route, error) {
	return []models.Route{{ID: 1, RouteName: "R1"}}, nil
}
func (f *fakeRouteSrv) UpsertRoute(_ context.Context, req dto.UpsertRouteRequest) (*models.Route, error) {
	f.lastRoute = req
	return &models.Route{ID: 1, RouteName: req.RouteName, Months: req.Months}, nil
}
func (f *fakeRouteSrv) ListPlans(context.Context) ([]models.RoutePlan, error) { return nil, nil }
func (f *fakeRouteSrv) UpsertPlan(_ context.Context, req dto.UpsertRoutePlanRequest) (*models.RoutePlan, error) {
	if f.planErr != nil {
		return nil, f.planErr
	}
	return &models.RoutePlan{RouteName: req.RouteName}, nil
}

func TestRouteHandlerUpsertRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeRouteSrv{}
	h := NewRouteHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/routes", strings.NewReader(`{"routeName":"R1","months":["Jan,Feb"]}`))
	c.Request.Header.Set("Content-Type", "application/json")
	h.UpsertRoute(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "R1", srv.lastRoute.RouteName)
}

func TestRouteHandlerUpsertPlanUnknownRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewRouteHandler(&fakeRouteSrv{planErr: appErrors.Clone(appErrors.ErrNotFound, "route not found")})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/routes/plans",
		strings.NewReader(`{"className":"10th","categoryName":"General","routeName":"R9","price":100}`))
	c.Request.Header.Set("Content-Type", "application/json")
	h.UpsertPlan(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
