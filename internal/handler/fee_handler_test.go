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
	"github.com/noah-isme/school-fees-api/internal/middleware"
	"github.com/noah-isme/school-fees-api/internal/models"
	appErrors "github.com/noah-isme/school-fees-api/pkg/errors"
)

type responseEnvelope struct {
	Success bool                   `json:"success"`
	Data    json.RawMessage        `json:"data"`
	Error   *appErrors.Error       `json:"error"`
	Meta    map[string]interface{} `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var env responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

type fakeFeeSrv struct {
	applyResp  *dto.ApplyFeesResult
	applyErr   error
	lastApply  dto.ApplyFeesRequest
	pending    *dto.PendingFeesResult
	pendingHit bool
	pendingErr error
	lastAdm    string
}

func (f *fakeFeeSrv) Apply(_ context.Context, req dto.ApplyFeesRequest) (*dto.ApplyFeesResult, error) {
	f.lastApply = req
	return f.applyResp, f.applyErr
}

func (f *fakeFeeSrv) Pending(_ context.Context, admissionNo string) (*dto.PendingFeesResult, bool, error) {
	f.lastAdm = admissionNo
	return f.pending, f.pendingHit, f.pendingErr
}

func TestFeeHandlerApplySuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeFeeSrv{applyResp: &dto.ApplyFeesResult{
		AdmissionNo:   "S1",
		AppliedMonths: []string{"Jan", "Feb"},
		SkippedMonths: []string{},
		Totals:        dto.FeeTotals{Original: 1000, Final: 1000},
	}}
	handler := NewFeeHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	body := `{"admissionNo":"S1","className":"10th","category":"General","selectedMonths":["Jan","Feb"]}`
	c.Request = httptest.NewRequest(http.MethodPost, "/fees/apply", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Apply(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Jan", "Feb"}, srv.lastApply.SelectedMonths)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
	var result dto.ApplyFeesResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 1000.0, result.Totals.Final)
}

func TestFeeHandlerApplyConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	conflict := appErrors.WithDetails(appErrors.Clone(appErrors.ErrConflict, "fees already applied for all selected months"),
		map[string]interface{}{"alreadyApplied": []string{"Jan"}})
	handler := NewFeeHandler(&fakeFeeSrv{applyErr: conflict})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	body := `{"admissionNo":"S1","className":"10th","category":"General","selectedMonths":["Jan"]}`
	c.Request = httptest.NewRequest(http.MethodPost, "/fees/apply", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Apply(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrConflict.Code, env.Error.Code)
}

func TestFeeHandlerApplyRejectsMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeFeeSrv{}
	handler := NewFeeHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/fees/apply", strings.NewReader(`{"selectedMonths":"Jan"`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Apply(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, srv.lastApply.AdmissionNo)
}

func TestFeeHandlerPendingSetsCacheMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeFeeSrv{
		pending: &dto.PendingFeesResult{
			Student:         models.Student{AdmissionNumber: "S1"},
			RemainingMonths: []string{"Mar"},
		},
		pendingHit: true,
	}
	handler := NewFeeHandler(srv)

	router := gin.New()
	router.Use(middleware.WithResponseMeta())
	router.GET("/fees/pending", handler.Pending)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fees/pending?admissionNo=S1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "S1", srv.lastAdm)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, true, env.Meta["cacheHit"])
	assert.Contains(t, env.Meta, "processingTimeMs")
	var result dto.PendingFeesResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, []string{"Mar"}, result.RemainingMonths)
}

func TestFeeHandlerPendingNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewFeeHandler(&fakeFeeSrv{pendingErr: appErrors.Clone(appErrors.ErrNotFound, "student not found")})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/fees/pending?admissionNo=X", nil)

	handler.Pending(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
