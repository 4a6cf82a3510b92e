package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-fees-api/internal/dto"
	"github.com/noah-isme/school-fees-api/internal/models"
	"github.com/noah-isme/school-fees-api/internal/service"
	appErrors "github.com/noah-isme/school-fees-api/pkg/errors"
)

type fakeRegisterSrv struct {
	lastFilter models.RegisterFilter
	lastRecord dto.RecordFeeRequest
	format     string
	adm        string
	exportErr  error
	receiptErr error
}

func (f *fakeRegisterSrv) List(_ context.Context, filter models.RegisterFilter) ([]models.FeesRegisterEntry, *models.Pagination, error) {
	f.lastFilter = filter
	return []models.FeesRegisterEntry{{RecNo: "R-1"}}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, nil
}

func (f *fakeRegisterSrv) Record(_ context.Context, req dto.RecordFeeRequest) (*models.FeesRegisterEntry, error) {
	f.lastRecord = req
	return &models.FeesRegisterEntry{RecNo: "R-2", AdmissionNumber: req.AdmissionNumber}, nil
}

func (f *fakeRegisterSrv) Export(_ context.Context, format, admissionNo string) (*service.ExportFile, error) {
	f.format = format
	f.adm = admissionNo
	if f.exportErr != nil {
		return nil, f.exportErr
	}
	return &service.ExportFile{Filename: "fees_register.csv", ContentType: "text/csv", Data: []byte("a,b\n")}, nil
}

func (f *fakeRegisterSrv) Receipt(_ context.Context, recNo string) (*service.ExportFile, error) {
	if f.receiptErr != nil {
		return nil, f.receiptErr
	}
	return &service.ExportFile{Filename: "receipt_" + recNo + ".pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.3")}, nil
}

func newRegisterRouter(srv *fakeRegisterSrv) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewRegisterHandler(srv)
	r := gin.New()
	r.GET("/fees/register", h.List)
	r.POST("/fees/register", h.Record)
	r.GET("/fees/register/export", h.Export)
	r.GET("/fees/receipts/:recNo", h.Receipt)
	return r
}

func TestRegisterHandlerListFilters(t *testing.T) {
	srv := &fakeRegisterSrv{}
	r := newRegisterRouter(srv)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fees/register?admissionNo=S1&page=3", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "S1", srv.lastFilter.AdmissionNumber)
	assert.Equal(t, 3, srv.lastFilter.Page)
}

func TestRegisterHandlerRecordCreated(t *testing.T) {
	srv := &fakeRegisterSrv{}
	r := newRegisterRouter(srv)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/fees/register",
		strings.NewReader(`{"admissionNumber":"S1","months":["Jan"],"feesHeading":"Tuition","fees":500,"recdAmt":500}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "S1", srv.lastRecord.AdmissionNumber)
}

func TestRegisterHandlerExportStreamsFile(t *testing.T) {
	srv := &fakeRegisterSrv{}
	r := newRegisterRouter(srv)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fees/register/export?format=csv&admissionNo=S1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "csv", srv.format)
	assert.Equal(t, "S1", srv.adm)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "fees_register.csv")
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, "a,b\n", rec.Body.String())
}

func TestRegisterHandlerExportUnsupportedFormat(t *testing.T) {
	srv := &fakeRegisterSrv{exportErr: appErrors.Clone(appErrors.ErrValidation, "unsupported export format")}
	r := newRegisterRouter(srv)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fees/register/export?format=xlsx", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterHandlerReceipt(t *testing.T) {
	r := newRegisterRouter(&fakeRegisterSrv{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fees/receipts/R-1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "receipt_R-1.pdf")
}

func TestRegisterHandlerReceiptNotFound(t *testing.T) {
	r := newRegisterRouter(&fakeRegisterSrv{receiptErr: appErrors.Clone(appErrors.ErrNotFound, "receipt not found")})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fees/receipts/R-9", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
