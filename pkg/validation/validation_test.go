package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/school-fees-api/pkg/errors"
)

type sample struct {
	AdmissionNo string   `json:"admissionNo" validate:"required"`
	Months      []string `json:"selectedMonths" validate:"required,min=1,unique,dive,notblank,month"`
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	v := New()

	err := v.Struct(sample{Months: []string{"Jan", "Jan"}}, "invalid payload")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, "invalid payload", appErr.Message)

	details, ok := appErr.Details.(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "admissionNo is required", details["admissionNo"])
	assert.Contains(t, details, "selectedMonths")
}

func TestStructRejectsBlankElements(t *testing.T) {
	v := New()

	err := v.Struct(sample{AdmissionNo: "A1", Months: []string{"Jan", "  "}}, "")
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	details := appErr.Details.(map[string]string)
	assert.Equal(t, "selectedMonths[1] must not be blank", details["selectedMonths[1]"])
}

func TestStructAcceptsValidPayload(t *testing.T) {
	v := New()
	assert.NoError(t, v.Struct(sample{AdmissionNo: "A1", Months: []string{"Jan", "Feb"}}, ""))
}

func TestStructRejectsUnknownMonths(t *testing.T) {
	v := New()

	err := v.Struct(sample{AdmissionNo: "A1", Months: []string{"Smarch", "jan"}}, "")
	require.Error(t, err)

	details := appErrors.FromError(err).Details.(map[string]string)
	assert.Equal(t, "selectedMonths[0] must be a month of the academic year (Apr-Mar)", details["selectedMonths[0]"])
	assert.NotContains(t, details, "selectedMonths[1]")
}
