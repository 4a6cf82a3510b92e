package dto

import "github.com/noah-isme/school-fees-api/internal/models"

// ApplyFeesRequest is the payload for applying fees to a set of months.
type ApplyFeesRequest struct {
	AdmissionNo    string   `json:"admissionNo" validate:"required,notblank"`
	ClassName      string   `json:"className" validate:"required,notblank"`
	Category       string   `json:"category" validate:"required,notblank"`
	SelectedMonths []string `json:"selectedMonths" validate:"required,min=1,unique,dive,notblank,month"`
}

// BreakdownLine is one (heading, month) charge produced by an apply.
type BreakdownLine struct {
	FeesHeading    string  `json:"feesHeading"`
	Month          string  `json:"month"`
	OriginalAmount float64 `json:"originalAmount"`
	FinalAmount    float64 `json:"finalAmount"`
}

// FeeTotals aggregates breakdown amounts.
type FeeTotals struct {
	Original float64 `json:"original"`
	Final    float64 `json:"final"`
}

// AppliedReceipt references the ledger row written for one month.
type AppliedReceipt struct {
	Month  string  `json:"month"`
	RecNo  string  `json:"recNo"`
	Amount float64 `json:"amount"`
}

// ApplyFeesResult reports the outcome of an apply.
type ApplyFeesResult struct {
	AdmissionNo   string           `json:"admissionNo"`
	AppliedMonths []string         `json:"appliedMonths"`
	SkippedMonths []string         `json:"skippedMonths"`
	Breakdown     []BreakdownLine  `json:"breakdown"`
	Totals        FeeTotals        `json:"totals"`
	RouteFee      float64          `json:"routeFee"`
	Receipts      []AppliedReceipt `json:"receipts"`
}

// PendingFeeLine is the outstanding position for one heading.
type PendingFeeLine struct {
	FeesHeading string   `json:"feesHeading"`
	Total       float64  `json:"total"`
	Paid        float64  `json:"paid"`
	Balance     float64  `json:"balance"`
	Months      string   `json:"months"`
	PaidMonths  []string `json:"paidMonths"`
}

// PendingFeesResult is the pending-fees report for one student.
type PendingFeesResult struct {
	Student         models.Student   `json:"student"`
	PendingFees     []PendingFeeLine `json:"pendingFees"`
	RemainingMonths []string         `json:"remainingMonths"`
	PaidMonths      []string         `json:"paidMonths"`
}

// CreateFeePlanRequest creates one plan row per class × category.
type CreateFeePlanRequest struct {
	FeesHeading string   `json:"feesHeading" validate:"required,notblank"`
	Value       float64  `json:"value" validate:"gt=0"`
	Classes     []string `json:"classes" validate:"required,min=1,dive,notblank"`
	Categories  []string `json:"categories" validate:"required,min=1,dive,notblank"`
}

// CreateFeePlanResult reports how many plan rows were written.
type CreateFeePlanResult struct {
	FeesHeading string `json:"feesHeading"`
	Inserted    int    `json:"inserted"`
}

// UpdateFeePlanRequest replaces a single plan row.
type UpdateFeePlanRequest struct {
	FeesHeading string  `json:"feesHeading" validate:"required,notblank"`
	Value       float64 `json:"value" validate:"gt=0"`
	ClassName   string  `json:"className" validate:"required,notblank"`
	Category    string  `json:"category" validate:"required,notblank"`
}

// FeeHeadingRequest creates or updates a fee heading.
type FeeHeadingRequest struct {
	FeesHeading string   `json:"feesHeading" validate:"required,notblank"`
	GroupName   string   `json:"groupName" validate:"required,notblank"`
	Frequency   string   `json:"frequency" validate:"required,notblank"`
	AccountName string   `json:"accountName" validate:"required,notblank"`
	Months      []string `json:"months" validate:"required,min=1,dive,notblank"`
}

// RecordFeeRequest is a manual ledger entry keyed in at the counter.
type RecordFeeRequest struct {
	AdmissionNumber string   `json:"admissionNumber" validate:"required,notblank"`
	RecNo           string   `json:"recNo" validate:"omitempty,max=64"`
	Date            string   `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Months          []string `json:"months" validate:"required,min=1,unique,dive,notblank,month"`
	FeesHeading     string   `json:"feesHeading" validate:"required,notblank"`
	Fees            float64  `json:"fees" validate:"gte=0"`
	LateFee         float64  `json:"lateFee" validate:"gte=0"`
	Discount        float64  `json:"discount" validate:"gte=0"`
	RecdAmt         float64  `json:"recdAmt" validate:"gt=0"`
}
