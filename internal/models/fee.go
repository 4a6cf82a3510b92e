package models

import (
	"time"

	"github.com/lib/pq"
)

// TransportFeeHeading labels the synthetic transport line on breakdowns and pending reports.
const TransportFeeHeading = "Transport Fee"

// FeeHeading is a named category of charge.
type FeeHeading struct {
	ID          int64          `db:"id" json:"id"`
	FeesHeading string         `db:"fees_heading" json:"feesHeading"`
	GroupName   string         `db:"group_name" json:"groupName"`
	Frequency   string         `db:"frequency" json:"frequency"`
	AccountName string         `db:"account_name" json:"accountName"`
	Months      pq.StringArray `db:"months" json:"months"`
	CreatedAt   time.Time      `db:"created_at" json:"createdAt"`
}

// FeePlan is the amount owed for a heading by a class/category combination.
type FeePlan struct {
	ID          int64     `db:"id" json:"id"`
	FeesHeading string    `db:"fees_heading" json:"feesHeading"`
	Value       float64   `db:"value" json:"value"`
	ClassName   string    `db:"class_name" json:"className"`
	Category    string    `db:"category" json:"category"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// FeesRegisterEntry is one append-only ledger row.
type FeesRegisterEntry struct {
	ID              int64     `db:"id" json:"id"`
	Date            time.Time `db:"date" json:"date"`
	RecNo           string    `db:"rec_no" json:"recNo"`
	AdmissionNumber string    `db:"admission_number" json:"admissionNumber"`
	RollNo          string    `db:"roll_no" json:"rollNo"`
	StudentName     string    `db:"student_name" json:"studentName"`
	ClassName       string    `db:"class_name" json:"className"`
	Category        string    `db:"category" json:"category"`
	Route           string    `db:"route" json:"route"`
	Months          string    `db:"months" json:"months"`
	Fees            float64   `db:"fees" json:"fees"`
	LateFee         float64   `db:"late_fee" json:"lateFee"`
	LedgerAmt       float64   `db:"ledger_amt" json:"ledgerAmt"`
	Discount        float64   `db:"discount" json:"discount"`
	Total           float64   `db:"total" json:"total"`
	RecdAmt         float64   `db:"recd_amt" json:"recdAmt"`
	Balance         float64   `db:"balance" json:"balance"`
	FeesHeading     string    `db:"fees_heading" json:"feesHeading"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
}

// FeesRegisterItem is the (month, heading) portion covered by a ledger row.
type FeesRegisterItem struct {
	ID              int64   `db:"id" json:"id"`
	RegisterID      int64   `db:"register_id" json:"registerId"`
	AdmissionNumber string  `db:"admission_number" json:"admissionNumber"`
	Month           string  `db:"month" json:"month"`
	FeesHeading     string  `db:"fees_heading" json:"feesHeading"`
	Amount          float64 `db:"amount" json:"amount"`
}

// HeadingPaid is the received total for one heading.
type HeadingPaid struct {
	FeesHeading string  `db:"fees_heading"`
	Paid        float64 `db:"paid"`
}

// RegisterFilter narrows ledger listings.
type RegisterFilter struct {
	AdmissionNumber string
	Page            int
	PageSize        int
}
