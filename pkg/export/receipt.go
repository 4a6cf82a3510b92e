package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Receipt is the content of a printed fee receipt.
type Receipt struct {
	SchoolName      string
	ReceiptNo       string
	Date            time.Time
	AdmissionNumber string
	StudentName     string
	ClassName       string
	Category        string
	Route           string
	Months          string
	Lines           []ReceiptLine
	Fees            float64
	LateFee         float64
	Discount        float64
	Total           float64
	Received        float64
	Balance         float64
}

// ReceiptLine is one fee heading on a receipt.
type ReceiptLine struct {
	Label  string
	Amount float64
}

// RenderReceipt produces a single page A5 PDF receipt.
func RenderReceipt(r Receipt) ([]byte, error) {
	if r.ReceiptNo == "" {
		return nil, fmt.Errorf("receipt number is required")
	}
	pdf := gofpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, tr(r.SchoolName), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, "FEE RECEIPT", "", 1, "C", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Arial", "", 9)
	info := [][2]string{
		{"Receipt No", r.ReceiptNo},
		{"Date", r.Date.Format("02 Jan 2006")},
		{"Admission No", r.AdmissionNumber},
		{"Student", r.StudentName},
		{"Class", r.ClassName},
		{"Category", r.Category},
		{"Months", r.Months},
	}
	if r.Route != "" {
		info = append(info, [2]string{"Route", r.Route})
	}
	for _, kv := range info {
		pdf.CellFormat(35, 6, kv[0], "", 0, "", false, 0, "")
		pdf.CellFormat(0, 6, tr(": "+kv[1]), "", 1, "", false, 0, "")
	}
	pdf.Ln(3)

	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(90, 7, "Particulars", "1", 0, "", false, 0, "")
	pdf.CellFormat(38, 7, "Amount", "1", 1, "R", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	for _, line := range r.Lines {
		pdf.CellFormat(90, 7, tr(line.Label), "1", 0, "", false, 0, "")
		pdf.CellFormat(38, 7, formatAmount(line.Amount), "1", 1, "R", false, 0, "")
	}

	totals := [][2]interface{}{
		{"Fees", r.Fees},
		{"Late Fee", r.LateFee},
		{"Discount", r.Discount},
		{"Total", r.Total},
		{"Received", r.Received},
		{"Balance", r.Balance},
	}
	pdf.SetFont("Arial", "B", 9)
	for _, kv := range totals {
		pdf.CellFormat(90, 7, kv[0].(string), "1", 0, "R", false, 0, "")
		pdf.CellFormat(38, 7, formatAmount(kv[1].(float64)), "1", 1, "R", false, 0, "")
	}

	pdf.Ln(10)
	pdf.SetFont("Arial", "I", 8)
	pdf.CellFormat(0, 5, "This is a computer generated receipt.", "", 1, "C", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	return buf.Bytes(), nil
}

func formatAmount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
