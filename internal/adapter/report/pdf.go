// Package report renders the daily collection summary and stores it.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf/v2"
	"github.com/shopspring/decimal"

	"finapp-backend/internal/domain/collection"
)

// PDFRenderer lays out a daily summary as an A4 table.
type PDFRenderer struct {
	Title string
	loc   *time.Location
	now   func() time.Time
}

func NewPDFRenderer(title string, loc *time.Location) *PDFRenderer {
	if loc == nil {
		loc = time.UTC
	}
	return &PDFRenderer{Title: title, loc: loc, now: time.Now}
}

func (*PDFRenderer) ContentType() string { return "application/pdf" }
func (*PDFRenderer) Ext() string         { return "pdf" }

func (r *PDFRenderer) Render(s collection.DailySummary) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetTitle(fmt.Sprintf("%s %s", r.Title, s.Date), false)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, r.Title, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(190, 6, fmt.Sprintf("Collection date: %s   Generated: %s",
		s.Date, r.now().In(r.loc).Format("02-Jan-2006 03:04 PM")), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(63, 8, fmt.Sprintf("Total: %s", rs(s.TotalAmount)), "1", 0, "C", true, 0, "")
	pdf.CellFormat(63, 8, fmt.Sprintf("Customers: %d", s.CustomerCount), "1", 0, "C", true, 0, "")
	pdf.CellFormat(64, 8, fmt.Sprintf("Payments: %d", s.PaymentCount), "1", 1, "C", true, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(200, 200, 200)
	pdf.CellFormat(20, 7, "Time", "1", 0, "C", true, 0, "")
	pdf.CellFormat(50, 7, "Customer", "1", 0, "C", true, 0, "")
	pdf.CellFormat(45, 7, "Loan", "1", 0, "C", true, 0, "")
	pdf.CellFormat(45, 7, "Transaction", "1", 0, "C", true, 0, "")
	pdf.CellFormat(30, 7, "Amount", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 9)
	if len(s.Payments) == 0 {
		pdf.CellFormat(190, 7, "No payments collected", "1", 1, "C", false, 0, "")
	}
	for _, p := range s.Payments {
		pdf.CellFormat(20, 6, p.PaidAt.In(r.loc).Format("15:04"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(50, 6, clip(p.UserName, 28), "1", 0, "L", false, 0, "")
		pdf.CellFormat(45, 6, clip(p.LoanID, 24), "1", 0, "L", false, 0, "")
		pdf.CellFormat(45, 6, clip(p.TransactionID, 24), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, rs(p.Amount), "1", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render daily report: %w", err)
	}
	return buf.Bytes(), nil
}

// Core PDF fonts have no rupee glyph.
func rs(d decimal.Decimal) string { return "Rs. " + d.StringFixed(2) }

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
