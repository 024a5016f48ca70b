package export

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/go-pdf/fpdf"

	"lendtrack/domain"
)

const (
	pageWidth    = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 20.0
	contentWidth = pageWidth - marginLeft - marginRight
	rowHeight    = 6.0
)

var columnWidths = []float64{20, 40, 40, 40, 40}

type pdfReport struct {
	pdf      *fpdf.Fpdf
	schedule domain.Schedule
}

// RenderPDF renders schedule as an A4 report with the loan terms, the
// totals and the full payment table.
func RenderPDF(schedule domain.Schedule) ([]byte, error) {
	report := &pdfReport{
		pdf:      fpdf.New("P", "mm", "A4", ""),
		schedule: schedule,
	}

	report.pdf.SetMargins(marginLeft, marginTop, marginRight)
	report.pdf.SetAutoPageBreak(true, marginBottom)
	report.pdf.SetFooterFunc(report.footer)

	report.pdf.AddPage()
	report.addTitle()
	report.addSummary()
	report.addTable()

	var buf bytes.Buffer
	if err := report.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *pdfReport) addTitle() {
	r.pdf.SetFont("Arial", "B", 20)
	r.pdf.SetTextColor(0, 51, 102)
	r.pdf.CellFormat(contentWidth, 12, "Amortization Schedule", "", 1, "C", false, 0, "")
	r.pdf.Ln(4)
}

func (r *pdfReport) addSummary() {
	terms := r.schedule.Terms
	rows := [][2]string{
		{"Principal", Amount(terms.Principal)},
		{"Annual rate", strconv.FormatFloat(terms.AnnualRatePercent, 'f', -1, 64) + "%"},
		{"Term", strconv.Itoa(terms.TermMonths) + " months"},
		{"Monthly payment", Amount(r.schedule.Payment)},
		{"Total paid", Amount(r.schedule.TotalPaid)},
		{"Total interest", Amount(r.schedule.TotalInterest)},
	}

	r.pdf.SetFillColor(245, 247, 250)
	r.pdf.SetDrawColor(200, 200, 200)
	r.pdf.SetTextColor(50, 50, 50)
	for _, row := range rows {
		r.pdf.SetFont("Arial", "B", 11)
		r.pdf.CellFormat(contentWidth/2, 7, row[0], "1", 0, "L", true, 0, "")
		r.pdf.SetFont("Arial", "", 11)
		r.pdf.CellFormat(contentWidth/2, 7, row[1], "1", 1, "R", false, 0, "")
	}
	r.pdf.Ln(6)
}

func (r *pdfReport) addTable() {
	r.tableHeader()

	r.pdf.SetFont("Arial", "", 9)
	r.pdf.SetTextColor(50, 50, 50)
	_, pageHeight := r.pdf.GetPageSize()

	for i, e := range r.schedule.Entries {
		if r.pdf.GetY()+rowHeight > pageHeight-marginBottom {
			r.pdf.AddPage()
			r.tableHeader()
			r.pdf.SetFont("Arial", "", 9)
			r.pdf.SetTextColor(50, 50, 50)
		}

		fill := i%2 == 1
		cells := []string{
			strconv.Itoa(e.Period),
			Amount(e.PaymentAmount),
			Amount(e.PrincipalComponent),
			Amount(e.InterestComponent),
			Amount(e.RemainingBalance),
		}
		for j, cell := range cells {
			align := "R"
			if j == 0 {
				align = "C"
			}
			r.pdf.CellFormat(columnWidths[j], rowHeight, cell, "LR", 0, align, fill, 0, "")
		}
		r.pdf.Ln(-1)
	}
	r.pdf.CellFormat(contentWidth, 0, "", "T", 1, "", false, 0, "")
}

func (r *pdfReport) tableHeader() {
	r.pdf.SetFont("Arial", "B", 10)
	r.pdf.SetFillColor(0, 51, 102)
	r.pdf.SetTextColor(255, 255, 255)
	for i, title := range header {
		r.pdf.CellFormat(columnWidths[i], 7, title, "1", 0, "C", true, 0, "")
	}
	r.pdf.Ln(-1)
	r.pdf.SetFillColor(245, 247, 250)
}

func (r *pdfReport) footer() {
	r.pdf.SetY(-15)
	r.pdf.SetFont("Arial", "I", 8)
	r.pdf.SetTextColor(128, 128, 128)
	r.pdf.CellFormat(contentWidth, 10, fmt.Sprintf("Page %d", r.pdf.PageNo()), "", 0, "C", false, 0, "")
}
