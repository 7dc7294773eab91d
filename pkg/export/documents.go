package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// SchoolHeader is printed at the top of every document.
type SchoolHeader struct {
	Name    string
	Motto   string
	Address string
	Phone   string
	Email   string
}

// ReportCardLine is one subject row on a terminal report.
type ReportCardLine struct {
	Subject   string
	Classwork float64
	Homework  float64
	Project   float64
	Exam      float64
	Total     float64
	Grade     string
	Remark    string
	Position  string
}

// GradingKeyRow is one band of the grading key printed under the scores.
type GradingKeyRow struct {
	Range  string
	Grade  string
	Remark string
}

// ReportCardDocument is everything printed on a terminal report.
type ReportCardDocument struct {
	School             SchoolHeader
	StudentName        string
	StudentNumber      string
	ClassName          string
	AcademicYear       string
	Term               string
	Lines              []ReportCardLine
	TotalMarks         float64
	Average            float64
	Position           string
	ClassSize          string
	DaysPresent        int
	DaysAbsent         int
	TotalDays          int
	ClassTeacherRemark string
	HeadteacherRemark  string
	NextTermBegins     string
	GradingKey         []GradingKeyRow
	GeneratedOn        string
}

// InvoiceLine is one fee item.
type InvoiceLine struct {
	Description string
	Amount      float64
}

// InvoicePayment is one receipt printed on an invoice.
type InvoicePayment struct {
	Date          string
	ReceiptNumber string
	Method        string
	Amount        float64
}

// InvoiceDocument is everything printed on a fee invoice.
type InvoiceDocument struct {
	School        SchoolHeader
	InvoiceNumber string
	IssuedOn      string
	DueOn         string
	StudentName   string
	StudentNumber string
	ClassName     string
	Term          string
	Lines         []InvoiceLine
	Payments      []InvoicePayment
	Total         float64
	Discount      float64
	Paid          float64
	Balance       float64
	Status        string
	Currency      string
}

// DocumentRenderer draws report cards and invoices with gofpdf.
type DocumentRenderer struct{}

// NewDocumentRenderer constructs a DocumentRenderer.
func NewDocumentRenderer() *DocumentRenderer {
	return &DocumentRenderer{}
}

// ReportCard renders a terminal report.
func (r *DocumentRenderer) ReportCard(doc ReportCardDocument) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(12, 12, 12)
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	schoolHeader(pdf, tr, doc.School, "TERMINAL REPORT")

	pdf.SetFont("Arial", "", 10)
	labelValue(pdf, tr, "Name", doc.StudentName, 95)
	labelValue(pdf, tr, "Student No.", doc.StudentNumber, 0)
	pdf.Ln(-1)
	labelValue(pdf, tr, "Class", doc.ClassName, 95)
	labelValue(pdf, tr, "Academic Year", doc.AcademicYear, 0)
	pdf.Ln(-1)
	labelValue(pdf, tr, "Term", doc.Term, 95)
	labelValue(pdf, tr, "Position", fmt.Sprintf("%s out of %s", dash(doc.Position), dash(doc.ClassSize)), 0)
	pdf.Ln(8)

	headers := []string{"Subject", "Class (30)", "Home (10)", "Project (10)", "Exam (50)", "Total (100)", "Grade", "Remark", "Pos."}
	widths := []float64{44, 16, 16, 18, 16, 18, 14, 30, 14}
	pdf.SetFont("Arial", "B", 8)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 8)
	for _, line := range doc.Lines {
		cells := []string{
			line.Subject,
			score(line.Classwork), score(line.Homework), score(line.Project), score(line.Exam), score(line.Total),
			dash(line.Grade), dash(line.Remark), dash(line.Position),
		}
		for i, c := range cells {
			align := "C"
			if i == 0 || i == 7 {
				align = "L"
			}
			pdf.CellFormat(widths[i], 6, tr(c), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	if len(doc.Lines) == 0 {
		pdf.CellFormat(186, 6, "No assessments recorded", "1", 1, "C", false, 0, "")
	}
	pdf.Ln(3)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(62, 7, fmt.Sprintf("Total Marks: %s", score(doc.TotalMarks)), "1", 0, "L", false, 0, "")
	pdf.CellFormat(62, 7, fmt.Sprintf("Average: %.1f", doc.Average), "1", 0, "L", false, 0, "")
	pdf.CellFormat(62, 7, fmt.Sprintf("Attendance: %d / %d", doc.DaysPresent, doc.TotalDays), "1", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(186, 6, fmt.Sprintf("Days absent: %d", doc.DaysAbsent), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	remark(pdf, tr, "Class Teacher's Remarks", doc.ClassTeacherRemark)
	remark(pdf, tr, "Headteacher's Remarks", doc.HeadteacherRemark)
	if doc.NextTermBegins != "" {
		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(186, 6, tr("Next term begins: "+doc.NextTermBegins), "", 1, "L", false, 0, "")
	}

	if len(doc.GradingKey) > 0 {
		pdf.Ln(3)
		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(186, 6, "GRADING KEY", "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 8)
		for _, row := range doc.GradingKey {
			pdf.CellFormat(30, 5, row.Range, "1", 0, "C", false, 0, "")
			pdf.CellFormat(20, 5, row.Grade, "1", 0, "C", false, 0, "")
			pdf.CellFormat(50, 5, tr(row.Remark), "1", 1, "L", false, 0, "")
		}
	}
	if doc.GeneratedOn != "" {
		pdf.Ln(3)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(186, 5, "Generated on "+doc.GeneratedOn, "", 1, "R", false, 0, "")
	}
	return output(pdf)
}

// Invoice renders a fee invoice with its payment history.
func (r *DocumentRenderer) Invoice(doc InvoiceDocument) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(12, 12, 12)
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	currency := doc.Currency
	if currency == "" {
		currency = "GHS"
	}
	money := func(v float64) string { return fmt.Sprintf("%s %.2f", currency, v) }

	schoolHeader(pdf, tr, doc.School, "FEE INVOICE")

	pdf.SetFont("Arial", "", 10)
	labelValue(pdf, tr, "Invoice No.", doc.InvoiceNumber, 95)
	labelValue(pdf, tr, "Issued", doc.IssuedOn, 0)
	pdf.Ln(-1)
	labelValue(pdf, tr, "Student", doc.StudentName, 95)
	labelValue(pdf, tr, "Student No.", doc.StudentNumber, 0)
	pdf.Ln(-1)
	labelValue(pdf, tr, "Class", doc.ClassName, 95)
	labelValue(pdf, tr, "Term", doc.Term, 0)
	pdf.Ln(-1)
	if doc.DueOn != "" {
		labelValue(pdf, tr, "Due", doc.DueOn, 95)
	}
	labelValue(pdf, tr, "Status", strings.ToUpper(doc.Status), 0)
	pdf.Ln(9)

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(136, 7, "Description", "1", 0, "L", true, 0, "")
	pdf.CellFormat(50, 7, "Amount", "1", 1, "R", true, 0, "")
	pdf.SetFont("Arial", "", 9)
	for _, line := range doc.Lines {
		pdf.CellFormat(136, 6, tr(line.Description), "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 6, money(line.Amount), "1", 1, "R", false, 0, "")
	}
	pdf.SetFont("Arial", "B", 9)
	for _, total := range []struct {
		label string
		value float64
	}{{"Total", doc.Total}, {"Discount", doc.Discount}, {"Paid", doc.Paid}, {"Balance", doc.Balance}} {
		pdf.CellFormat(136, 6, total.label, "1", 0, "R", false, 0, "")
		pdf.CellFormat(50, 6, money(total.value), "1", 1, "R", false, 0, "")
	}

	if len(doc.Payments) > 0 {
		pdf.Ln(5)
		pdf.CellFormat(186, 6, "PAYMENTS", "", 1, "L", false, 0, "")
		pdf.SetFillColor(230, 230, 230)
		for i, h := range []string{"Date", "Receipt", "Method", "Amount"} {
			align := "L"
			if i == 3 {
				align = "R"
			}
			pdf.CellFormat(46.5, 6, h, "1", 0, align, true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 9)
		for _, p := range doc.Payments {
			pdf.CellFormat(46.5, 6, p.Date, "1", 0, "L", false, 0, "")
			pdf.CellFormat(46.5, 6, p.ReceiptNumber, "1", 0, "L", false, 0, "")
			pdf.CellFormat(46.5, 6, tr(strings.ReplaceAll(p.Method, "_", " ")), "1", 0, "L", false, 0, "")
			pdf.CellFormat(46.5, 6, money(p.Amount), "1", 1, "R", false, 0, "")
		}
	}
	return output(pdf)
}

func schoolHeader(pdf *gofpdf.Fpdf, tr func(string) string, school SchoolHeader, title string) {
	pdf.SetFont("Arial", "B", 15)
	pdf.CellFormat(0, 8, tr(strings.ToUpper(school.Name)), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "I", 9)
	if school.Motto != "" {
		pdf.CellFormat(0, 5, tr(school.Motto), "", 1, "C", false, 0, "")
	}
	contact := make([]string, 0, 3)
	for _, part := range []string{school.Address, school.Phone, school.Email} {
		if part != "" {
			contact = append(contact, part)
		}
	}
	if len(contact) > 0 {
		pdf.SetFont("Arial", "", 8)
		pdf.CellFormat(0, 5, tr(strings.Join(contact, " | ")), "", 1, "C", false, 0, "")
	}
	pdf.Ln(2)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, title, "TB", 1, "C", false, 0, "")
	pdf.Ln(3)
}

func labelValue(pdf *gofpdf.Fpdf, tr func(string) string, label, value string, width float64) {
	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(28, 6, label+":", "", 0, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	w := width - 28
	if width == 0 {
		w = 0
	}
	pdf.CellFormat(w, 6, tr(dash(value)), "", 0, "L", false, 0, "")
}

func remark(pdf *gofpdf.Fpdf, tr func(string) string, label, text string) {
	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(186, 6, label+":", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.MultiCell(186, 5, tr(dash(text)), "B", "L", false)
	pdf.Ln(2)
}

func score(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.1f", v)
}

func dash(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return v
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
