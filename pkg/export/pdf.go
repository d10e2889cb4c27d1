package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// labels holds the fixed strings printed on receipts and rosters. Receipts are
// Arabic-first; without a UTF-8 font gofpdf can only draw core-font glyphs, so
// the French set is used as fallback.
type labels struct {
	ReceiptTitle string
	FullName     string
	Level        string
	Subject      string
	Teacher      string
	Price        string
	Subtotal     string
	Discount     string
	Total        string
	IssuedOn     string
	RosterTitle  string
	ClassName    string
	LevelSubject string
	EnrolledOn   string
	TimeCol      string
	StudentCount string
	NoStudents   string
}

var arabicLabels = labels{
	ReceiptTitle: "وصل تسجيل وتفصيل الرسوم",
	FullName:     "الاسم الكامل",
	Level:        "المستوى",
	Subject:      "المادة",
	Teacher:      "الأستاذ",
	Price:        "السعر",
	Subtotal:     "المجموع الفرعي",
	Discount:     "الخصم",
	Total:        "المجموع الكلي",
	IssuedOn:     "حرر بتاريخ",
	RosterTitle:  "لائحة تلاميذ القسم",
	ClassName:    "اسم القسم",
	LevelSubject: "المستوى والمادة",
	EnrolledOn:   "تاريخ التسجيل",
	TimeCol:      "الوقت",
	StudentCount: "عدد التلاميذ الإجمالي",
	NoStudents:   "لا يوجد تلاميذ مسجلين في هذا القسم",
}

var frenchLabels = labels{
	ReceiptTitle: "Recu d'inscription et detail des frais",
	FullName:     "Nom complet",
	Level:        "Niveau",
	Subject:      "Matiere",
	Teacher:      "Professeur",
	Price:        "Prix",
	Subtotal:     "Sous-total",
	Discount:     "Remise",
	Total:        "Total",
	IssuedOn:     "Fait le",
	RosterTitle:  "Liste des eleves de la classe",
	ClassName:    "Classe",
	LevelSubject: "Niveau et matiere",
	EnrolledOn:   "Date d'inscription",
	TimeCol:      "Heure",
	StudentCount: "Nombre total d'eleves",
	NoStudents:   "Aucun eleve inscrit dans cette classe",
}

// PDFRenderer renders receipts and rosters with gofpdf.
type PDFRenderer struct {
	fontPath string
	fontName string
}

// NewPDFRenderer constructs a renderer. fontPath may point at a UTF-8 TTF able
// to draw Arabic glyphs; when empty the renderer sticks to core fonts and the
// French label set.
func NewPDFRenderer(fontPath, fontName string) *PDFRenderer {
	if fontName == "" {
		fontName = "NotoNaskhArabic"
	}
	return &PDFRenderer{fontPath: fontPath, fontName: fontName}
}

func (r *PDFRenderer) newDoc() (*gofpdf.Fpdf, string, labels) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(12, 15, 12)
	pdf.AddPage()
	if r.fontPath != "" {
		pdf.AddUTF8Font(r.fontName, "", r.fontPath)
		if pdf.Err() {
			// Bad font file. Recover and fall back to core fonts.
			pdf = gofpdf.New("P", "mm", "A4", "")
			pdf.SetMargins(12, 15, 12)
			pdf.AddPage()
			return pdf, "Arial", frenchLabels
		}
		pdf.SetRightMargin(12)
		return pdf, r.fontName, arabicLabels
	}
	return pdf, "Arial", frenchLabels
}

// RenderReceipt draws the line-item receipt: header, student info, one row per
// enrollment, subtotal, optional discount and total.
func (r *PDFRenderer) RenderReceipt(doc ReceiptDoc) ([]byte, error) {
	pdf, font, l := r.newDoc()

	centerName := doc.CenterName
	if centerName == "" {
		centerName = "Centre de soutien scolaire"
	}

	pdf.SetFont(font, "", 16)
	pdf.CellFormat(0, 9, centerName, "", 1, "C", false, 0, "")
	pdf.SetFont(font, "", 9)
	pdf.CellFormat(0, 6, fmt.Sprintf("%s: %s", l.IssuedOn, formatDate(doc.IssuedAt)), "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFillColor(243, 244, 246)
	pdf.SetFont(font, "", 12)
	pdf.CellFormat(0, 9, l.ReceiptTitle, "1", 1, "C", true, 0, "")
	pdf.Ln(4)

	pdf.SetFont(font, "", 10)
	pdf.CellFormat(40, 7, l.FullName+":", "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 7, doc.StudentName, "", 1, "L", false, 0, "")
	pdf.CellFormat(40, 7, l.Level+":", "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 7, doc.Level, "", 1, "L", false, 0, "")
	pdf.Ln(3)

	const (
		wSubject = 62.0
		wLevel   = 34.0
		wTeacher = 52.0
		wPrice   = 38.0
	)

	pdf.SetFont(font, "", 9)
	pdf.SetFillColor(249, 250, 251)
	pdf.CellFormat(wSubject, 8, l.Subject, "1", 0, "C", true, 0, "")
	pdf.CellFormat(wLevel, 8, l.Level, "1", 0, "C", true, 0, "")
	pdf.CellFormat(wTeacher, 8, l.Teacher, "1", 0, "C", true, 0, "")
	pdf.CellFormat(wPrice, 8, l.Price, "1", 1, "C", true, 0, "")

	for _, line := range doc.Lines {
		subject := line.Subject
		if line.Schedule != "" {
			subject = fmt.Sprintf("%s (%s)", line.Subject, line.Schedule)
		}
		teacher := line.Teacher
		if teacher == "" {
			teacher = "-"
		}
		level := line.Level
		if level == "" {
			level = doc.Level
		}
		pdf.CellFormat(wSubject, 7, subject, "1", 0, "L", false, 0, "")
		pdf.CellFormat(wLevel, 7, level, "1", 0, "C", false, 0, "")
		pdf.CellFormat(wTeacher, 7, teacher, "1", 0, "C", false, 0, "")
		pdf.CellFormat(wPrice, 7, formatMAD(line.Price), "1", 1, "R", false, 0, "")
	}

	pdf.SetFillColor(249, 250, 251)
	pdf.CellFormat(wSubject+wLevel+wTeacher, 7, l.Subtotal, "1", 0, "L", true, 0, "")
	pdf.CellFormat(wPrice, 7, formatMAD(doc.Subtotal), "1", 1, "R", true, 0, "")

	if doc.Discount > 0 {
		pdf.SetFillColor(255, 251, 235)
		pdf.CellFormat(wSubject+wLevel+wTeacher, 7, l.Discount, "1", 0, "L", true, 0, "")
		pdf.CellFormat(wPrice, 7, "- "+formatMAD(doc.Discount), "1", 1, "R", true, 0, "")
	}

	pdf.SetFillColor(240, 253, 244)
	pdf.SetFont(font, "", 11)
	pdf.CellFormat(wSubject+wLevel+wTeacher, 8, l.Total, "1", 0, "L", true, 0, "")
	pdf.CellFormat(wPrice, 8, formatMAD(doc.Total), "1", 1, "R", true, 0, "")

	pdf.Ln(6)
	pdf.SetFont(font, "", 7)
	pdf.SetTextColor(156, 163, 175)
	pdf.CellFormat(0, 5, "Generated by SoutienFlow System", "", 1, "C", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render receipt pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderRoster draws the tabular class roster: class header, then one row per
// enrolled student with name, level and enrollment date/time.
func (r *PDFRenderer) RenderRoster(doc RosterDoc) ([]byte, error) {
	pdf, font, l := r.newDoc()

	centerName := doc.CenterName
	if centerName == "" {
		centerName = "Centre de soutien scolaire"
	}

	pdf.SetFont(font, "", 16)
	pdf.CellFormat(0, 9, centerName, "", 1, "C", false, 0, "")
	pdf.SetFont(font, "", 11)
	pdf.CellFormat(0, 7, l.RosterTitle, "", 1, "C", false, 0, "")
	pdf.SetFont(font, "", 9)
	pdf.CellFormat(0, 6, fmt.Sprintf("%s: %s", l.IssuedOn, formatDate(doc.IssuedAt)), "", 1, "C", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont(font, "", 10)
	pdf.SetFillColor(249, 250, 251)
	pdf.CellFormat(93, 8, fmt.Sprintf("%s: %s", l.ClassName, doc.ClassName), "1", 0, "L", true, 0, "")
	pdf.CellFormat(93, 8, fmt.Sprintf("%s: %s - %s", l.LevelSubject, doc.Level, doc.Subject), "1", 1, "L", true, 0, "")
	pdf.Ln(3)

	const (
		wName  = 72.0
		wLevel = 36.0
		wDate  = 42.0
		wTime  = 36.0
	)

	pdf.SetFont(font, "", 9)
	pdf.SetFillColor(79, 70, 229)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(wName, 8, l.FullName, "1", 0, "C", true, 0, "")
	pdf.CellFormat(wLevel, 8, l.Level, "1", 0, "C", true, 0, "")
	pdf.CellFormat(wDate, 8, l.EnrolledOn, "1", 0, "C", true, 0, "")
	pdf.CellFormat(wTime, 8, l.TimeCol, "1", 1, "C", true, 0, "")
	pdf.SetTextColor(17, 24, 39)

	if len(doc.Rows) == 0 {
		pdf.SetFont(font, "", 9)
		pdf.CellFormat(wName+wLevel+wDate+wTime, 12, l.NoStudents, "1", 1, "C", false, 0, "")
	}

	for i, row := range doc.Rows {
		fill := i%2 == 1
		pdf.SetFillColor(249, 250, 251)
		date, clock := formatDateTime(row.EnrolledAt)
		pdf.CellFormat(wName, 7, row.StudentName, "1", 0, "L", fill, 0, "")
		pdf.CellFormat(wLevel, 7, row.Level, "1", 0, "C", fill, 0, "")
		pdf.CellFormat(wDate, 7, date, "1", 0, "C", fill, 0, "")
		pdf.CellFormat(wTime, 7, clock, "1", 1, "C", fill, 0, "")
	}

	pdf.Ln(4)
	pdf.SetFont(font, "", 8)
	pdf.SetTextColor(156, 163, 175)
	pdf.CellFormat(93, 5, fmt.Sprintf("%s: %d", l.StudentCount, len(doc.Rows)), "", 0, "L", false, 0, "")
	pdf.CellFormat(93, 5, "SoutienFlow System", "", 1, "R", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render roster pdf: %w", err)
	}
	return buf.Bytes(), nil
}
