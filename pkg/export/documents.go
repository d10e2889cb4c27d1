package export

import (
	"regexp"
	"strconv"
	"time"
)

// ReceiptLine is one priced enrollment row on a receipt.
type ReceiptLine struct {
	Subject  string
	Level    string
	Teacher  string
	Schedule string
	Price    float64
}

// ReceiptDoc carries everything needed to render a student receipt.
type ReceiptDoc struct {
	CenterName  string
	StudentName string
	Level       string
	IssuedAt    time.Time
	Lines       []ReceiptLine
	Subtotal    float64
	Discount    float64
	Total       float64
}

// RosterRow is one student line on a class roster.
type RosterRow struct {
	StudentName string
	Level       string
	EnrolledAt  time.Time
}

// RosterDoc carries everything needed to render a class roster.
type RosterDoc struct {
	CenterName string
	ClassName  string
	Subject    string
	Level      string
	IssuedAt   time.Time
	Rows       []RosterRow
}

var whitespace = regexp.MustCompile(`\s+`)

// ReceiptFilename derives the download name for a student receipt.
func ReceiptFilename(studentName string) string {
	return "receipt_" + whitespace.ReplaceAllString(studentName, "_") + ".pdf"
}

// RosterFilename derives the download name for a class roster.
func RosterFilename(className, ext string) string {
	return "roster_" + whitespace.ReplaceAllString(className, "_") + "." + ext
}

// formatMAD prints an amount the way the receipts always have: bare number plus currency.
func formatMAD(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + " MAD"
}

// formatDate renders dates in the fr-FR day/month/year order used on all documents.
func formatDate(t time.Time) string {
	return t.Format("02/01/2006")
}

func formatDateTime(t time.Time) (string, string) {
	return t.Format("02/01/2006"), t.Format("15:04")
}
