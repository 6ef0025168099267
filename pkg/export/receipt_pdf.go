package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// Receipt holds the already formatted values printed on a payment receipt.
type Receipt struct {
	Number        string
	IssuedAt      string
	Seller        string
	CustomerName  string
	CustomerEmail string
	CourseTitle   string
	Schedule      string
	PaymentMethod string
	Amount        string
	Reference     string
}

// ReceiptRenderer lays out a single-page A4 receipt.
type ReceiptRenderer struct{}

// NewReceiptRenderer constructs a receipt renderer.
func NewReceiptRenderer() *ReceiptRenderer {
	return &ReceiptRenderer{}
}

// Render returns the PDF bytes for r.
func (e *ReceiptRenderer) Render(r Receipt) ([]byte, error) {
	if r.Number == "" || r.Amount == "" {
		return nil, fmt.Errorf("receipt requires number and amount")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	// Core fonts are cp1252; translate so umlauts and the euro sign survive.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, tr("Zahlungsbestätigung"), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	if r.Seller != "" {
		pdf.CellFormat(0, 6, tr(r.Seller), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	rows := [][2]string{
		{"Beleg-Nr.", r.Number},
		{"Datum", r.IssuedAt},
		{"Kunde", r.CustomerName},
		{"E-Mail", r.CustomerEmail},
		{"Kurs", r.CourseTitle},
		{"Termin", r.Schedule},
		{"Zahlungsart", r.PaymentMethod},
		{"Referenz", r.Reference},
	}
	for _, row := range rows {
		if row[1] == "" {
			continue
		}
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(45, 7, tr(row[0]), "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 7, tr(row[1]), "", 1, "L", false, 0, "")
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(45, 9, tr("Betrag"), "T", 0, "L", false, 0, "")
	pdf.CellFormat(0, 9, tr(r.Amount), "T", 1, "R", false, 0, "")

	pdf.Ln(8)
	pdf.SetFont("Arial", "I", 8)
	pdf.MultiCell(0, 4, tr("Dieser Beleg wurde maschinell erstellt und ist ohne Unterschrift gültig."), "", "L", false)

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render receipt pdf: %w", err)
	}
	return buf.Bytes(), nil
}
