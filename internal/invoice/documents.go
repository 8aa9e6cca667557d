package invoice

import (
	"bytes"
	"fmt"

	"github.com/ghosthapper/Flexpwr-data-DataEngineeringChallenge/internal/domain"
	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

// BuildPDF renders a minimal PDF document for one invoice.
func BuildPDF(inv domain.Invoice) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Infeed Settlement Invoice")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Invoice: %s", inv.InvoiceID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Asset: %s (%s)", inv.AssetID, inv.AssetType))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Delivery Day: %s", inv.InvoiceDate.Format("2006-01-02")))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(80, 6, "Position", "1", 0, "L", false, 0, "")
	pdf.CellFormat(50, 6, "Amount", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)

	rows := []struct {
		label string
		value string
	}{
		{"Production (MWh)", inv.ProductionMWh.StringFixed(3)},
		{"Base Payout", inv.BasePayoutEUR.StringFixed(2) + " EUR"},
		{"Handling Fees", inv.FeesEUR.Neg().StringFixed(2) + " EUR"},
		{"Redispatch Compensation", inv.RedispatchPayoutEUR.StringFixed(2) + " EUR"},
		{"Total Net", inv.NetAmount().Display()},
		{"VAT", inv.VATAmount().Display()},
		{"Total Gross", inv.GrossAmount().Display()},
	}
	for _, row := range rows {
		pdf.CellFormat(80, 6, row.label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 6, row.value, "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildXLSX renders all invoices of the run into one workbook, a summary
// sheet plus one row per invoice.
func BuildXLSX(invoices []domain.Invoice) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "invoices"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Invoice", "Asset", "Type", "Delivery Day", "Production (MWh)", "Base Payout (EUR)", "Fees (EUR)", "Redispatch (EUR)", "Net (EUR)", "VAT (EUR)", "Gross (EUR)"}
	for i, hdr := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		_ = f.SetCellValue(sheet, cell, hdr)
	}

	for i, inv := range invoices {
		row := i + 2
		values := []interface{}{
			inv.InvoiceID,
			inv.AssetID,
			string(inv.AssetType),
			inv.InvoiceDate.Format("2006-01-02"),
			inv.ProductionMWh.InexactFloat64(),
			inv.BasePayoutEUR.InexactFloat64(),
			inv.FeesEUR.InexactFloat64(),
			inv.RedispatchPayoutEUR.InexactFloat64(),
			inv.TotalNetEUR.InexactFloat64(),
			inv.VATEUR.InexactFloat64(),
			inv.TotalGrossEUR.InexactFloat64(),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, err
			}
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
