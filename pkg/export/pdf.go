package export

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"

	"milkbook/models"
)

// tablePDF renders one landscape table with evenly sized columns. Good
// enough for the report layouts here; column content is short.
func tablePDF(title string, header []string, rows [][]string) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, title, "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	colW := (pageW - left - right) / float64(len(header))

	writeHeader := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for _, h := range header {
			pdf.CellFormat(colW, 8, h, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
	}

	writeHeader()
	pdf.SetFont("Helvetica", "", 9)
	for _, row := range rows {
		for _, cell := range row {
			pdf.CellFormat(colW, 7, cell, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// VillagePDF renders village entries as a tabular report.
func VillagePDF(entries []models.VillageEntry, start, end string) ([]byte, error) {
	header := []string{"Date", "Person", "M/Milk", "M/Fat", "E/Milk", "E/Fat", "M/FatKg", "E/FatKg", "Rate", "Amount"}
	rows := make([][]string, 0, len(entries))
	total := 0.0
	for _, e := range entries {
		total += e.Amount
		rows = append(rows, []string{
			e.Date, e.PersonName,
			fixed2(e.MMilk), fixed2(e.MFat), fixed2(e.EMilk), fixed2(e.EFat),
			fixed2(e.MFatKg), fixed2(e.EFatKg), fixed2(e.Rate), fixed2(e.Amount),
		})
	}
	rows = append(rows, []string{"", "Total", "", "", "", "", "", "", "", fixed2(total)})
	return tablePDF("Village Report "+start+" to "+end, header, rows)
}

// CityPDF renders city entries as a tabular report.
func CityPDF(entries []models.CityEntry, start, end string) ([]byte, error) {
	header := []string{"Date", "Person", "Value", "Rate", "Amount"}
	rows := make([][]string, 0, len(entries))
	total := 0.0
	for _, e := range entries {
		total += e.Amount
		rows = append(rows, []string{e.Date, e.PersonName, fixed2(e.Value), fixed2(e.Rate), fixed2(e.Amount)})
	}
	rows = append(rows, []string{"", "Total", "", "", fixed2(total)})
	return tablePDF("City Report "+start+" to "+end, header, rows)
}

// DairyPDF renders dairy entries as a tabular report.
func DairyPDF(entries []models.DairyEntry, start, end string) ([]byte, error) {
	header := []string{"Date", "Person", "Session", "Milk", "Fat", "Meter", "Rate", "FatKg", "MeterKg", "Fat Amt", "Meter Amt", "Total"}
	rows := make([][]string, 0, len(entries))
	total := 0.0
	for _, e := range entries {
		total += e.TotalAmount
		rows = append(rows, []string{
			e.Date, e.PersonName, e.Session,
			fixed2(e.Milk), fixed2(e.Fat), fixed2(e.Meter), fixed2(e.Rate),
			fixed2(e.FatKg), fixed2(e.MeterKg), fixed2(e.FatAmount), fixed2(e.MeterAmount), fixed2(e.TotalAmount),
		})
	}
	rows = append(rows, []string{"", "", "", "", "", "", "", "", "", "", "Total", fixed2(total)})
	return tablePDF("Dairy Report "+start+" to "+end, header, rows)
}
