package export

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"milkbook/models"
)

// Derived values are exported raw, not rounded; two-decimal formatting is
// reserved for the ledger's money columns, matching the on-screen tables.

func writeCSV(header []string, rows [][]string) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return "", err
	}
	if err := w.WriteAll(rows); err != nil {
		return "", err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func fixed2(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// VillageCSV renders village entries with the village view's columns.
func VillageCSV(entries []models.VillageEntry) (string, error) {
	header := []string{"Date", "Person", "M/Milk", "M/Fat", "E/Milk", "E/Fat", "M/FatKg", "E/FatKg", "Rate", "Amount"}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.Date, e.PersonName,
			num(e.MMilk), num(e.MFat), num(e.EMilk), num(e.EFat),
			num(e.MFatKg), num(e.EFatKg), num(e.Rate), num(e.Amount),
		})
	}
	return writeCSV(header, rows)
}

// CityCSV renders city entries with the city view's columns.
func CityCSV(entries []models.CityEntry) (string, error) {
	header := []string{"Date", "Person", "Value", "Rate", "Amount"}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.Date, e.PersonName, num(e.Value), num(e.Rate), num(e.Amount)})
	}
	return writeCSV(header, rows)
}

// DairyCSV renders dairy entries with the dairy view's columns.
func DairyCSV(entries []models.DairyEntry) (string, error) {
	header := []string{"Date", "Person", "Session", "Milk", "Fat", "Meter", "Rate", "FatKg", "MeterKg", "Fat Amount", "Meter Amount", "Total Amount"}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.Date, e.PersonName, e.Session,
			num(e.Milk), num(e.Fat), num(e.Meter), num(e.Rate),
			num(e.FatKg), num(e.MeterKg), num(e.FatAmount), num(e.MeterAmount), num(e.TotalAmount),
		})
	}
	return writeCSV(header, rows)
}

// LedgerCSV renders per-person ledgers with a running balance column and a
// blank line between people.
func LedgerCSV(ledgers []PersonLedger) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"Person", "Date", "Type", "Amount", "Description", "Running Balance"}); err != nil {
		return "", err
	}
	for _, ledger := range ledgers {
		balance := 0.0
		for _, line := range ledger.Lines {
			balance += line.Amount
			if err := w.Write([]string{
				ledger.PersonName, line.Date, line.Type,
				fixed2(line.Amount), line.Description, fixed2(balance),
			}); err != nil {
				return "", err
			}
		}
		w.Flush()
		buf.WriteByte('\n')
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
