// Package export renders the tabular views of the books as CSV and PDF and
// builds the per-person ledgers behind them. Everything here is pure
// formatting over already-loaded data.
package export

import (
	"sort"
	"strconv"

	"milkbook/models"
)

// LedgerLine is one movement in a person's ledger. Payments carry a negative
// amount so a running balance can be summed directly.
type LedgerLine struct {
	Date        string  `json:"date"`
	Type        string  `json:"type"` // entry | payment
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

// PersonLedger is one person's activity over a date range.
type PersonLedger struct {
	PersonID      string       `json:"personId"`
	PersonName    string       `json:"personName"`
	TotalEarnings float64      `json:"totalEarnings"`
	TotalPayments float64      `json:"totalPayments"`
	NetAmount     float64      `json:"netAmount"`
	Lines         []LedgerLine `json:"entries"`
}

func inRange(date, start, end string) bool {
	return date >= start && date <= end
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// BuildLedger assembles per-person ledgers for one business line over an
// inclusive date range. personID narrows the result to one person when
// non-empty.
func BuildLedger(data models.AppData, category, personID, start, end string) []PersonLedger {
	var out []PersonLedger
	for _, person := range data.People {
		if person.Category != category {
			continue
		}
		if personID != "" && person.ID != personID {
			continue
		}

		ledger := PersonLedger{PersonID: person.ID, PersonName: person.Name}

		switch category {
		case models.CategoryVillage:
			for _, e := range data.VillageEntries {
				if e.PersonID != person.ID || !inRange(e.Date, start, end) {
					continue
				}
				ledger.TotalEarnings += e.Amount
				ledger.Lines = append(ledger.Lines, LedgerLine{
					Date:        e.Date,
					Type:        "entry",
					Amount:      e.Amount,
					Description: "Village Entry - M/Milk: " + num(e.MMilk) + ", E/Milk: " + num(e.EMilk),
				})
			}
		case models.CategoryCity:
			for _, e := range data.CityEntries {
				if e.PersonID != person.ID || !inRange(e.Date, start, end) {
					continue
				}
				ledger.TotalEarnings += e.Amount
				ledger.Lines = append(ledger.Lines, LedgerLine{
					Date:        e.Date,
					Type:        "entry",
					Amount:      e.Amount,
					Description: "City Entry - Value: " + num(e.Value),
				})
			}
		case models.CategoryDairy:
			for _, e := range data.DairyEntries {
				if e.PersonID != person.ID || !inRange(e.Date, start, end) {
					continue
				}
				ledger.TotalEarnings += e.TotalAmount
				ledger.Lines = append(ledger.Lines, LedgerLine{
					Date:        e.Date,
					Type:        "entry",
					Amount:      e.TotalAmount,
					Description: "Dairy Entry - " + e.Session + " - Milk: " + num(e.Milk) + ", Fat: " + num(e.Fat),
				})
			}
		}

		for _, p := range data.Payments {
			if p.PersonID != person.ID || p.Category != category || !inRange(p.Date, start, end) {
				continue
			}
			comment := p.Comment
			if comment == "" {
				comment = "No comment"
			}
			ledger.TotalPayments += p.Amount
			ledger.Lines = append(ledger.Lines, LedgerLine{
				Date:        p.Date,
				Type:        "payment",
				Amount:      -p.Amount,
				Description: "Payment - " + comment,
			})
		}

		sort.SliceStable(ledger.Lines, func(i, j int) bool {
			return ledger.Lines[i].Date < ledger.Lines[j].Date
		})
		ledger.NetAmount = ledger.TotalEarnings - ledger.TotalPayments
		out = append(out, ledger)
	}
	return out
}

// FilterVillage keeps entries inside the inclusive date range.
func FilterVillage(entries []models.VillageEntry, start, end string) []models.VillageEntry {
	var out []models.VillageEntry
	for _, e := range entries {
		if inRange(e.Date, start, end) {
			out = append(out, e)
		}
	}
	return out
}

// FilterCity keeps entries inside the inclusive date range.
func FilterCity(entries []models.CityEntry, start, end string) []models.CityEntry {
	var out []models.CityEntry
	for _, e := range entries {
		if inRange(e.Date, start, end) {
			out = append(out, e)
		}
	}
	return out
}

// FilterDairy keeps entries inside the inclusive date range.
func FilterDairy(entries []models.DairyEntry, start, end string) []models.DairyEntry {
	var out []models.DairyEntry
	for _, e := range entries {
		if inRange(e.Date, start, end) {
			out = append(out, e)
		}
	}
	return out
}
