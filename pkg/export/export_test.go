package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"milkbook/models"
)

func TestVillageCSV(t *testing.T) {
	out, err := VillageCSV([]models.VillageEntry{
		{Date: "2026-08-01", PersonName: "Ravi", MMilk: 10, MFat: 4.5, EMilk: 8, EFat: 5, MFatKg: 45, EFatKg: 40, Rate: 40, Amount: 3400},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Date,Person,M/Milk,M/Fat,E/Milk,E/Fat,M/FatKg,E/FatKg,Rate,Amount", lines[0])
	assert.Equal(t, "2026-08-01,Ravi,10,4.5,8,5,45,40,40,3400", lines[1])
}

func TestCityCSV(t *testing.T) {
	out, err := CityCSV([]models.CityEntry{
		{Date: "2026-08-01", PersonName: "Amit", Value: 30, Rate: 10, Amount: 300},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Date,Person,Value,Rate,Amount", lines[0])
	assert.Equal(t, "2026-08-01,Amit,30,10,300", lines[1])
}

func TestDairyCSVHeader(t *testing.T) {
	out, err := DairyCSV(nil)
	require.NoError(t, err)
	assert.Equal(t, "Date,Person,Session,Milk,Fat,Meter,Rate,FatKg,MeterKg,Fat Amount,Meter Amount,Total Amount", strings.TrimSpace(out))
}

func TestFilterVillageInclusiveRange(t *testing.T) {
	entries := []models.VillageEntry{
		{ID: "a", Date: "2026-07-31"},
		{ID: "b", Date: "2026-08-01"},
		{ID: "c", Date: "2026-08-31"},
		{ID: "d", Date: "2026-09-01"},
	}
	got := FilterVillage(entries, "2026-08-01", "2026-08-31")
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "c", got[1].ID)
}

func TestBuildLedger(t *testing.T) {
	data := models.AppData{
		People: []models.Person{
			{ID: "p1", Name: "Ravi", Category: models.CategoryVillage},
			{ID: "p2", Name: "Amit", Category: models.CategoryCity},
		},
		VillageEntries: []models.VillageEntry{
			{PersonID: "p1", Date: "2026-08-02", MMilk: 10, EMilk: 8, Amount: 3400},
		},
		Payments: []models.Payment{
			{PersonID: "p1", Date: "2026-08-05", Amount: 1000, Category: models.CategoryVillage},
			{PersonID: "p1", Date: "2026-08-01", Amount: 400, Comment: "advance", Category: models.CategoryVillage},
		},
	}

	ledgers := BuildLedger(data, models.CategoryVillage, "", "0000-01-01", "9999-12-31")
	require.Len(t, ledgers, 1)

	ledger := ledgers[0]
	assert.Equal(t, "Ravi", ledger.PersonName)
	assert.Equal(t, 3400.0, ledger.TotalEarnings)
	assert.Equal(t, 1400.0, ledger.TotalPayments)
	assert.Equal(t, 2000.0, ledger.NetAmount)

	// Lines come back date-sorted; payments are negative movements.
	require.Len(t, ledger.Lines, 3)
	assert.Equal(t, "2026-08-01", ledger.Lines[0].Date)
	assert.Equal(t, -400.0, ledger.Lines[0].Amount)
	assert.Equal(t, "Payment - advance", ledger.Lines[0].Description)
	assert.Equal(t, "Village Entry - M/Milk: 10, E/Milk: 8", ledger.Lines[1].Description)
	assert.Equal(t, -1000.0, ledger.Lines[2].Amount)
	assert.Equal(t, "Payment - No comment", ledger.Lines[2].Description)
}

func TestBuildLedgerBlankComment(t *testing.T) {
	data := models.AppData{
		People:   []models.Person{{ID: "p1", Name: "Ravi", Category: models.CategoryDairy}},
		Payments: []models.Payment{{PersonID: "p1", Date: "2026-08-01", Amount: 50, Category: models.CategoryDairy}},
	}
	ledgers := BuildLedger(data, models.CategoryDairy, "", "0000-01-01", "9999-12-31")
	require.Len(t, ledgers, 1)
	require.Len(t, ledgers[0].Lines, 1)
	assert.Equal(t, "Payment - No comment", ledgers[0].Lines[0].Description)
}

func TestBuildLedgerSinglePerson(t *testing.T) {
	data := models.AppData{
		People: []models.Person{
			{ID: "p1", Name: "Ravi", Category: models.CategoryCity},
			{ID: "p2", Name: "Amit", Category: models.CategoryCity},
		},
		CityEntries: []models.CityEntry{
			{PersonID: "p1", Date: "2026-08-01", Value: 30, Amount: 300},
			{PersonID: "p2", Date: "2026-08-01", Value: 10, Amount: 100},
		},
	}
	ledgers := BuildLedger(data, models.CategoryCity, "p2", "0000-01-01", "9999-12-31")
	require.Len(t, ledgers, 1)
	assert.Equal(t, "Amit", ledgers[0].PersonName)
	assert.Equal(t, 100.0, ledgers[0].TotalEarnings)
}

func TestLedgerCSVRunningBalance(t *testing.T) {
	ledgers := []PersonLedger{{
		PersonID:   "p1",
		PersonName: "Ravi",
		Lines: []LedgerLine{
			{Date: "2026-08-01", Type: "entry", Amount: 3400, Description: "Village Entry - M/Milk: 10, E/Milk: 8"},
			{Date: "2026-08-05", Type: "payment", Amount: -1000, Description: "Payment - No comment"},
		},
	}}
	out, err := LedgerCSV(ledgers)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Person,Date,Type,Amount,Description,Running Balance", lines[0])
	assert.Equal(t, "Ravi,2026-08-01,entry,3400.00,\"Village Entry - M/Milk: 10, E/Milk: 8\",3400.00", lines[1])
	assert.Equal(t, "Ravi,2026-08-05,payment,-1000.00,Payment - No comment,2400.00", lines[2])
}

func TestVillagePDFRenders(t *testing.T) {
	out, err := VillagePDF([]models.VillageEntry{
		{Date: "2026-08-01", PersonName: "Ravi", Amount: 3400},
	}, "2026-08-01", "2026-08-31")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "%PDF"))
}
