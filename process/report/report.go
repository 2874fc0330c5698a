package report

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"milkbook/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func mustDBFromEnv() *gorm.DB {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN not set in env")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	return gdb
}

// RunReport prints a month-bounded earnings and payments summary for the
// account owning email (month in YYYY-MM) and optionally lists the payments.
func RunReport(email, month string, list bool) {
	gdb := mustDBFromEnv()

	var user models.User
	if err := gdb.Where("email = ?", email).First(&user).Error; err != nil {
		log.Fatalf("user not found: %v", err)
	}

	t, err := time.Parse("2006-01", month)
	if err != nil {
		log.Fatalf("invalid month format, expected YYYY-MM: %v", err)
	}
	start := t.Format("2006-01-02")
	end := t.AddDate(0, 1, 0).Format("2006-01-02")

	fmt.Printf("Report for user=%s month=%s:\n", user.Email, month)

	type line struct {
		label string
		query string
	}
	for _, l := range []line{
		{"village entries", `SELECT COALESCE(SUM(amount),0), COUNT(*) FROM village_entries WHERE user_id = ? AND date >= ? AND date < ?`},
		{"city entries", `SELECT COALESCE(SUM(amount),0), COUNT(*) FROM city_entries WHERE user_id = ? AND date >= ? AND date < ?`},
		{"dairy entries", `SELECT COALESCE(SUM(total_amount),0), COUNT(*) FROM dairy_entries WHERE user_id = ? AND date >= ? AND date < ?`},
		{"payments", `SELECT COALESCE(SUM(amount),0), COUNT(*) FROM payments WHERE user_id = ? AND date >= ? AND date < ?`},
	} {
		var total sql.NullFloat64
		var cnt int64
		if err := gdb.Raw(l.query, user.ID, start, end).Row().Scan(&total, &cnt); err != nil {
			log.Fatalf("query failed (%s): %v", l.label, err)
		}
		fmt.Printf("  %-16s records=%d total=%.2f\n", l.label, cnt, total.Float64)
	}

	if list {
		var rows []models.Payment
		if err := gdb.Where("user_id = ? AND date >= ? AND date < ?", user.ID, start, end).
			Order("date").Find(&rows).Error; err != nil {
			log.Fatalf("fetch payments failed: %v", err)
		}
		for _, r := range rows {
			fmt.Printf("%s|%s|%s|%s|%.2f|%s\n", r.ID, r.PersonName, r.Date, r.Type, r.Amount, r.Comment)
		}
	}
}
