package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Deletes entry and payment rows whose person no longer exists. Orphans can
// accumulate when a person delete reaches the remote store but some of the
// dependent deletes were issued from a device that went offline mid-session.
func main() {
	email := flag.String("email", "", "Account email to clean (optional). If empty, cleans all accounts.")
	dry := flag.Bool("dry-run", true, "Preview actions without modifying the DB")
	yes := flag.Bool("yes", false, "Confirm destructive action when dry-run=false")
	flag.Parse()

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN must be set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect db: %v", err)
	}

	tables := []string{"village_entries", "city_entries", "dairy_entries", "payments"}

	scope := ""
	args := []interface{}{}
	if *email != "" {
		var userID string
		if err := db.Raw("SELECT id FROM users WHERE email = ?", *email).Row().Scan(&userID); err != nil {
			log.Fatalf("user lookup failed for %s: %v", *email, err)
		}
		scope = " AND user_id = ?"
		args = append(args, userID)
		fmt.Printf("Planned actions for account %s (id=%s):\n", *email, userID)
	} else {
		fmt.Println("Planned actions (all accounts):")
	}

	for _, t := range tables {
		var cnt int64
		q := "SELECT count(*) FROM " + t + " WHERE person_id NOT IN (SELECT id FROM people)" + scope
		if err := db.Raw(q, args...).Scan(&cnt).Error; err != nil {
			log.Fatalf("count orphans in %s failed: %v", t, err)
		}
		fmt.Printf(" - DELETE %d orphaned rows from %s\n", cnt, t)
	}

	if *dry {
		fmt.Println("dry-run: no changes made. Use --dry-run=false --yes to execute.")
		return
	}
	if !*yes {
		fmt.Println("Destructive! Pass --yes to proceed.")
		return
	}

	for _, t := range tables {
		q := "DELETE FROM " + t + " WHERE person_id NOT IN (SELECT id FROM people)" + scope
		if err := db.Exec(q, args...).Error; err != nil {
			log.Fatalf("delete orphans in %s failed: %v", t, err)
		}
	}
	fmt.Println("cleanup done")
}
