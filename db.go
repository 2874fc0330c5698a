package main

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"milkbook/models"
)

var db *gorm.DB

// initDB connects postgres and migrates the owner-scoped tables. A missing
// or unreachable DSN is deliberately not fatal: the app then runs against
// the local cache alone and sessions stay in offline mode.
func initDB() {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		zlog.Warn("DB_DSN not set, running without a remote store")
		return
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		zlog.Warn("postgres connect failed, running without a remote store", zap.Error(err))
		return
	}
	db = gdb

	// Control schema migrations with env DB_AUTO_MIGRATE (default true).
	shouldMigrate := true
	if v := os.Getenv("DB_AUTO_MIGRATE"); v != "" {
		lv := strings.ToLower(v)
		if lv == "false" || lv == "0" || lv == "no" {
			shouldMigrate = false
		}
	}
	if !shouldMigrate {
		return
	}

	// Migrate tables individually so a failure on one doesn't block others.
	if err := db.AutoMigrate(&models.User{}); err != nil {
		zlog.Warn("migration warning (users)", zap.Error(err))
	}
	if err := db.AutoMigrate(&models.Person{}); err != nil {
		zlog.Warn("migration warning (people)", zap.Error(err))
	}
	if err := db.AutoMigrate(&models.VillageEntry{}); err != nil {
		zlog.Warn("migration warning (village_entries)", zap.Error(err))
	}
	if err := db.AutoMigrate(&models.CityEntry{}); err != nil {
		zlog.Warn("migration warning (city_entries)", zap.Error(err))
	}
	if err := db.AutoMigrate(&models.DairyEntry{}); err != nil {
		zlog.Warn("migration warning (dairy_entries)", zap.Error(err))
	}
	if err := db.AutoMigrate(&models.Payment{}); err != nil {
		zlog.Warn("migration warning (payments)", zap.Error(err))
	}
}
