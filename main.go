package main

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"milkbook/pkg/logger"
	"milkbook/store"
)

var (
	zlog      *zap.Logger
	jwtSecret []byte // loaded from env JWT_SECRET (fallback to dev default)
	dataMgr   *store.Manager
)

func main() {
	// Auto-load ./.env if present before reading vars; missing file is fine.
	_ = godotenv.Load()

	zlog = logger.Must(logger.New())
	defer func() { _ = zlog.Sync() }()
	zap.ReplaceGlobals(zlog)

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-insecure-secret-change" // development fallback
	}
	jwtSecret = []byte(secret)

	// Support a lightweight migrate command: `./milkbook migrate`.
	// Runs AutoMigrate then exits. Useful for CI or manual DB setup.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		initDB()
		if db == nil {
			zlog.Fatal("migrate requires DB_DSN")
		}
		fmt.Println("migration completed")
		return
	}

	initDB()

	cache, err := store.OpenCache(cacheDir())
	if err != nil {
		zlog.Fatal("failed to open local cache", zap.Error(err))
	}
	defer func() { _ = cache.Close() }()

	// No DSN (or an unreachable one) leaves remote nil: the app then runs
	// entirely against the local cache and every session reads as offline.
	var remote store.Remote
	if db != nil {
		remote = store.NewRemoteStore(db)
	}
	dataMgr = store.NewManager(cache, remote, zlog.Named("store"))

	r := gin.Default()

	setupRoutes(r)

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8081"
	}
	if err := r.Run(":" + port); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}

// cacheDir returns the local cache directory (configurable via CACHE_DIR).
func cacheDir() string {
	if v := os.Getenv("CACHE_DIR"); v != "" {
		return v
	}
	return "cache"
}
