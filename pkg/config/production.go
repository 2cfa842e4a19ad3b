package config

import (
	"os"
	"strconv"
)

func loadProductionConfig(cfg *Config) {
	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err == nil {
		cfg.ServerPort = port
	}

	cfg.CacheDir = "/data/cache"
	cfg.DatabaseFilePath = "/data/data.sqlite"

	if dir := os.Getenv("CACHE_DIR"); dir != "" {
		cfg.CacheDir = dir
	}
	if path := os.Getenv("DATABASE_FILE_PATH"); path != "" {
		cfg.DatabaseFilePath = path
	}
	if workers, err := strconv.Atoi(os.Getenv("SCAN_WORKERS")); err == nil && workers > 0 {
		cfg.ScanWorkers = workers
	}
}
