package main

import (
	"fbank/internal/config" // Custom import path (Config)
	"fbank/internal/db"     // Custom import path (Database)
)

// Main entry point for migration
func main() {
	cfg := config.LoadConfig() // Load configuration
	db.Migrate(cfg.DSN())      // MySQL DSN built from DB_* variables
}
