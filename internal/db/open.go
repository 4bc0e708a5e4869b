package db

import (
	"time" // Pool lifetimes

	"gorm.io/driver/mysql" // MySQL driver for GORM
	"gorm.io/gorm"         // GORM ORM library
	"gorm.io/gorm/logger"  // GORM logger
)

// Open connects to MySQL with settings shared by the server and the migrator
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		TranslateError: true,                                // Map duplicate keys to gorm.ErrDuplicatedKey
		Logger:         logger.Default.LogMode(logger.Warn), // Only slow queries and errors
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB() // Underlying pool
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)                  // Upper bound on concurrent transfers hitting the store
	sqlDB.SetMaxIdleConns(10)                  // Keep a warm pool
	sqlDB.SetConnMaxLifetime(30 * time.Minute) // Recycle connections
	return db, nil
}
