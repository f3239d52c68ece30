package gorm

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Config holds the database settings.
type Config struct {
	// Path is the SQLite database file, or ":memory:" for an ephemeral
	// database.
	Path string
}

// Open connects to the database and migrates the schema.
func Open(cfg Config, logger *zap.Logger) (*gorm.DB, error) {
	path := cfg.Path
	if path == "" {
		path = "mealmind.db"
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	logger.Info("database ready", zap.String("path", path))
	return db, nil
}
