package config

import (
	"errors"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yoockh/yooassist/internal/models"
)

// InitPostgres opens the archive database and migrates conversation_logs.
// The pgvector extension must already be installed.
func InitPostgres(cfg PostgresConfig) (*gorm.DB, error) {
	if cfg.URI == "" {
		return nil, errors.New("postgres uri is not set")
	}
	db, err := gorm.Open(postgres.Open(cfg.URI), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&models.ConversationLog{}); err != nil {
		return nil, err
	}
	return db, nil
}
