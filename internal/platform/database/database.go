package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"research-assistant/internal/config"
	"research-assistant/internal/model"
)

// Open connects to DATABASE_URL through the MySQL driver when it is set and
// falls back to the embedded SQLite file otherwise. The schema is migrated
// before returning.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*gorm.DB, string, error) {
	var (
		db     *gorm.DB
		driver string
		err    error
	)
	if cfg.URL != "" {
		driver = "mysql"
		db, err = openMySQL(ctx, cfg.URL)
	} else {
		driver = "sqlite"
		db, err = openSQLite(cfg.SQLitePath)
	}
	if err != nil {
		return nil, "", err
	}
	if err := Migrate(db); err != nil {
		return nil, "", err
	}
	return db, driver, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Document{},
		&model.Conversation{},
		&model.ConversationDocument{},
		&model.Chunk{},
		&model.EventRecord{},
	); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	return nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
