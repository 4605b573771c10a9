package database

import (
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// OpenInMemory opens a private shared-cache in-memory SQLite database.
// A single connection is used so every statement sees the same database.
func OpenInMemory(name string, models ...interface{}) (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.NewReplacer("/", "_", " ", "_").Replace(name))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         NewLogger("silent", 0),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open in-memory sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			return nil, fmt.Errorf("migrate in-memory sqlite: %w", err)
		}
	}
	return db, nil
}
