package database

import (
	"github.com/jinzhu/gorm"
	_ "github.com/lib/pq"              // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"    // SQLite driver

	"qrmenu/internal/models"
)

// Open opens the database with the given gorm dialect ("postgres" or
// "sqlite3") and migrates the schema.
func Open(dialect, dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(dialect, dsn)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the schema for all persisted entities.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.MenuItem{},
		&models.Modifier{},
		&models.ModifierOption{},
		&models.Allergen{},
		&models.DietTag{},
		&models.Category{},
		&models.Slot{},
		&models.TempOrderItem{},
		&models.TableCode{},
		&models.ChatSession{},
		&models.ChatMessage{},
		&models.MenuItemEmbedding{},
	).Error
}
