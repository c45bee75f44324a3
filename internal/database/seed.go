package database

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gdg-garage/badge-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeedRecord is one row of a seed file.
type SeedRecord struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// Seed maps table names to their rows.
type Seed map[string][]SeedRecord

// SeedFile loads a JSON seed file of the form
// {"Badges": [{"id": "rec1", "fields": {...}}]} into the store.
func SeedFile(db *gorm.DB, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("failed to decode seed file %s: %w", path, err)
	}
	return Load(db, seed)
}

// Load upserts the seed rows in a single transaction.
func Load(db *gorm.DB, seed Seed) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for table, rows := range seed {
			for _, row := range rows {
				if row.ID == "" {
					return fmt.Errorf("seed row in %s has no id", table)
				}
				fields, err := json.Marshal(row.Fields)
				if err != nil {
					return fmt.Errorf("failed to encode fields of %s: %w", row.ID, err)
				}
				if row.Fields == nil {
					fields = []byte("{}")
				}

				rec := models.Record{ID: row.ID, Collection: table, Fields: string(fields)}
				if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&rec).Error; err != nil {
					return fmt.Errorf("failed to seed %s: %w", row.ID, err)
				}
			}
		}
		return nil
	})
}
