package models

import (
	"time"
)

// Record is a row of the local SQLite record store. Collection holds the
// table name and Fields the JSON-encoded field map.
type Record struct {
	ID         string `gorm:"primaryKey"`
	Collection string `gorm:"index;not null"`
	Fields     string `gorm:"type:text;not null;default:'{}'"`
	CreatedAt  time.Time
}
