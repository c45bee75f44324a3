package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gdg-garage/badge-api/internal/models"
	"github.com/gdg-garage/badge-api/internal/records"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store serves records.Store from the local SQLite database. Fields are
// matched and ordered with json_extract.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Select(ctx context.Context, table string, q records.Query) ([]records.Record, error) {
	tx := s.db.WithContext(ctx).Where("collection = ?", table)
	for _, c := range q.Filter {
		tx = tx.Where("json_extract(fields, ?) = ?", jsonPath(c.Field), c.Value)
	}

	// Rows tie on created_at then id, which stands in for Airtable's view order.
	terms := make([]string, 0, len(q.Sort)+2)
	vars := make([]any, 0, len(q.Sort))
	for _, srt := range q.Sort {
		dir := "ASC"
		if srt.Direction == records.Desc {
			dir = "DESC"
		}
		terms = append(terms, "json_extract(fields, ?) "+dir)
		vars = append(vars, jsonPath(srt.Field))
	}
	terms = append(terms, "created_at", "id")
	tx = tx.Clauses(clause.OrderBy{Expression: clause.Expr{
		SQL:                strings.Join(terms, ", "),
		Vars:               vars,
		WithoutParentheses: true,
	}})

	if q.MaxRecords > 0 {
		tx = tx.Limit(q.MaxRecords)
	}

	var rows []models.Record
	if err := tx.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to select from %s: %w", table, err)
	}

	out := make([]records.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := toRecord(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *Store) Find(ctx context.Context, table, id string) (records.Record, error) {
	var row models.Record
	err := s.db.WithContext(ctx).Where("collection = ? AND id = ?", table, id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return records.Record{}, fmt.Errorf("%w: %s/%s", records.ErrNotFound, table, id)
	}
	if err != nil {
		return records.Record{}, fmt.Errorf("failed to find %s/%s: %w", table, id, err)
	}
	return toRecord(row)
}

func toRecord(row models.Record) (records.Record, error) {
	fields := map[string]any{}
	if row.Fields != "" {
		if err := json.Unmarshal([]byte(row.Fields), &fields); err != nil {
			return records.Record{}, fmt.Errorf("record %s has malformed fields: %w", row.ID, err)
		}
	}
	return records.Record{ID: row.ID, CreatedTime: row.CreatedAt, Fields: fields}, nil
}

// jsonPath quotes a field name as a SQLite JSON path member.
func jsonPath(field string) string {
	return `$."` + strings.ReplaceAll(field, `"`, `\"`) + `"`
}
