// Package records describes the record store the badge lookup reads from: a
// spreadsheet-style database with named tables of loosely typed rows.
package records

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
)

// ErrNotFound is returned by Find when the id does not name a record in the
// table, including ids that are not a valid record id shape.
var ErrNotFound = errors.New("record not found")

// Store is the read-only surface of a record store.
type Store interface {
	Select(ctx context.Context, table string, query Query) ([]Record, error)
	Find(ctx context.Context, table, id string) (Record, error)
}

type Record struct {
	ID          string         `json:"id"`
	CreatedTime time.Time      `json:"createdTime"`
	Fields      map[string]any `json:"fields"`
}

// Value returns the raw value of a field, or nil when the field is absent.
func (r Record) Value(field string) any {
	if field == "" || r.Fields == nil {
		return nil
	}
	return r.Fields[field]
}

// String coerces a field to a string. Numbers are formatted without trailing
// zeros and lists yield their first element.
func (r Record) String(field string) string {
	return toString(r.Value(field))
}

// Strings returns a list field as strings. A scalar is returned as a single
// element list.
func (r Record) Strings(field string) []string {
	switch v := r.Value(field).(type) {
	case nil:
		return nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s := toString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return v
	default:
		if s := toString(v); s != "" {
			return []string{s}
		}
		return nil
	}
}

func toString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case []any:
		if len(val) == 0 {
			return ""
		}
		return toString(val[0])
	case []string:
		if len(val) == 0 {
			return ""
		}
		return val[0]
	default:
		return ""
	}
}

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

type Sort struct {
	Field     string
	Direction Direction
}

// Condition matches rows whose field equals Value.
type Condition struct {
	Field string
	Value string
}

// Filter is a conjunction of conditions.
type Filter []Condition

// Formula renders the filter as an Airtable formula.
func (f Filter) Formula() string {
	parts := make([]string, 0, len(f))
	for _, c := range f {
		parts = append(parts, "{"+c.Field+"} = '"+escapeFormula(c.Value)+"'")
	}
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return "AND(" + strings.Join(parts, ",") + ")"
	}
}

var formulaEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func escapeFormula(s string) string {
	return formulaEscaper.Replace(s)
}

type Query struct {
	Filter     Filter
	Sort       []Sort
	MaxRecords int
}
