package records

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterFormula(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   string
	}{
		{"empty", nil, ""},
		{"single", Filter{{Field: "UserId", Value: "u1"}}, "{UserId} = 'u1'"},
		{
			"conjunction",
			Filter{{Field: "UserId", Value: "u1"}, {Field: "SessionId", Value: "s1"}},
			"AND({UserId} = 'u1',{SessionId} = 's1')",
		},
		{"quoted value", Filter{{Field: "UserId", Value: "o'brien"}}, `{UserId} = 'o\'brien'`},
		{"backslash", Filter{{Field: "UserId", Value: `a\b`}}, `{UserId} = 'a\\b'`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Formula())
		})
	}
}

func TestRecordAccessors(t *testing.T) {
	rec := Record{
		ID: "rec1",
		Fields: map[string]any{
			"Name":   "Pioneer",
			"Count":  float64(7),
			"Badge":  []any{"recA", "recB"},
			"Empty":  []any{},
			"Active": true,
		},
	}

	assert.Equal(t, "Pioneer", rec.String("Name"))
	assert.Equal(t, "7", rec.String("Count"))
	assert.Equal(t, "recA", rec.String("Badge"))
	assert.Equal(t, "", rec.String("Empty"))
	assert.Equal(t, "", rec.String("Missing"))
	assert.Equal(t, "true", rec.String("Active"))

	assert.Equal(t, []string{"recA", "recB"}, rec.Strings("Badge"))
	assert.Equal(t, []string{"Pioneer"}, rec.Strings("Name"))
	assert.Empty(t, rec.Strings("Empty"))
	assert.Nil(t, rec.Strings("Missing"))
	assert.Nil(t, rec.Value(""))
}
