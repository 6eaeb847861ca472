package driver

import (
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/db"
)

func TestTypeConversionError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *TypeConversionError
		expected string
	}{
		{
			name:     "with field",
			err:      NewTypeConversionError("int64", "string", "count"),
			expected: `type conversion error for field "count": expected int64, got string`,
		},
		{
			name:     "without field",
			err:      NewTypeConversionError("[]*db.Record", "nil", ""),
			expected: "type conversion error: expected []*db.Record, got nil",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestAsString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  any
		want   string
		wantOK bool
	}{
		{"valid string", "hello", "hello", true},
		{"empty string", "", "", true},
		{"nil", nil, "", false},
		{"int", 42, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := AsString(tt.input)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("AsString() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestAsFloat64(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  any
		want   float64
		wantOK bool
	}{
		{"float64", 0.82, 0.82, true},
		{"float32", float32(0.5), 0.5, true},
		{"int64", int64(3), 3, true},
		{"int32", int32(2), 2, true},
		{"string", "1.0", 0, false},
		{"nil", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := AsFloat64(tt.input)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("AsFloat64() = (%v, %v), want (%v, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestMustInt64(t *testing.T) {
	t.Parallel()

	got, err := MustInt64(int64(7), "count")
	if err != nil || got != 7 {
		t.Errorf("MustInt64() = (%d, %v), want (7, nil)", got, err)
	}

	if _, err := MustInt64("7", "count"); err == nil {
		t.Error("expected error for string input")
	}
}

func TestMustRecordSlice(t *testing.T) {
	t.Parallel()

	records := []*db.Record{{Keys: []string{"id"}, Values: []any{"a"}}}
	got, err := MustRecordSlice(records, "hits")
	if err != nil || len(got) != 1 {
		t.Errorf("MustRecordSlice() = (%v, %v)", got, err)
	}

	if _, err := MustRecordSlice(nil, "hits"); err == nil {
		t.Error("expected error for nil input")
	}
}

func TestHitFromRecord(t *testing.T) {
	t.Parallel()

	record := &db.Record{
		Keys:   []string{"id", "title", "category", "content", "knowledge_base_name", "score"},
		Values: []any{"Mammals:Entry:Lion", "Lion", "Big cat", "Lions live in prides.", "Mammals", 0.82},
	}

	hit := hitFromRow(recordGetter(record))
	if hit.ID != "Mammals:Entry:Lion" || hit.Title != "Lion" || hit.KnowledgeBaseName != "Mammals" {
		t.Errorf("unexpected hit %+v", hit)
	}
	if hit.Score != 0.82 {
		t.Errorf("Score = %v, want 0.82", hit.Score)
	}
	if hit.Distance != 0 {
		t.Errorf("Distance = %d, want 0", hit.Distance)
	}
}

func TestHitFromMapRow(t *testing.T) {
	t.Parallel()

	row := map[string]any{
		"id":                  "Mammals:Entry:Hyena",
		"title":               "Hyena",
		"knowledge_base_name": "Mammals",
		"distance":            int64(1),
	}

	hit := hitFromRow(mapGetter(row))
	if hit.Title != "Hyena" || hit.Distance != 1 {
		t.Errorf("unexpected hit %+v", hit)
	}
	if hit.Category != "" || hit.Score != 0 {
		t.Errorf("missing columns should be zero values, got %+v", hit)
	}
}
