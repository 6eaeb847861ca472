package driver

import (
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/db"
	"github.com/soundprediction/hybridrag/pkg/types"
)

// TypeConversionError represents an error during type conversion from database types.
type TypeConversionError struct {
	Expected string
	Actual   string
	Field    string
}

func (e *TypeConversionError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("type conversion error for field %q: expected %s, got %s", e.Field, e.Expected, e.Actual)
	}
	return fmt.Sprintf("type conversion error: expected %s, got %s", e.Expected, e.Actual)
}

// NewTypeConversionError creates a new TypeConversionError.
func NewTypeConversionError(expected, actual, field string) *TypeConversionError {
	return &TypeConversionError{
		Expected: expected,
		Actual:   actual,
		Field:    field,
	}
}

// AsRecordSlice safely converts an interface{} to []*db.Record.
func AsRecordSlice(v any) ([]*db.Record, bool) {
	if v == nil {
		return nil, false
	}
	records, ok := v.([]*db.Record)
	return records, ok
}

// AsString safely converts an interface{} to string.
func AsString(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// AsInt64 converts any integer value to int64.
// Neo4j returns int64; Ladybug returns the column's native width.
func AsInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int16:
		return int64(n), true
	case int8:
		return int64(n), true
	case int:
		return int64(n), true
	case uint64:
		return int64(n), true
	case uint32:
		return int64(n), true
	default:
		return 0, false
	}
}

// AsFloat64 converts any numeric value to float64.
func AsFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		if i, ok := AsInt64(v); ok {
			return float64(i), true
		}
		return 0, false
	}
}

// MustRecordSlice converts an interface{} to []*db.Record or returns an error.
func MustRecordSlice(v any, field string) ([]*db.Record, error) {
	records, ok := AsRecordSlice(v)
	if !ok {
		return nil, NewTypeConversionError("[]*db.Record", fmt.Sprintf("%T", v), field)
	}
	return records, nil
}

// MustInt64 converts an interface{} to int64 or returns an error.
func MustInt64(v any, field string) (int64, error) {
	i, ok := AsInt64(v)
	if !ok {
		return 0, NewTypeConversionError("int64", fmt.Sprintf("%T", v), field)
	}
	return i, nil
}

// rowGetter abstracts over neo4j records and ladybug row maps.
type rowGetter func(key string) (any, bool)

func recordGetter(record *db.Record) rowGetter {
	return record.Get
}

func mapGetter(row map[string]any) rowGetter {
	return func(key string) (any, bool) {
		v, ok := row[key]
		return v, ok
	}
}

func (g rowGetter) str(key string) string {
	v, _ := g(key)
	s, _ := AsString(v)
	return s
}

func (g rowGetter) float(key string) float64 {
	v, _ := g(key)
	f, _ := AsFloat64(v)
	return f
}

func (g rowGetter) int(key string) int {
	v, _ := g(key)
	i, _ := AsInt64(v)
	return int(i)
}

// hitFromRow reads the columns shared by every retrieval statement:
// id, title, category, content, knowledge_base_name, and optionally score and distance.
func hitFromRow(g rowGetter) types.Hit {
	return types.Hit{
		ID:                g.str("id"),
		Title:             g.str("title"),
		Category:          g.str("category"),
		Content:           g.str("content"),
		KnowledgeBaseName: g.str("knowledge_base_name"),
		Score:             g.float("score"),
		Distance:          g.int("distance"),
	}
}
