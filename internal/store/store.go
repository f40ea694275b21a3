// Package store runs structured operations against the user store.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"shop-assistant/internal/models"
)

var (
	// ErrInvalidQuery marks operations rejected before reaching the backend.
	ErrInvalidQuery = errors.New("INVALID_QUERY")
	ErrQueryFailed  = errors.New("STORE_QUERY_FAILED")
)

// Store is a queryable collection with find, count and aggregate primitives.
type Store interface {
	Find(ctx context.Context, q Query) ([]models.Record, error)
	FindOne(ctx context.Context, q Query) (models.Record, error)
	Count(ctx context.Context, filters map[string]interface{}) (int64, error)
	Aggregate(ctx context.Context, pipeline []json.RawMessage) ([]models.Record, error)
	Ping(ctx context.Context) error
}

// aggregate pushes a leading $match down to the backend and runs the other
// stages in memory. A lone $count after the match becomes a native count.
// Inputs larger than maxScan are rejected instead of truncated.
func aggregate(ctx context.Context, s Store, pipeline []json.RawMessage, maxScan int) ([]models.Record, error) {
	stages, err := ParsePipeline(pipeline)
	if err != nil {
		return nil, err
	}
	match, rest := SplitPushdown(stages)

	if len(rest) == 1 && rest[0].Op == "$count" {
		n, err := s.Count(ctx, match)
		if err != nil {
			return nil, err
		}
		return []models.Record{{rest[0].CountField: int(n)}}, nil
	}

	records, err := s.Find(ctx, Query{Filters: match, Limit: maxScan + 1})
	if err != nil {
		return nil, err
	}
	if len(records) > maxScan {
		return nil, invalidf("aggregate input exceeds %d records, add a $match stage to narrow it", maxScan)
	}
	return RunPipeline(records, rest)
}

// scanLimit clamps a requested limit to the scan ceiling. aggregate asks for
// one row past the ceiling to detect overflow.
func scanLimit(requested, maxScan int) int {
	if requested <= 0 || requested > maxScan+1 {
		return maxScan
	}
	return requested
}

// Query is a find request. Skip is applied before Limit; Limit 0 means the
// backend's scan ceiling.
type Query struct {
	Filters map[string]interface{}
	Fields  []string
	Sort    models.SortSpec
	Skip    int
	Limit   int
}

// FieldType drives argument coercion and row decoding.
type FieldType int

const (
	TypeString FieldType = iota
	TypeNumber
	TypeBool
	TypeTime
)

// Field maps a record key to its backend column.
type Field struct {
	Name   string
	Column string
	Type   FieldType
	Hidden bool
}

// Schema describes the queryable fields of a collection. Hidden fields are
// never filterable, sortable or projected.
type Schema struct {
	Collection string
	fields     []Field
	byName     map[string]Field
}

func NewSchema(collection string, fields ...Field) *Schema {
	s := &Schema{
		Collection: collection,
		fields:     fields,
		byName:     make(map[string]Field, len(fields)*2),
	}
	for _, f := range fields {
		s.byName[f.Name] = f
		s.byName[f.Column] = f
	}
	return s
}

// UsersSchema is the users collection as seen by prompt queries.
func UsersSchema(collection string) *Schema {
	return NewSchema(collection,
		Field{Name: "id", Column: "id", Type: TypeString},
		Field{Name: "firstName", Column: "first_name", Type: TypeString},
		Field{Name: "lastName", Column: "last_name", Type: TypeString},
		Field{Name: "email", Column: "email", Type: TypeString},
		Field{Name: "phoneNumber", Column: "phone_number", Type: TypeString},
		Field{Name: "totalSpent", Column: "total_spent", Type: TypeNumber},
		Field{Name: "role", Column: "role", Type: TypeString},
		Field{Name: "createdAt", Column: "created_at", Type: TypeTime},
		Field{Name: "passwordHash", Column: "password_hash", Type: TypeString, Hidden: true},
	)
}

// Lookup resolves a record key, column name or "_id" to a visible field.
func (s *Schema) Lookup(name string) (Field, bool) {
	if name == "_id" {
		name = "id"
	}
	f, ok := s.byName[name]
	if !ok || f.Hidden {
		return Field{}, false
	}
	return f, true
}

// Visible returns every non-hidden field in declaration order.
func (s *Schema) Visible() []Field {
	out := make([]Field, 0, len(s.fields))
	for _, f := range s.fields {
		if !f.Hidden {
			out = append(out, f)
		}
	}
	return out
}

// Projection resolves requested fields, always leading with the id field.
func (s *Schema) Projection(names []string) ([]Field, error) {
	if len(names) == 0 {
		return s.Visible(), nil
	}

	idField, _ := s.Lookup("id")
	out := []Field{idField}
	seen := map[string]bool{idField.Name: true}
	for _, name := range names {
		f, ok := s.Lookup(name)
		if !ok {
			return nil, invalidf("unknown field %q", name)
		}
		if seen[f.Name] {
			continue
		}
		seen[f.Name] = true
		out = append(out, f)
	}
	return out, nil
}

func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidQuery, fmt.Sprintf(format, args...))
}
