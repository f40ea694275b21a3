package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"shop-assistant/internal/common/logger"
	"shop-assistant/internal/models"
)

// PostgresStore serves structured operations from a SQL table.
type PostgresStore struct {
	db      *sql.DB
	schema  *Schema
	maxScan int
	logger  logger.Logger
}

func NewPostgresStore(db *sql.DB, schema *Schema, maxScan int, log logger.Logger) *PostgresStore {
	return &PostgresStore{
		db:      db,
		schema:  schema,
		maxScan: maxScan,
		logger:  log.WithFields(map[string]interface{}{"store": "postgres", "table": schema.Collection}),
	}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Find(ctx context.Context, q Query) ([]models.Record, error) {
	query, args, fields, err := s.buildSelect(q)
	if err != nil {
		return nil, err
	}
	return s.queryRecords(ctx, query, args, fields)
}

func (s *PostgresStore) FindOne(ctx context.Context, q Query) (models.Record, error) {
	q.Limit = 1
	records, err := s.Find(ctx, q)
	if err != nil || len(records) == 0 {
		return nil, err
	}
	return records[0], nil
}

func (s *PostgresStore) Count(ctx context.Context, filters map[string]interface{}) (int64, error) {
	f, err := ParseFilter(filters, s.schema)
	if err != nil {
		return 0, err
	}
	b := &sqlBuilder{schema: s.schema}
	where, err := b.where(f)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", s.schema.Collection)
	if where != "" {
		query += " WHERE " + where
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, query, b.args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: count: %v", ErrQueryFailed, err)
	}
	return count, nil
}

func (s *PostgresStore) Aggregate(ctx context.Context, pipeline []json.RawMessage) ([]models.Record, error) {
	return aggregate(ctx, s, pipeline, s.maxScan)
}

func (s *PostgresStore) buildSelect(q Query) (string, []interface{}, []Field, error) {
	fields, err := s.schema.Projection(q.Fields)
	if err != nil {
		return "", nil, nil, err
	}
	f, err := ParseFilter(q.Filters, s.schema)
	if err != nil {
		return "", nil, nil, err
	}

	b := &sqlBuilder{schema: s.schema}
	where, err := b.where(f)
	if err != nil {
		return "", nil, nil, err
	}

	cols := make([]string, len(fields))
	for i, field := range fields {
		cols[i] = field.Column
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s", strings.Join(cols, ", "), s.schema.Collection)
	if where != "" {
		sb.WriteString(" WHERE " + where)
	}
	if len(q.Sort) > 0 {
		order := make([]string, 0, len(q.Sort))
		for _, key := range q.Sort {
			field, ok := s.schema.Lookup(key.Field)
			if !ok {
				return "", nil, nil, invalidf("unknown sort field %q", key.Field)
			}
			dir := "ASC"
			if key.Direction < 0 {
				dir = "DESC"
			}
			order = append(order, field.Column+" "+dir)
		}
		sb.WriteString(" ORDER BY " + strings.Join(order, ", "))
	}

	fmt.Fprintf(&sb, " LIMIT %d", scanLimit(q.Limit, s.maxScan))
	if q.Skip > 0 {
		fmt.Fprintf(&sb, " OFFSET %d", q.Skip)
	}

	return sb.String(), b.args, fields, nil
}

func (s *PostgresStore) queryRecords(ctx context.Context, query string, args []interface{}, fields []Field) ([]models.Record, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	defer rows.Close()

	var records []models.Record
	for rows.Next() {
		values := make([]interface{}, len(fields))
		ptrs := make([]interface{}, len(fields))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", ErrQueryFailed, err)
		}

		rec := make(models.Record, len(fields))
		for i, field := range fields {
			rec[field.Name] = decodeColumn(field, values[i])
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}

	s.logger.Debug("query executed", map[string]interface{}{
		"rows":       len(records),
		"durationMs": time.Since(start).Milliseconds(),
	})
	return records, nil
}

func decodeColumn(field Field, v interface{}) interface{} {
	switch t := v.(type) {
	case nil:
		return nil
	case []byte:
		if field.Type == TypeNumber {
			if f, err := strconv.ParseFloat(string(t), 64); err == nil {
				return f
			}
		}
		return string(t)
	case int64:
		if field.Type == TypeNumber {
			return float64(t)
		}
		return t
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	}
	return v
}

// sqlBuilder renders filters as a parameterized WHERE clause.
type sqlBuilder struct {
	schema *Schema
	args   []interface{}
}

func (b *sqlBuilder) bind(v interface{}) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

func (b *sqlBuilder) where(f *Filter) (string, error) {
	if f.Empty() {
		return "", nil
	}

	var parts []string
	for _, c := range f.Conditions {
		clause, err := b.condition(c)
		if err != nil {
			return "", err
		}
		parts = append(parts, clause)
	}
	for _, sub := range f.And {
		clause, err := b.where(sub)
		if err != nil {
			return "", err
		}
		if clause != "" {
			parts = append(parts, "("+clause+")")
		}
	}
	if len(f.Or) > 0 {
		branches := make([]string, 0, len(f.Or))
		for _, sub := range f.Or {
			clause, err := b.where(sub)
			if err != nil {
				return "", err
			}
			if clause == "" {
				clause = "TRUE"
			}
			branches = append(branches, "("+clause+")")
		}
		parts = append(parts, "("+strings.Join(branches, " OR ")+")")
	}
	return strings.Join(parts, " AND "), nil
}

var comparisonSQL = map[string]string{
	"$eq":  "=",
	"$ne":  "IS DISTINCT FROM",
	"$gt":  ">",
	"$gte": ">=",
	"$lt":  "<",
	"$lte": "<=",
}

func (b *sqlBuilder) condition(c Condition) (string, error) {
	field, ok := b.schema.Lookup(c.Field)
	if !ok {
		return "", invalidf("unknown field %q", c.Field)
	}
	col := field.Column

	switch c.Op {
	case "$eq", "$ne", "$gt", "$gte", "$lt", "$lte":
		if c.Value == nil {
			switch c.Op {
			case "$eq":
				return col + " IS NULL", nil
			case "$ne":
				return col + " IS NOT NULL", nil
			}
			return "", invalidf("field %q: %s needs a value", c.Field, c.Op)
		}
		arg, err := coerceArg(field, c.Value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s %s", col, comparisonSQL[c.Op], b.bind(arg)), nil
	case "$in", "$nin":
		items := c.Value.([]interface{})
		if len(items) == 0 {
			if c.Op == "$in" {
				return "FALSE", nil
			}
			return "TRUE", nil
		}
		placeholders := make([]string, 0, len(items))
		for _, item := range items {
			arg, err := coerceArg(field, item)
			if err != nil {
				return "", err
			}
			placeholders = append(placeholders, b.bind(arg))
		}
		op := "IN"
		if c.Op == "$nin" {
			op = "NOT IN"
		}
		return fmt.Sprintf("%s %s (%s)", col, op, strings.Join(placeholders, ", ")), nil
	case "$regex":
		op := "~"
		if strings.Contains(c.Options, "i") {
			op = "~*"
		}
		if field.Type != TypeString {
			col += "::text"
		}
		return fmt.Sprintf("%s %s %s", col, op, b.bind(c.Value)), nil
	case "$exists":
		if c.Value.(bool) {
			return col + " IS NOT NULL", nil
		}
		return col + " IS NULL", nil
	}
	return "", invalidf("unsupported operator %q", c.Op)
}

func coerceArg(field Field, v interface{}) (interface{}, error) {
	switch field.Type {
	case TypeNumber:
		if f, ok := toFloat(v); ok {
			return f, nil
		}
		if s, ok := v.(string); ok {
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return f, nil
			}
		}
		return nil, invalidf("field %q expects a number", field.Name)
	case TypeBool:
		if bv, ok := v.(bool); ok {
			return bv, nil
		}
		return nil, invalidf("field %q expects a boolean", field.Name)
	default:
		switch t := v.(type) {
		case string:
			return t, nil
		case float64, bool:
			return fmt.Sprint(t), nil
		}
		return nil, invalidf("field %q expects a scalar", field.Name)
	}
}
