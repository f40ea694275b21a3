package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// OperationKind selects the store primitive a StructuredOperation runs.
type OperationKind string

const (
	OperationFind      OperationKind = "FIND"
	OperationFindOne   OperationKind = "FIND_ONE"
	OperationCount     OperationKind = "COUNT"
	OperationAggregate OperationKind = "AGGREGATE"
)

var (
	ErrUnsupportedOperation = errors.New("UNSUPPORTED_OPERATION")
	ErrEmptyPipeline        = errors.New("aggregate pipeline is required for AGGREGATE operation")
	ErrInvalidLimit         = errors.New("limit must be a positive integer")
	ErrInvalidSkip          = errors.New("skip must be a non-negative integer")
)

// StructuredOperation is the compiled form of a structured-store prompt.
type StructuredOperation struct {
	Operation OperationKind          `json:"operation"`
	Limit     *int                   `json:"limit,omitempty"`
	Skip      *int                   `json:"skip,omitempty"`
	Filters   map[string]interface{} `json:"filters,omitempty"`
	Fields    []string               `json:"fields,omitempty"`
	Sort      SortSpec               `json:"sort,omitempty"`
	Aggregate []json.RawMessage      `json:"aggregate,omitempty"`
}

// Validate enforces that exactly one operation governs the optional fields.
func (o *StructuredOperation) Validate() error {
	switch o.Operation {
	case OperationFind, OperationFindOne, OperationCount:
	case OperationAggregate:
		if len(o.Aggregate) == 0 {
			return ErrEmptyPipeline
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedOperation, o.Operation)
	}
	if o.Limit != nil && *o.Limit < 1 {
		return ErrInvalidLimit
	}
	if o.Skip != nil && *o.Skip < 0 {
		return ErrInvalidSkip
	}
	return nil
}

// LimitOr returns the limit, or def when unset.
func (o *StructuredOperation) LimitOr(def int) int {
	if o.Limit == nil {
		return def
	}
	return *o.Limit
}

// SkipOr returns the skip, or def when unset.
func (o *StructuredOperation) SkipOr(def int) int {
	if o.Skip == nil {
		return def
	}
	return *o.Skip
}

// SortField is one key of a sort specification. Direction is 1 or -1.
type SortField struct {
	Field     string
	Direction int
}

// SortSpec keeps sort keys in the order they were written.
type SortSpec []SortField

func (s *SortSpec) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("sort must be an object")
	}

	var out SortSpec
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)

		var raw interface{}
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		dir, err := ParseDirection(raw)
		if err != nil {
			return fmt.Errorf("sort %q: %w", key, err)
		}
		out = append(out, SortField{Field: key, Direction: dir})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*s = out
	return nil
}

func (s SortSpec) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Field)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		fmt.Fprintf(&buf, ":%d", f.Direction)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ParseDirection accepts 1, -1, "asc", "desc", "ascending" and "descending".
func ParseDirection(v interface{}) (int, error) {
	switch d := v.(type) {
	case json.Number:
		n, err := d.Int64()
		if err != nil {
			return 0, fmt.Errorf("invalid direction %s", d)
		}
		return ParseDirection(int(n))
	case float64:
		return ParseDirection(int(d))
	case int:
		if d == 1 || d == -1 {
			return d, nil
		}
	case string:
		switch strings.ToLower(d) {
		case "asc", "ascending", "1":
			return 1, nil
		case "desc", "descending", "-1":
			return -1, nil
		}
	}
	return 0, fmt.Errorf("invalid direction %v", v)
}
