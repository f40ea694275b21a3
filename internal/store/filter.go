package store

import (
	"encoding/json"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"time"

	"shop-assistant/internal/models"
)

// Condition is a single field predicate such as {"totalSpent": {"$gte": 100}}.
type Condition struct {
	Field   string
	Op      string
	Value   interface{}
	Options string
}

// Filter is a conjunction of conditions and nested groups. A non-empty Or
// requires at least one of its branches to match.
type Filter struct {
	Conditions []Condition
	And        []*Filter
	Or         []*Filter
}

var fieldOperators = map[string]bool{
	"$eq": true, "$ne": true,
	"$gt": true, "$gte": true, "$lt": true, "$lte": true,
	"$in": true, "$nin": true,
	"$regex": true, "$exists": true,
}

// Empty reports whether the filter matches everything.
func (f *Filter) Empty() bool {
	return f == nil || (len(f.Conditions) == 0 && len(f.And) == 0 && len(f.Or) == 0)
}

// ParseFilter builds a Filter from a document-style filter map. When schema is
// non-nil every field must resolve to a visible field of it.
func ParseFilter(raw map[string]interface{}, schema *Schema) (*Filter, error) {
	f := &Filter{}
	for _, key := range sortedKeys(raw) {
		value := raw[key]
		switch key {
		case "$and", "$or":
			branches, err := parseBranches(key, value, schema)
			if err != nil {
				return nil, err
			}
			if key == "$and" {
				f.And = append(f.And, branches...)
			} else {
				f.Or = append(f.Or, branches...)
			}
		default:
			if strings.HasPrefix(key, "$") {
				return nil, invalidf("unsupported operator %q", key)
			}
			field := key
			if schema != nil {
				def, ok := schema.Lookup(key)
				if !ok {
					return nil, invalidf("unknown field %q", key)
				}
				field = def.Name
			}
			conds, err := parseConditions(field, value)
			if err != nil {
				return nil, err
			}
			f.Conditions = append(f.Conditions, conds...)
		}
	}
	return f, nil
}

func parseBranches(op string, value interface{}, schema *Schema) ([]*Filter, error) {
	items, ok := value.([]interface{})
	if !ok || len(items) == 0 {
		return nil, invalidf("%s expects a non-empty array", op)
	}
	out := make([]*Filter, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, invalidf("%s items must be objects", op)
		}
		branch, err := ParseFilter(m, schema)
		if err != nil {
			return nil, err
		}
		out = append(out, branch)
	}
	return out, nil
}

func parseConditions(field string, value interface{}) ([]Condition, error) {
	ops, ok := value.(map[string]interface{})
	if !ok || !hasOperatorKeys(ops) {
		if ok {
			return nil, invalidf("field %q: nested documents are not supported", field)
		}
		return []Condition{{Field: field, Op: "$eq", Value: value}}, nil
	}

	options, _ := ops["$options"].(string)
	var out []Condition
	for _, op := range sortedKeys(ops) {
		if op == "$options" {
			continue
		}
		if !fieldOperators[op] {
			return nil, invalidf("field %q: unsupported operator %q", field, op)
		}
		arg := ops[op]
		switch op {
		case "$in", "$nin":
			if _, ok := arg.([]interface{}); !ok {
				return nil, invalidf("field %q: %s expects an array", field, op)
			}
		case "$regex":
			pattern, ok := arg.(string)
			if !ok {
				return nil, invalidf("field %q: $regex expects a string", field)
			}
			if _, err := regexp.Compile(pattern); err != nil {
				return nil, invalidf("field %q: invalid pattern: %v", field, err)
			}
		case "$exists":
			if _, ok := arg.(bool); !ok {
				return nil, invalidf("field %q: $exists expects a boolean", field)
			}
		}
		out = append(out, Condition{Field: field, Op: op, Value: arg, Options: options})
	}
	return out, nil
}

func hasOperatorKeys(m map[string]interface{}) bool {
	if len(m) == 0 {
		return false
	}
	for k := range m {
		if !strings.HasPrefix(k, "$") {
			return false
		}
	}
	return true
}

// Match evaluates the filter against an in-memory record.
func (f *Filter) Match(rec models.Record) bool {
	if f.Empty() {
		return true
	}
	for _, c := range f.Conditions {
		if !c.match(rec) {
			return false
		}
	}
	for _, sub := range f.And {
		if !sub.Match(rec) {
			return false
		}
	}
	if len(f.Or) > 0 {
		for _, sub := range f.Or {
			if sub.Match(rec) {
				return true
			}
		}
		return false
	}
	return true
}

func (c Condition) match(rec models.Record) bool {
	v, present := lookupPath(rec, c.Field)
	switch c.Op {
	case "$eq":
		return valuesEqual(v, c.Value)
	case "$ne":
		return !valuesEqual(v, c.Value)
	case "$gt", "$gte", "$lt", "$lte":
		cmp, ok := compareValues(v, c.Value)
		if !ok {
			return false
		}
		switch c.Op {
		case "$gt":
			return cmp > 0
		case "$gte":
			return cmp >= 0
		case "$lt":
			return cmp < 0
		default:
			return cmp <= 0
		}
	case "$in", "$nin":
		found := false
		for _, candidate := range c.Value.([]interface{}) {
			if valuesEqual(v, candidate) {
				found = true
				break
			}
		}
		return found == (c.Op == "$in")
	case "$regex":
		s, ok := v.(string)
		if !ok {
			return false
		}
		re, err := compilePattern(c.Value.(string), c.Options)
		return err == nil && re.MatchString(s)
	case "$exists":
		return (present && v != nil) == c.Value.(bool)
	}
	return false
}

func compilePattern(pattern, options string) (*regexp.Regexp, error) {
	if strings.Contains(options, "i") {
		pattern = "(?i)" + pattern
	}
	return regexp.Compile(pattern)
}

// lookupPath resolves dotted paths through nested records.
func lookupPath(rec models.Record, path string) (interface{}, bool) {
	var cur interface{} = map[string]interface{}(rec)
	for _, part := range strings.Split(path, ".") {
		var m map[string]interface{}
		switch t := cur.(type) {
		case map[string]interface{}:
			m = t
		case models.Record:
			m = t
		default:
			return nil, false
		}
		next, ok := m[part]
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func toComparableString(v interface{}) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case time.Time:
		return s.UTC().Format(time.RFC3339Nano), true
	}
	return "", false
}

// compareValues orders numbers numerically and strings lexically.
func compareValues(a, b interface{}) (int, bool) {
	if af, ok := toFloat(a); ok {
		bf, ok := toFloat(b)
		if !ok {
			return 0, false
		}
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		}
		return 0, true
	}
	as, ok := toComparableString(a)
	if !ok {
		return 0, false
	}
	bs, ok := toComparableString(b)
	if !ok {
		return 0, false
	}
	return strings.Compare(as, bs), true
}

func valuesEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if cmp, ok := compareValues(a, b); ok {
		return cmp == 0
	}
	return reflect.DeepEqual(a, b)
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
