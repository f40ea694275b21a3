package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"shop-assistant/internal/models"
)

// Stage is one parsed aggregation stage.
type Stage struct {
	Op         string
	MatchRaw   map[string]interface{}
	Match      *Filter
	Group      *GroupSpec
	Sort       models.SortSpec
	N          int
	Project    []Projection
	CountField string
}

// GroupSpec groups records by ID and folds each group with Accumulators.
// ID is nil, a "$field" reference, or a map of output keys to references.
type GroupSpec struct {
	ID           interface{}
	Accumulators []Accumulator
}

// Accumulator computes one output field of a group.
type Accumulator struct {
	Field string
	Op    string
	Expr  interface{}
}

// Projection keeps, drops or renames one field.
type Projection struct {
	Field   string
	Include bool
	Expr    string
}

var accumulators = map[string]bool{
	"$sum": true, "$avg": true, "$min": true, "$max": true,
	"$first": true, "$last": true, "$push": true,
}

// ParsePipeline parses aggregation stages. Unsupported stages are rejected.
func ParsePipeline(raw []json.RawMessage) ([]Stage, error) {
	if len(raw) == 0 {
		return nil, invalidf("aggregate pipeline is empty")
	}

	stages := make([]Stage, 0, len(raw))
	for i, item := range raw {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(item, &obj); err != nil {
			return nil, invalidf("stage %d: %v", i, err)
		}
		if len(obj) != 1 {
			return nil, invalidf("stage %d must have exactly one operator", i)
		}
		for op, body := range obj {
			stage, err := parseStage(op, body)
			if err != nil {
				return nil, fmt.Errorf("stage %d: %w", i, err)
			}
			stages = append(stages, stage)
		}
	}
	return stages, nil
}

func parseStage(op string, body json.RawMessage) (Stage, error) {
	stage := Stage{Op: op}
	switch op {
	case "$match":
		var m map[string]interface{}
		if err := json.Unmarshal(body, &m); err != nil {
			return stage, invalidf("$match expects an object")
		}
		f, err := ParseFilter(m, nil)
		if err != nil {
			return stage, err
		}
		stage.MatchRaw = m
		stage.Match = f
	case "$group":
		g, err := parseGroup(body)
		if err != nil {
			return stage, err
		}
		stage.Group = g
	case "$sort":
		if err := json.Unmarshal(body, &stage.Sort); err != nil {
			return stage, invalidf("$sort: %v", err)
		}
		if len(stage.Sort) == 0 {
			return stage, invalidf("$sort needs at least one key")
		}
	case "$limit", "$skip":
		var n float64
		if err := json.Unmarshal(body, &n); err != nil {
			return stage, invalidf("%s expects a number", op)
		}
		if n != float64(int(n)) || n < 0 || (op == "$limit" && n == 0) {
			return stage, invalidf("%s has invalid value %v", op, n)
		}
		stage.N = int(n)
	case "$project":
		p, err := parseProject(body)
		if err != nil {
			return stage, err
		}
		stage.Project = p
	case "$count":
		if err := json.Unmarshal(body, &stage.CountField); err != nil || stage.CountField == "" {
			return stage, invalidf("$count expects a field name")
		}
	default:
		return stage, invalidf("unsupported stage %q", op)
	}
	return stage, nil
}

func parseGroup(body json.RawMessage) (*GroupSpec, error) {
	var m map[string]interface{}
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, invalidf("$group expects an object")
	}
	id, ok := m["_id"]
	if !ok {
		return nil, invalidf("$group requires _id")
	}

	g := &GroupSpec{ID: id}
	for _, field := range sortedKeys(m) {
		if field == "_id" {
			continue
		}
		spec, ok := m[field].(map[string]interface{})
		if !ok || len(spec) != 1 {
			return nil, invalidf("$group field %q needs one accumulator", field)
		}
		for op, expr := range spec {
			if !accumulators[op] {
				return nil, invalidf("$group field %q: unsupported accumulator %q", field, op)
			}
			g.Accumulators = append(g.Accumulators, Accumulator{Field: field, Op: op, Expr: expr})
		}
	}
	return g, nil
}

func parseProject(body json.RawMessage) ([]Projection, error) {
	var m map[string]interface{}
	if err := json.Unmarshal(body, &m); err != nil || len(m) == 0 {
		return nil, invalidf("$project expects a non-empty object")
	}

	var out []Projection
	inclusive, exclusive := false, false
	for _, field := range sortedKeys(m) {
		p := Projection{Field: field}
		switch v := m[field].(type) {
		case bool:
			p.Include = v
		case float64:
			p.Include = v != 0
		case string:
			if !strings.HasPrefix(v, "$") {
				return nil, invalidf("$project field %q: expected a $field reference", field)
			}
			p.Include = true
			p.Expr = strings.TrimPrefix(v, "$")
		default:
			return nil, invalidf("$project field %q: unsupported value", field)
		}
		if field != "_id" {
			if p.Include {
				inclusive = true
			} else {
				exclusive = true
			}
		}
		out = append(out, p)
	}
	if inclusive && exclusive {
		return nil, invalidf("$project cannot mix inclusion and exclusion")
	}
	return out, nil
}

// RunPipeline evaluates stages over records in order.
func RunPipeline(records []models.Record, stages []Stage) ([]models.Record, error) {
	out := records
	for _, stage := range stages {
		switch stage.Op {
		case "$match":
			filtered := make([]models.Record, 0, len(out))
			for _, rec := range out {
				if stage.Match.Match(rec) {
					filtered = append(filtered, rec)
				}
			}
			out = filtered
		case "$group":
			out = runGroup(out, stage.Group)
		case "$sort":
			out = sortRecords(out, stage.Sort)
		case "$skip":
			if stage.N >= len(out) {
				out = []models.Record{}
			} else {
				out = out[stage.N:]
			}
		case "$limit":
			if stage.N < len(out) {
				out = out[:stage.N]
			}
		case "$project":
			out = runProject(out, stage.Project)
		case "$count":
			out = []models.Record{{stage.CountField: len(out)}}
		default:
			return nil, invalidf("unsupported stage %q", stage.Op)
		}
	}
	return out, nil
}

// SplitPushdown separates a leading $match, which backends can evaluate
// natively, from the stages that must run in memory.
func SplitPushdown(stages []Stage) (map[string]interface{}, []Stage) {
	if len(stages) > 0 && stages[0].Op == "$match" {
		return stages[0].MatchRaw, stages[1:]
	}
	return nil, stages
}

func evalExpr(rec models.Record, expr interface{}) interface{} {
	switch e := expr.(type) {
	case string:
		if strings.HasPrefix(e, "$") {
			v, _ := lookupPath(rec, strings.TrimPrefix(e, "$"))
			return v
		}
		return e
	case map[string]interface{}:
		out := make(map[string]interface{}, len(e))
		for k, sub := range e {
			out[k] = evalExpr(rec, sub)
		}
		return out
	}
	return expr
}

type groupState struct {
	id     interface{}
	sums   map[string]float64
	counts map[string]int
	values map[string]interface{}
	pushed map[string][]interface{}
}

func runGroup(records []models.Record, spec *GroupSpec) []models.Record {
	var order []string
	groups := make(map[string]*groupState)

	for _, rec := range records {
		id := evalExpr(rec, spec.ID)
		keyBytes, _ := json.Marshal(id)
		key := string(keyBytes)

		st, ok := groups[key]
		if !ok {
			st = &groupState{
				id:     id,
				sums:   map[string]float64{},
				counts: map[string]int{},
				values: map[string]interface{}{},
				pushed: map[string][]interface{}{},
			}
			groups[key] = st
			order = append(order, key)
		}

		for _, acc := range spec.Accumulators {
			v := evalExpr(rec, acc.Expr)
			switch acc.Op {
			case "$sum", "$avg":
				if f, ok := toFloat(v); ok {
					st.sums[acc.Field] += f
					st.counts[acc.Field]++
				}
			case "$min", "$max":
				if v == nil {
					continue
				}
				cur, seen := st.values[acc.Field]
				if !seen {
					st.values[acc.Field] = v
					continue
				}
				if cmp, ok := compareValues(v, cur); ok {
					if (acc.Op == "$min" && cmp < 0) || (acc.Op == "$max" && cmp > 0) {
						st.values[acc.Field] = v
					}
				}
			case "$first":
				if _, seen := st.values[acc.Field]; !seen {
					st.values[acc.Field] = v
				}
			case "$last":
				st.values[acc.Field] = v
			case "$push":
				st.pushed[acc.Field] = append(st.pushed[acc.Field], v)
			}
		}
	}

	out := make([]models.Record, 0, len(order))
	for _, key := range order {
		st := groups[key]
		rec := models.Record{"_id": st.id}
		for _, acc := range spec.Accumulators {
			switch acc.Op {
			case "$sum":
				rec[acc.Field] = st.sums[acc.Field]
			case "$avg":
				if n := st.counts[acc.Field]; n > 0 {
					rec[acc.Field] = st.sums[acc.Field] / float64(n)
				} else {
					rec[acc.Field] = nil
				}
			case "$push":
				rec[acc.Field] = st.pushed[acc.Field]
			default:
				rec[acc.Field] = st.values[acc.Field]
			}
		}
		out = append(out, rec)
	}
	return out
}

func sortRecords(records []models.Record, spec models.SortSpec) []models.Record {
	out := append([]models.Record(nil), records...)
	sort.SliceStable(out, func(i, j int) bool {
		for _, key := range spec {
			a, _ := lookupPath(out[i], key.Field)
			b, _ := lookupPath(out[j], key.Field)
			cmp := compareForSort(a, b)
			if cmp == 0 {
				continue
			}
			return cmp*key.Direction < 0
		}
		return false
	})
	return out
}

// compareForSort orders missing values first.
func compareForSort(a, b interface{}) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	cmp, _ := compareValues(a, b)
	return cmp
}

func runProject(records []models.Record, projection []Projection) []models.Record {
	inclusive := false
	for _, p := range projection {
		if p.Field != "_id" && p.Include {
			inclusive = true
		}
	}

	out := make([]models.Record, 0, len(records))
	for _, rec := range records {
		var next models.Record
		if inclusive {
			next = models.Record{}
			if v, ok := rec["_id"]; ok {
				next["_id"] = v
			}
			for _, p := range projection {
				if !p.Include {
					delete(next, p.Field)
					continue
				}
				src := p.Field
				if p.Expr != "" {
					src = p.Expr
				}
				if v, ok := lookupPath(rec, src); ok {
					next[p.Field] = v
				}
			}
		} else {
			next = make(models.Record, len(rec))
			for k, v := range rec {
				next[k] = v
			}
			for _, p := range projection {
				delete(next, p.Field)
			}
		}
		out = append(out, next)
	}
	return out
}
