package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"shop-assistant/internal/common/logger"
	"shop-assistant/internal/models"
)

// ElasticsearchStore serves structured operations from an index whose string
// fields are mapped as keywords.
type ElasticsearchStore struct {
	client  *elasticsearch.Client
	schema  *Schema
	maxScan int
	logger  logger.Logger
}

func NewElasticsearchStore(client *elasticsearch.Client, schema *Schema, maxScan int, log logger.Logger) *ElasticsearchStore {
	return &ElasticsearchStore{
		client:  client,
		schema:  schema,
		maxScan: maxScan,
		logger:  log.WithFields(map[string]interface{}{"store": "elasticsearch", "index": schema.Collection}),
	}
}

func (s *ElasticsearchStore) Ping(ctx context.Context) error {
	res, err := esapi.PingRequest{}.Do(ctx, s.client)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch ping error: %s", res.Status())
	}
	return nil
}

// EnsureIndex creates the index with a keyword mapping when it is missing.
func (s *ElasticsearchStore) EnsureIndex(ctx context.Context) error {
	res, err := esapi.IndicesExistsRequest{Index: []string{s.schema.Collection}}.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	properties := map[string]interface{}{}
	for _, f := range s.schema.fields {
		properties[f.Name] = esMapping(f)
	}
	body, _ := json.Marshal(map[string]interface{}{
		"mappings": map[string]interface{}{"properties": properties},
	})

	res, err = esapi.IndicesCreateRequest{Index: s.schema.Collection, Body: bytes.NewReader(body)}.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("create index: %s", res.String())
	}
	s.logger.Info("index created", nil)
	return nil
}

func esMapping(f Field) map[string]interface{} {
	m := map[string]interface{}{}
	switch f.Type {
	case TypeNumber:
		m["type"] = "double"
	case TypeBool:
		m["type"] = "boolean"
	case TypeTime:
		m["type"] = "date"
	default:
		m["type"] = "keyword"
	}
	if f.Hidden {
		m["index"] = false
	}
	return m
}

// IndexRecord writes one document, keyed by its id field.
func (s *ElasticsearchStore) IndexRecord(ctx context.Context, id string, doc models.Record) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	res, err := esapi.IndexRequest{
		Index:      s.schema.Collection,
		DocumentID: id,
		Body:       bytes.NewReader(body),
		Refresh:    "true",
	}.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("%w: index: %v", ErrQueryFailed, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("%w: index: %s", ErrQueryFailed, res.String())
	}
	return nil
}

func (s *ElasticsearchStore) Find(ctx context.Context, q Query) ([]models.Record, error) {
	fields, err := s.schema.Projection(q.Fields)
	if err != nil {
		return nil, err
	}
	f, err := ParseFilter(q.Filters, s.schema)
	if err != nil {
		return nil, err
	}

	size := scanLimit(q.Limit, s.maxScan)

	includes := make([]string, len(fields))
	for i, field := range fields {
		includes[i] = field.Name
	}
	body := map[string]interface{}{
		"query":   buildESQuery(f),
		"_source": map[string]interface{}{"includes": includes, "excludes": []string{"passwordHash"}},
		"from":    q.Skip,
		"size":    size,
	}
	if len(q.Sort) > 0 {
		sorts := make([]interface{}, 0, len(q.Sort))
		for _, key := range q.Sort {
			field, ok := s.schema.Lookup(key.Field)
			if !ok {
				return nil, invalidf("unknown sort field %q", key.Field)
			}
			order := "asc"
			if key.Direction < 0 {
				order = "desc"
			}
			sorts = append(sorts, map[string]interface{}{field.Name: map[string]interface{}{"order": order}})
		}
		body["sort"] = sorts
	}

	return s.search(ctx, body)
}

func (s *ElasticsearchStore) FindOne(ctx context.Context, q Query) (models.Record, error) {
	q.Limit = 1
	records, err := s.Find(ctx, q)
	if err != nil || len(records) == 0 {
		return nil, err
	}
	return records[0], nil
}

func (s *ElasticsearchStore) Count(ctx context.Context, filters map[string]interface{}) (int64, error) {
	f, err := ParseFilter(filters, s.schema)
	if err != nil {
		return 0, err
	}
	body, _ := json.Marshal(map[string]interface{}{"query": buildESQuery(f)})

	res, err := esapi.CountRequest{
		Index: []string{s.schema.Collection},
		Body:  bytes.NewReader(body),
	}.Do(ctx, s.client)
	if err != nil {
		return 0, fmt.Errorf("%w: count: %v", ErrQueryFailed, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, fmt.Errorf("%w: count: %s", ErrQueryFailed, res.String())
	}

	var r struct {
		Count int64 `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, fmt.Errorf("%w: decode count: %v", ErrQueryFailed, err)
	}
	return r.Count, nil
}

func (s *ElasticsearchStore) Aggregate(ctx context.Context, pipeline []json.RawMessage) ([]models.Record, error) {
	return aggregate(ctx, s, pipeline, s.maxScan)
}

func (s *ElasticsearchStore) search(ctx context.Context, body map[string]interface{}) ([]models.Record, error) {
	payload, _ := json.Marshal(body)

	start := time.Now()
	res, err := esapi.SearchRequest{
		Index: []string{s.schema.Collection},
		Body:  bytes.NewReader(payload),
	}.Do(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %v", ErrQueryFailed, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("%w: search: %s", ErrQueryFailed, res.String())
	}

	var r struct {
		Hits struct {
			Hits []struct {
				ID     string                 `json:"_id"`
				Source map[string]interface{} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("%w: decode search: %v", ErrQueryFailed, err)
	}

	records := make([]models.Record, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		rec := models.Record(hit.Source)
		if rec == nil {
			rec = models.Record{}
		}
		if _, ok := rec["id"]; !ok {
			rec["id"] = hit.ID
		}
		delete(rec, "passwordHash")
		records = append(records, rec)
	}

	s.logger.Debug("search executed", map[string]interface{}{
		"hits":       len(records),
		"durationMs": time.Since(start).Milliseconds(),
	})
	return records, nil
}

// buildESQuery translates a Filter into a bool query.
func buildESQuery(f *Filter) map[string]interface{} {
	if f.Empty() {
		return map[string]interface{}{"match_all": map[string]interface{}{}}
	}

	var must, mustNot []interface{}
	for _, c := range f.Conditions {
		clause, negate := esCondition(c)
		if negate {
			mustNot = append(mustNot, clause)
		} else {
			must = append(must, clause)
		}
	}
	for _, sub := range f.And {
		must = append(must, buildESQuery(sub))
	}
	if len(f.Or) > 0 {
		should := make([]interface{}, 0, len(f.Or))
		for _, sub := range f.Or {
			should = append(should, buildESQuery(sub))
		}
		must = append(must, map[string]interface{}{
			"bool": map[string]interface{}{"should": should, "minimum_should_match": 1},
		})
	}

	boolQuery := map[string]interface{}{}
	if len(must) > 0 {
		boolQuery["filter"] = must
	}
	if len(mustNot) > 0 {
		boolQuery["must_not"] = mustNot
	}
	return map[string]interface{}{"bool": boolQuery}
}

var esRangeOps = map[string]string{"$gt": "gt", "$gte": "gte", "$lt": "lt", "$lte": "lte"}

// esCondition returns the clause and whether it belongs under must_not.
func esCondition(c Condition) (map[string]interface{}, bool) {
	exists := map[string]interface{}{"exists": map[string]interface{}{"field": c.Field}}

	switch c.Op {
	case "$eq", "$ne":
		negate := c.Op == "$ne"
		if c.Value == nil {
			return exists, !negate
		}
		return map[string]interface{}{"term": map[string]interface{}{c.Field: c.Value}}, negate
	case "$gt", "$gte", "$lt", "$lte":
		return map[string]interface{}{
			"range": map[string]interface{}{c.Field: map[string]interface{}{esRangeOps[c.Op]: c.Value}},
		}, false
	case "$in", "$nin":
		return map[string]interface{}{"terms": map[string]interface{}{c.Field: c.Value}}, c.Op == "$nin"
	case "$regex":
		return map[string]interface{}{
			"regexp": map[string]interface{}{c.Field: map[string]interface{}{
				"value":            luceneRegexp(c.Value.(string)),
				"case_insensitive": strings.Contains(c.Options, "i"),
			}},
		}, false
	case "$exists":
		return exists, !c.Value.(bool)
	}
	return map[string]interface{}{"match_none": map[string]interface{}{}}, false
}

// luceneRegexp converts an unanchored pattern to Lucene's always-anchored syntax.
func luceneRegexp(pattern string) string {
	if strings.HasPrefix(pattern, "^") {
		pattern = pattern[1:]
	} else {
		pattern = ".*" + pattern
	}
	if strings.HasSuffix(pattern, "$") {
		pattern = pattern[:len(pattern)-1]
	} else {
		pattern += ".*"
	}
	return pattern
}
