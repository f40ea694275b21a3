package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop-assistant/internal/commerce"
	"shop-assistant/internal/common/config"
	apperrors "shop-assistant/internal/common/errors"
	"shop-assistant/internal/common/logger"
	"shop-assistant/internal/models"
	"shop-assistant/internal/store"
)

type fakeStore struct {
	records []models.Record
	err     error
	calls   []string
	lastQ   store.Query
}

func (f *fakeStore) Find(_ context.Context, q store.Query) ([]models.Record, error) {
	f.calls = append(f.calls, "find")
	f.lastQ = q
	if f.err != nil {
		return nil, f.err
	}
	out := f.records
	if q.Skip < len(out) {
		out = out[q.Skip:]
	} else {
		out = nil
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (f *fakeStore) FindOne(_ context.Context, q store.Query) (models.Record, error) {
	f.calls = append(f.calls, "findOne")
	f.lastQ = q
	if f.err != nil || len(f.records) == 0 {
		return nil, f.err
	}
	return f.records[0], nil
}

func (f *fakeStore) Count(_ context.Context, _ map[string]interface{}) (int64, error) {
	f.calls = append(f.calls, "count")
	return int64(len(f.records)), f.err
}

func (f *fakeStore) Aggregate(_ context.Context, _ []json.RawMessage) ([]models.Record, error) {
	f.calls = append(f.calls, "aggregate")
	return f.records, f.err
}

func (f *fakeStore) Ping(context.Context) error { return nil }

func makeRecords(n int) []models.Record {
	out := make([]models.Record, n)
	for i := range out {
		out[i] = models.Record{"id": fmt.Sprintf("u%d", i+1), "email": fmt.Sprintf("user%d@example.com", i+1)}
	}
	return out
}

func intPtr(v int) *int { return &v }

func storeQuery(op models.StructuredOperation) models.CompiledQuery {
	return models.CompiledQuery{TemplateKind: models.TemplateStoreQuery, Validated: true, Operation: &op}
}

func TestExecutor_StoreOperations(t *testing.T) {
	tests := []struct {
		name      string
		records   []models.Record
		storeErr  error
		op        models.StructuredOperation
		maxResult int
		wantCode  apperrors.ErrorCode
		wantCalls []string
		validate  func(t *testing.T, res *models.RawResult, fs *fakeStore)
	}{
		{
			name:      "find honours limit",
			records:   makeRecords(25),
			op:        models.StructuredOperation{Operation: models.OperationFind, Limit: intPtr(10)},
			wantCalls: []string{"find"},
			validate: func(t *testing.T, res *models.RawResult, fs *fakeStore) {
				assert.Equal(t, models.ResultStoreRecords, res.Kind)
				assert.LessOrEqual(t, len(res.Records), 10)
				assert.Equal(t, models.OperationFind, res.Operation)
			},
		},
		{
			name:      "find caps limit at max results",
			records:   makeRecords(3),
			op:        models.StructuredOperation{Operation: models.OperationFind, Limit: intPtr(500)},
			maxResult: 50,
			wantCalls: []string{"find"},
			validate: func(t *testing.T, _ *models.RawResult, fs *fakeStore) {
				assert.Equal(t, 50, fs.lastQ.Limit)
			},
		},
		{
			name:      "find passes skip projection and sort",
			records:   makeRecords(5),
			op:        models.StructuredOperation{Operation: models.OperationFind, Skip: intPtr(2), Fields: []string{"email"}, Sort: models.SortSpec{{Field: "email", Direction: -1}}},
			wantCalls: []string{"find"},
			validate: func(t *testing.T, res *models.RawResult, fs *fakeStore) {
				assert.Equal(t, 2, fs.lastQ.Skip)
				assert.Equal(t, []string{"email"}, fs.lastQ.Fields)
				assert.Equal(t, DefaultMaxResults, fs.lastQ.Limit)
				assert.Len(t, res.Records, 3)
			},
		},
		{
			name:      "find one",
			records:   makeRecords(2),
			op:        models.StructuredOperation{Operation: models.OperationFindOne},
			wantCalls: []string{"findOne"},
			validate: func(t *testing.T, res *models.RawResult, _ *fakeStore) {
				assert.Equal(t, models.ResultStoreRecord, res.Kind)
				assert.Equal(t, "u1", res.Record["id"])
			},
		},
		{
			name:      "count",
			records:   makeRecords(7),
			op:        models.StructuredOperation{Operation: models.OperationCount},
			wantCalls: []string{"count"},
			validate: func(t *testing.T, res *models.RawResult, _ *fakeStore) {
				assert.Equal(t, models.ResultStoreCount, res.Kind)
				assert.EqualValues(t, 7, res.Count)
			},
		},
		{
			name:      "aggregate",
			records:   []models.Record{{"_id": "admin", "n": 2.0}},
			op:        models.StructuredOperation{Operation: models.OperationAggregate, Aggregate: []json.RawMessage{json.RawMessage(`{"$group":{"_id":"$role","n":{"$sum":1}}}`)}},
			wantCalls: []string{"aggregate"},
			validate: func(t *testing.T, res *models.RawResult, _ *fakeStore) {
				assert.Equal(t, models.ResultStoreAggregate, res.Kind)
				assert.Len(t, res.Records, 1)
			},
		},
		{
			name:     "aggregate with empty pipeline fails before store call",
			op:       models.StructuredOperation{Operation: models.OperationAggregate},
			wantCode: apperrors.ErrCodeValidation,
		},
		{
			name:     "unknown operation",
			op:       models.StructuredOperation{Operation: "DELETE"},
			wantCode: apperrors.ErrCodeValidation,
		},
		{
			name:      "invalid query from store maps to validation",
			storeErr:  fmt.Errorf("%w: unknown field \"age\"", store.ErrInvalidQuery),
			op:        models.StructuredOperation{Operation: models.OperationFind},
			wantCode:  apperrors.ErrCodeValidation,
			wantCalls: []string{"find"},
		},
		{
			name:      "backend failure maps to store query error",
			storeErr:  errors.New("connection reset"),
			op:        models.StructuredOperation{Operation: models.OperationCount},
			wantCode:  apperrors.ErrCodeStoreQuery,
			wantCalls: []string{"count"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := &fakeStore{records: tt.records, err: tt.storeErr}
			exec := NewExecutor(fs, nil, tt.maxResult, logger.NewNoOpLogger())

			res, err := exec.Execute(context.Background(), storeQuery(tt.op))
			assert.Equal(t, tt.wantCalls, fs.calls)
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, apperrors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			if tt.validate != nil {
				tt.validate(t, res, fs)
			}
		})
	}
}

func TestExecutor_RejectsUnvalidatedQuery(t *testing.T) {
	fs := &fakeStore{}
	exec := NewExecutor(fs, nil, 0, logger.NewNoOpLogger())

	_, err := exec.Execute(context.Background(), models.CompiledQuery{TemplateKind: models.TemplateStoreQuery})
	require.Error(t, err)
	assert.Empty(t, fs.calls)
}

func TestExecutor_Commerce(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode apperrors.ErrorCode
		validate func(t *testing.T, res *models.RawResult)
	}{
		{
			name: "products with stats",
			body: `{"data":{"products":{"edges":[
				{"node":{"id":"gid://shopify/Product/1","title":"Luna Tea Plate","priceRangeV2":{"minVariantPrice":{"amount":"25.00","currencyCode":"USD"}},"totalInventory":4}},
				{"node":{"id":"gid://shopify/Product/2","title":"Sol Mug","priceRangeV2":{"minVariantPrice":{"amount":"15.00","currencyCode":"USD"}},"totalInventory":0}}
			]}}}`,
			validate: func(t *testing.T, res *models.RawResult) {
				assert.Equal(t, models.ResultCommerceProducts, res.Kind)
				require.Len(t, res.Products, 2)
				require.NotNil(t, res.Stats)
				assert.Equal(t, 15.0, res.Stats.Min)
				assert.Equal(t, 25.0, res.Stats.Max)
			},
		},
		{
			name:     "error list surfaces as rejection",
			body:     `{"errors":[{"message":"Field 'foo' doesn't exist on type 'Product'"}]}`,
			wantCode: apperrors.ErrCodeUpstreamRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := commerce.NewClient(config.CommerceConfig{Endpoint: srv.URL, AccessToken: "shpat_test", Timeout: 2000}, logger.NewNoOpLogger())
			exec := NewExecutor(nil, client, 0, logger.NewNoOpLogger())

			res, err := exec.Execute(context.Background(), models.CompiledQuery{
				TemplateKind: models.TemplateCommerceQuery,
				Text:         "{ products(first: 10) { edges { node { id title } } } }",
				Validated:    true,
			})
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, apperrors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			tt.validate(t, res)
		})
	}
}

func TestExecutor_ChatIsNotExecutable(t *testing.T) {
	exec := NewExecutor(&fakeStore{}, nil, 0, logger.NewNoOpLogger())
	_, err := exec.Execute(context.Background(), models.CompiledQuery{TemplateKind: models.TemplateGeneralChat, Text: "hi", Validated: true})
	assert.Equal(t, apperrors.ErrCodeInternal, apperrors.CodeOf(err))
}
