// Package executor runs validated queries against the structured store or the
// commerce API. It performs a single attempt per call.
package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"shop-assistant/internal/commerce"
	apperrors "shop-assistant/internal/common/errors"
	"shop-assistant/internal/common/logger"
	"shop-assistant/internal/common/metrics"
	"shop-assistant/internal/common/observability"
	"shop-assistant/internal/models"
	"shop-assistant/internal/store"
)

const DefaultMaxResults = 100

// CommerceQuerier posts a query document and returns the response data.
type CommerceQuerier interface {
	Query(ctx context.Context, query string) (json.RawMessage, error)
}

// OperationFunc runs one store primitive.
type OperationFunc func(ctx context.Context, s store.Store, op *models.StructuredOperation, maxResults int) (*models.RawResult, error)

// Registry dispatches on the operation kind.
var Registry = map[models.OperationKind]OperationFunc{
	models.OperationFind:      find,
	models.OperationFindOne:   findOne,
	models.OperationCount:     count,
	models.OperationAggregate: aggregate,
}

type Executor struct {
	store      store.Store
	commerce   CommerceQuerier
	maxResults int
	logger     logger.Logger
}

// NewExecutor accepts a nil store or commerce client when the corresponding
// path is not served.
func NewExecutor(s store.Store, c CommerceQuerier, maxResults int, log logger.Logger) *Executor {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return &Executor{
		store:      s,
		commerce:   c,
		maxResults: maxResults,
		logger:     log.WithFields(map[string]interface{}{"stage": "execute"}),
	}
}

// Execute runs q, which must already be sanitized.
func (e *Executor) Execute(ctx context.Context, q models.CompiledQuery) (*models.RawResult, error) {
	if !q.Validated {
		return nil, apperrors.NewInternalError(errors.New("query has not been validated"))
	}

	ctx, span := observability.StartSpan(ctx, "pipeline.execute", attribute.String("template", string(q.TemplateKind)))
	start := time.Now()

	var (
		result *models.RawResult
		err    error
	)
	switch q.TemplateKind {
	case models.TemplateCommerceQuery:
		result, err = e.executeCommerce(ctx, q.Text)
	case models.TemplateStoreQuery:
		result, err = e.executeStore(ctx, q.Operation)
	default:
		err = apperrors.NewInternalError(fmt.Errorf("template %q is not executable", q.TemplateKind))
	}

	metrics.StageDuration.WithLabelValues("execute").Observe(time.Since(start).Seconds())
	observability.EndSpan(span, err)
	if err != nil {
		e.logger.Warn("execution failed", map[string]interface{}{
			"template":  string(q.TemplateKind),
			"errorCode": string(apperrors.CodeOf(err)),
		})
		return nil, err
	}

	e.logger.Debug("execution completed", map[string]interface{}{
		"template":   string(q.TemplateKind),
		"kind":       string(result.Kind),
		"items":      result.Len(),
		"durationMs": time.Since(start).Milliseconds(),
	})
	return result, nil
}

func (e *Executor) executeCommerce(ctx context.Context, query string) (*models.RawResult, error) {
	if e.commerce == nil {
		return nil, apperrors.NewInternalError(errors.New("commerce client not configured"))
	}
	data, err := e.commerce.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	products, err := commerce.DecodeProducts(data)
	if err != nil {
		return nil, apperrors.NewUpstreamFailedError("commerce", err)
	}
	return &models.RawResult{
		Kind:     models.ResultCommerceProducts,
		Products: products,
		Stats:    commerce.ComputeStats(products),
	}, nil
}

func (e *Executor) executeStore(ctx context.Context, op *models.StructuredOperation) (*models.RawResult, error) {
	if op == nil {
		return nil, apperrors.NewInternalError(errors.New("store query carries no operation"))
	}
	if err := op.Validate(); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	if e.store == nil {
		return nil, apperrors.NewInternalError(errors.New("store not configured"))
	}

	fn, ok := Registry[op.Operation]
	if !ok {
		return nil, apperrors.NewValidationError(fmt.Sprintf("%v: %s", models.ErrUnsupportedOperation, op.Operation))
	}
	result, err := fn(ctx, e.store, op, e.maxResults)
	if err != nil {
		return nil, storeError(op.Operation, err)
	}
	result.Operation = op.Operation
	return result, nil
}

// storeError keeps rejected queries distinguishable from backend failures.
func storeError(op models.OperationKind, err error) error {
	if errors.Is(err, store.ErrInvalidQuery) {
		return apperrors.NewValidationError(err.Error())
	}
	return apperrors.NewStoreQueryError(string(op), err)
}

func find(ctx context.Context, s store.Store, op *models.StructuredOperation, maxResults int) (*models.RawResult, error) {
	limit := op.LimitOr(maxResults)
	if limit > maxResults {
		limit = maxResults
	}
	records, err := s.Find(ctx, store.Query{
		Filters: op.Filters,
		Fields:  op.Fields,
		Sort:    op.Sort,
		Skip:    op.SkipOr(0),
		Limit:   limit,
	})
	if err != nil {
		return nil, err
	}
	return &models.RawResult{Kind: models.ResultStoreRecords, Records: records}, nil
}

func findOne(ctx context.Context, s store.Store, op *models.StructuredOperation, _ int) (*models.RawResult, error) {
	record, err := s.FindOne(ctx, store.Query{
		Filters: op.Filters,
		Fields:  op.Fields,
		Sort:    op.Sort,
		Skip:    op.SkipOr(0),
	})
	if err != nil {
		return nil, err
	}
	return &models.RawResult{Kind: models.ResultStoreRecord, Record: record}, nil
}

func count(ctx context.Context, s store.Store, op *models.StructuredOperation, _ int) (*models.RawResult, error) {
	n, err := s.Count(ctx, op.Filters)
	if err != nil {
		return nil, err
	}
	return &models.RawResult{Kind: models.ResultStoreCount, Count: n}, nil
}

func aggregate(ctx context.Context, s store.Store, op *models.StructuredOperation, maxResults int) (*models.RawResult, error) {
	if len(op.Aggregate) == 0 {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidQuery, models.ErrEmptyPipeline)
	}
	records, err := s.Aggregate(ctx, op.Aggregate)
	if err != nil {
		return nil, err
	}
	if len(records) > maxResults {
		records = records[:maxResults]
	}
	return &models.RawResult{Kind: models.ResultStoreAggregate, Records: records}, nil
}
