// Package assistant runs the prompt pipeline: classify, compile, sanitize,
// execute and format. Stages run strictly in sequence for one request.
package assistant

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	apperrors "shop-assistant/internal/common/errors"
	"shop-assistant/internal/common/logger"
	"shop-assistant/internal/common/observability"
	"shop-assistant/internal/models"
	"shop-assistant/internal/pipeline/formatter"
	"shop-assistant/internal/pipeline/intent"
	"shop-assistant/internal/pipeline/memory"
	"shop-assistant/internal/pipeline/sanitizer"
)

// Mode selects how prompts are scoped and which intents are served.
type Mode string

const (
	// ModeChat scopes memory by user and serves every intent.
	ModeChat Mode = "chat"
	// ModeProducts scopes memory by conversation and always queries the catalog.
	ModeProducts Mode = "products"
)

type Compiler interface {
	Compile(ctx context.Context, kind models.TemplateKind, rawText string, prior *models.RawResult) (models.CompiledQuery, error)
}

type Executor interface {
	Execute(ctx context.Context, q models.CompiledQuery) (*models.RawResult, error)
}

type Assistant struct {
	classifier *intent.Classifier
	compiler   Compiler
	executor   Executor
	formatter  *formatter.Formatter
	memory     *memory.Memory
	obs        *observability.Observability
	debug      bool
	logger     logger.Logger
}

// Option customizes an Assistant.
type Option func(*Assistant)

// WithMemory enables caching and follow-ups.
func WithMemory(m *memory.Memory) Option {
	return func(a *Assistant) { a.memory = m }
}

// WithObservability records pipeline runs through OpenTelemetry.
func WithObservability(obs *observability.Observability) Option {
	return func(a *Assistant) { a.obs = obs }
}

// WithDebugQuery echoes the executed query text in responses.
func WithDebugQuery(enabled bool) Option {
	return func(a *Assistant) { a.debug = enabled }
}

// WithFormatter replaces the default formatter.
func WithFormatter(f *formatter.Formatter) Option {
	return func(a *Assistant) { a.formatter = f }
}

func New(classifier *intent.Classifier, compiler Compiler, executor Executor, log logger.Logger, opts ...Option) *Assistant {
	a := &Assistant{
		classifier: classifier,
		compiler:   compiler,
		executor:   executor,
		formatter:  formatter.New(),
		logger:     log.WithFields(map[string]interface{}{"component": "assistant"}),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Handle runs one prompt through the pipeline.
func (a *Assistant) Handle(ctx context.Context, mode Mode, req models.PromptRequest) (models.ResponseEnvelope, error) {
	if strings.TrimSpace(req.Text) == "" {
		return models.ResponseEnvelope{}, apperrors.NewValidationError("prompt is required")
	}

	start := time.Now()
	scope := a.scope(mode, req)
	ctx, span := observability.StartSpan(ctx, "pipeline.run",
		attribute.String("mode", string(mode)),
		attribute.Bool("scoped", scope != ""),
	)

	var prior *models.ConversationContext
	if scope != "" && a.memory != nil {
		prior, _ = a.memory.Context(ctx, scope)
	}

	cls := a.classifier.Classify(req.Text, prior != nil)
	if mode == ModeProducts && (cls.Intent == models.IntentGeneralChat || cls.Intent == models.IntentFollowUpContextual) {
		cls.Intent = models.IntentStructuredQuery
	}
	span.SetAttributes(attribute.String("intent", string(cls.Intent)), attribute.String("rule", cls.Rule))

	log := a.logger.WithFields(map[string]interface{}{
		"mode":   string(mode),
		"intent": string(cls.Intent),
		"rule":   cls.Rule,
	})
	log.Debug("prompt classified", map[string]interface{}{"hasContext": prior != nil})

	env, err := a.dispatch(ctx, cls, scope, req.Text, prior)

	status := "ok"
	if err != nil {
		status = string(apperrors.CodeOf(err))
		log.Warn("pipeline failed", map[string]interface{}{"errorCode": status})
	}
	if a.obs != nil {
		a.obs.RecordPipelineRun(ctx, string(cls.Intent), status, time.Since(start))
	}
	observability.EndSpan(span, err)
	return env, err
}

func (a *Assistant) dispatch(ctx context.Context, cls intent.Classification, scope, text string, prior *models.ConversationContext) (models.ResponseEnvelope, error) {
	switch cls.Intent {
	case models.IntentCasual:
		return formatter.Casual(cls.Family), nil

	case models.IntentFollowUpIndexed:
		if prior == nil {
			return formatter.Detail(nil, cls.Index)
		}
		return formatter.Detail(&prior.Result, cls.Index)

	case models.IntentStructuredQuery:
		return a.query(ctx, scope, text)

	case models.IntentFollowUpContextual:
		var result *models.RawResult
		if prior != nil {
			result = &prior.Result
		}
		return a.converse(ctx, models.TemplateContextual, text, result, cls.Intent)
	}
	return a.converse(ctx, models.TemplateGeneralChat, text, nil, cls.Intent)
}

// query compiles or reuses a catalog query, executes it and remembers the result.
func (a *Assistant) query(ctx context.Context, scope, text string) (models.ResponseEnvelope, error) {
	q, cached := a.cachedQuery(ctx, scope, text)
	if !cached {
		compiled, err := a.compiler.Compile(ctx, models.TemplateCommerceQuery, text, nil)
		if err != nil {
			return models.ResponseEnvelope{}, err
		}
		if q, err = sanitizer.Sanitize(compiled); err != nil {
			return models.ResponseEnvelope{}, err
		}
		if scope != "" && a.memory != nil {
			a.memory.RememberQuery(ctx, scope, text, q)
		}
	}

	res, err := a.executor.Execute(ctx, q)
	if err != nil {
		return models.ResponseEnvelope{}, err
	}

	if scope != "" && a.memory != nil && !res.IsEmpty() {
		a.memory.RememberContext(ctx, scope, models.ConversationContext{Prompt: text, Query: q, Result: *res})
	}

	env := a.formatter.Format(res, text, models.IntentStructuredQuery)
	if a.debug {
		env.DebugQuery = q.Text
	}
	return env, nil
}

func (a *Assistant) cachedQuery(ctx context.Context, scope, text string) (models.CompiledQuery, bool) {
	if scope == "" || a.memory == nil {
		return models.CompiledQuery{}, false
	}
	q, ok := a.memory.CachedQuery(ctx, scope, text)
	if !ok || !q.Validated || q.TemplateKind != models.TemplateCommerceQuery {
		return models.CompiledQuery{}, false
	}
	a.logger.Debug("reusing compiled query", map[string]interface{}{"scope": scope})
	return q, true
}

func (a *Assistant) converse(ctx context.Context, kind models.TemplateKind, text string, prior *models.RawResult, in models.Intent) (models.ResponseEnvelope, error) {
	compiled, err := a.compiler.Compile(ctx, kind, text, prior)
	if err != nil {
		return models.ResponseEnvelope{}, err
	}
	reply, err := sanitizer.Sanitize(compiled)
	if err != nil {
		return models.ResponseEnvelope{}, err
	}
	return formatter.Reply(reply.Text, in), nil
}

// scope is the memory key owner: the user in chat mode, the conversation in
// products mode. An empty scope disables memory.
func (a *Assistant) scope(mode Mode, req models.PromptRequest) string {
	if mode == ModeProducts {
		return req.ConversationID
	}
	if req.UserID == "" {
		return models.AnonymousUser
	}
	return req.UserID
}

// Ping checks the memory backend, if any.
func (a *Assistant) Ping(ctx context.Context) error {
	if a.memory == nil {
		return nil
	}
	return a.memory.Ping(ctx)
}
