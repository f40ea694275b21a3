// cmd/assistant/wiring.go
package main

import (
	"context"
	"fmt"
	"time"

	"shop-assistant/internal/api"
	"shop-assistant/internal/commerce"
	"shop-assistant/internal/common/auth"
	"shop-assistant/internal/common/aws"
	"shop-assistant/internal/common/config"
	"shop-assistant/internal/common/database"
	apperrors "shop-assistant/internal/common/errors"
	"shop-assistant/internal/common/llm"
	"shop-assistant/internal/common/logger"
	"shop-assistant/internal/common/observability"
	"shop-assistant/internal/coupon"
	chat "shop-assistant/internal/handlers/chat"
	cd "shop-assistant/internal/handlers/coupon-dispatch"
	pdq "shop-assistant/internal/handlers/product-query"
	prq "shop-assistant/internal/handlers/prompt-query"
	ua "shop-assistant/internal/handlers/user-account"
	"shop-assistant/internal/pipeline/assistant"
	"shop-assistant/internal/pipeline/compiler"
	"shop-assistant/internal/pipeline/executor"
	"shop-assistant/internal/pipeline/intent"
	"shop-assistant/internal/pipeline/memory"
	"shop-assistant/internal/store"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err.Error(),
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// app holds the wired dependency graph and everything that must be released
// on shutdown.
type app struct {
	routes   api.Options
	notifier *coupon.Notifier
	closers  []func() error
}

func (a *app) close(log logger.Logger) {
	if a.notifier != nil {
		a.notifier.Wait()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn("shutdown step failed", map[string]interface{}{"error": err.Error()})
		}
	}
}

func connectPostgres(ctx context.Context, cfg config.PostgresConfig, log logger.Logger) (*database.PostgresClient, error) {
	var pg *database.PostgresClient
	err := retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, log, "PostgreSQL connection")
	return pg, err
}

func connectElasticsearch(ctx context.Context, cfg config.ElasticsearchConfig, log logger.Logger) (*database.ElasticsearchClient, error) {
	var es *database.ElasticsearchClient
	err := retryWithBackoff(func() error {
		var err error
		es, err = database.NewElasticsearch(cfg)
		if err != nil {
			return err
		}
		return es.Ping(ctx)
	}, 15, 2*time.Second, log, "Elasticsearch connection")
	return es, err
}

// build wires every component from cfg.
func build(ctx context.Context, cfg *config.Config, obs *observability.Observability, log logger.Logger) (*app, error) {
	a := &app{}
	readiness := map[string]api.Pinger{}

	// --- Storage ---
	pg, err := connectPostgres(ctx, cfg.Database.Postgres, log)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, pg.Close)
	log.Info("PostgreSQL connected successfully", nil)

	var users store.Store
	var indexer ua.Indexer
	switch cfg.Store.Backend {
	case "elasticsearch":
		es, err := connectElasticsearch(ctx, cfg.Database.Elasticsearch, log)
		if err != nil {
			a.close(log)
			return nil, err
		}
		esStore := store.NewElasticsearchStore(es.Client, store.UsersSchema(cfg.Store.UsersIndex), cfg.Store.MaxScan, log)
		users, indexer = esStore, esStore
		log.Info("Elasticsearch connected successfully", nil)
	default:
		users = store.NewPostgresStore(pg.DB, store.UsersSchema(cfg.Store.UsersTable), cfg.Store.MaxScan, log)
	}
	readiness["store"] = users

	// --- Memory ---
	var memStore memory.Store
	switch cfg.Memory.Backend {
	case "local":
		local, err := memory.NewLocalStore(cfg.Memory.SweepSchedule, log)
		if err != nil {
			a.close(log)
			return nil, err
		}
		local.Start()
		a.closers = append(a.closers, func() error { local.Stop(); return nil })
		memStore = local
	default:
		rdb := database.NewRedis(cfg.Database.Redis)
		err := retryWithBackoff(func() error { return rdb.Ping(ctx) }, 10, 2*time.Second, log, "Redis connection")
		if err != nil {
			_ = rdb.Close()
			a.close(log)
			return nil, err
		}
		a.closers = append(a.closers, rdb.Close)
		memStore = memory.NewRedisStore(rdb.Client)
		log.Info("Redis connected successfully", nil)
	}
	mem := memory.New(memStore, time.Duration(cfg.Memory.TTL)*time.Second, cfg.Memory.KeyPrefix, log)
	readiness["memory"] = mem

	// --- Text generation ---
	provider, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		a.close(log)
		return nil, fmt.Errorf("llm provider: %w", err)
	}
	gen := llm.NewObservedGenerator(provider, obs, log)
	comp := compiler.NewCompiler(gen, compiler.Options{
		QueryTemperature: cfg.LLM.QueryTemperature,
		ChatTemperature:  cfg.LLM.ChatTemperature,
		MaxOutputTokens:  cfg.LLM.MaxOutputTokens,
	}, log)

	// --- Pipeline ---
	exec := executor.NewExecutor(users, commerce.NewClient(cfg.Commerce, log), cfg.Store.MaxResults, log)
	asst := assistant.New(intent.NewClassifier(intent.DefaultRules()...), comp, exec, log,
		assistant.WithMemory(mem),
		assistant.WithObservability(obs),
		assistant.WithDebugQuery(cfg.App.IsDevelopment()),
	)

	// --- Coupons ---
	var email coupon.EmailSender
	if cfg.Integrations.AWS.SES.Enabled {
		ses, err := aws.NewSESClient(ctx, cfg.Integrations.AWS.Region, cfg.Integrations.AWS.SES.FromEmail)
		if err != nil {
			a.close(log)
			return nil, fmt.Errorf("ses client: %w", err)
		}
		email = ses
	}
	var topic coupon.Publisher
	if cfg.Integrations.AWS.SNS.Enabled {
		sns, err := aws.NewSNSClient(ctx, cfg.Integrations.AWS.Region, cfg.Integrations.AWS.SNS.TopicARN)
		if err != nil {
			a.close(log)
			return nil, fmt.Errorf("sns client: %w", err)
		}
		topic = sns
	}
	a.notifier = coupon.NewNotifier(email, topic, coupon.NotifierConfig{
		Concurrency:    cfg.Coupon.NotifyConcurrency,
		Timeout:        config.GetDuration(cfg.Coupon.NotifyTimeout),
		CurrencySymbol: cfg.Coupon.Currency,
	}, log)
	dispatcher := coupon.NewDispatcher(coupon.NewInterpreter(comp, log), coupon.NewLedger(pg.DB, log), a.notifier, log)

	// --- Accounts ---
	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, time.Duration(cfg.Auth.TokenTTL)*time.Minute)
	if err != nil {
		a.close(log)
		return nil, err
	}
	accounts := ua.NewService(ua.ServiceDependencies{
		Repository: ua.NewRepository(pg.DB),
		Tokens:     tokens,
		Indexer:    indexer,
		Logger:     log,
	}, ua.LoadConfig())

	// --- HTTP ---
	apperrors.CaptureStacks(cfg.App.IsDevelopment())
	errs := apperrors.NewErrorHandler(log, cfg.App.IsDevelopment())
	a.routes = api.Options{
		Handlers: api.Handlers{
			Prompt:   prq.NewHandler(prq.LoadConfig(), comp, exec, errs, log),
			Chat:     chat.NewHandler(chat.LoadConfig(), asst, errs, log),
			Products: pdq.NewHandler(pdq.LoadConfig(), asst, errs, log),
			Coupons:  cd.NewHandler(cd.LoadConfig(), dispatcher, errs, log),
			Accounts: ua.NewHandler(ua.LoadConfig(), accounts, errs, log),
		},
		Tokens:         tokens,
		ProtectCoupons: cfg.Auth.ProtectCoupons,
		Readiness:      readiness,
		Errors:         errs,
		Logger:         log,
	}
	return a, nil
}
