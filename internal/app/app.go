// Package app is the composition root shared by the HTTP server, the CLI and the embedded client.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/policyqa/internal/config"
	"github.com/kailas-cloud/policyqa/internal/db"
	dbRedis "github.com/kailas-cloud/policyqa/internal/db/redis"
	"github.com/kailas-cloud/policyqa/internal/domain"
	"github.com/kailas-cloud/policyqa/internal/metrics"
	budgetrepo "github.com/kailas-cloud/policyqa/internal/repository/budget"
	documentrepo "github.com/kailas-cloud/policyqa/internal/repository/document"
	"github.com/kailas-cloud/policyqa/internal/repository/embcache"
	openaiTransport "github.com/kailas-cloud/policyqa/internal/transport/openai"
	answeruc "github.com/kailas-cloud/policyqa/internal/usecase/answer"
	budgetuc "github.com/kailas-cloud/policyqa/internal/usecase/budget"
	embeddinguc "github.com/kailas-cloud/policyqa/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/policyqa/internal/usecase/health"
	qauc "github.com/kailas-cloud/policyqa/internal/usecase/qa"
	retrievaluc "github.com/kailas-cloud/policyqa/internal/usecase/retrieval"
	usageuc "github.com/kailas-cloud/policyqa/internal/usecase/usage"
)

const (
	budgetDailyTTL   = 48 * time.Hour
	budgetMonthlyTTL = 62 * 24 * time.Hour
)

// Overrides replace built-in providers. Zero fields use the configured defaults.
type Overrides struct {
	Store     db.Store
	Embedder  domain.Embedder
	Generator domain.Generator
}

// App holds the wired services.
type App struct {
	Store     db.Store
	Documents *documentrepo.Repo
	Retrieval *retrievaluc.Service
	Answer    *answeruc.Service
	QA        *qauc.Service
	Health    *healthuc.Service
	Usage     *usageuc.Service
}

// Build connects to the store and wires the pipeline.
// A missing generation key is logged and leaves synthesis unconfigured.
func Build(ctx context.Context, cfg config.Config, logger *zap.Logger, ov Overrides) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	metrics.Register()

	store := ov.Store
	if store == nil {
		var err error
		store, err = OpenStore(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
	}

	docs := documentrepo.New(store, documentrepo.Options{
		IndexName: cfg.Store.IndexName,
		KeyPrefix: cfg.Store.KeyPrefix,
		Distance:  db.ParseDistance(cfg.Store.DistanceMetric),
		Fields: documentrepo.Fields{
			Content:    cfg.Store.Fields.Content,
			Country:    cfg.Store.Fields.Country,
			DocType:    cfg.Store.Fields.DocType,
			SourceFile: cfg.Store.Fields.SourceFile,
			Vector:     cfg.Store.Fields.Vector,
		},
	})
	if err := docs.Ready(ctx); err != nil {
		logger.Warn("Vector index is not available yet", zap.String("index", docs.IndexName()), zap.Error(err))
	}

	var budgets []usageuc.BudgetReader

	// nil interfaces, not typed nil pointers, when no budget is configured
	var embedBudget embeddinguc.BudgetChecker
	if t := newTracker(ctx, cfg.Embedding.Provider, cfg.Store.ServiceKeyPrefix, cfg.Embedding.Budget, store, logger); t != nil {
		embedBudget = t
		budgets = append(budgets, t)
	}
	embedder, embedHealth := buildEmbedder(cfg, store, ov.Embedder, embedBudget, logger)

	gen, genHealth := buildGenerator(cfg, ov.Generator, logger)
	var genBudget answeruc.BudgetChecker
	if t := newTracker(ctx, cfg.Generation.Provider, cfg.Store.ServiceKeyPrefix, cfg.Generation.Budget, store, logger); t != nil {
		genBudget = t
		budgets = append(budgets, t)
	}

	retrieval := retrievaluc.New(docs, embedder, retrievaluc.Options{
		DefaultK: cfg.Retrieval.DefaultK,
		MaxK:     cfg.Retrieval.MaxK,
		Dedupe:   cfg.Retrieval.Dedupe,
	}, logger)

	answer := answeruc.New(gen, cfg.Generation.Model, answeruc.Options{
		Timeout:      cfg.Generation.Timeout(),
		MaxRetries:   cfg.Generation.MaxRetries,
		RetryBackoff: cfg.Generation.RetryBackoff(),
	}, genBudget, logger)

	return &App{
		Store:     store,
		Documents: docs,
		Retrieval: retrieval,
		Answer:    answer,
		QA:        qauc.New(retrieval, answer),
		Health:    healthuc.New(store, docs, embedHealth, genHealth),
		Usage:     usageuc.New(budgets...),
	}, nil
}

// Close releases the store connection.
func (a *App) Close() {
	if a.Store != nil {
		a.Store.Close()
	}
}

// OpenStore connects to Redis or Valkey and waits until it answers PING.
// Both drivers speak RESP and are served by the same rueidis store.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig) (db.Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("%w: database address is required", domain.ErrConfiguration)
	}
	switch cfg.Driver {
	case "", "redis", "valkey":
	default:
		return nil, fmt.Errorf("%w: unknown database driver %q", domain.ErrConfiguration, cfg.Driver)
	}

	driver := cfg.Driver
	if driver == "" {
		driver = "redis"
	}
	s, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:      cfg.Addrs,
		Username:   cfg.Username,
		Password:   cfg.Password,
		DB:         cfg.DB,
		ClientName: "policyqa-" + driver,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s store: %w", driver, err)
	}

	timeout := time.Duration(cfg.ReadinessTimeout) * time.Second
	if err := s.WaitForReady(ctx, timeout); err != nil {
		s.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	return s, nil
}

// buildEmbedder assembles the decorator chain: provider -> cache -> instrumented -> instruction.
func buildEmbedder(
	cfg config.Config,
	store db.Store,
	override domain.Embedder,
	budget embeddinguc.BudgetChecker,
	logger *zap.Logger,
) (domain.Embedder, healthuc.ProviderChecker) {
	ec := cfg.Embedding

	var base domain.Embedder = override
	if base == nil {
		base = openaiTransport.NewEmbedder(&openaiTransport.Config{
			APIKey:     ec.APIKey,
			BaseURL:    ec.BaseURL,
			Model:      ec.Model,
			Dimensions: ec.Dimensions,
			Provider:   ec.Provider,
			Logger:     logger,
		})
	}

	embedder := base
	if ec.Cache.Enabled {
		embedder = embcache.New(base, store, embcache.Options{
			KeyPrefix: cfg.Store.ServiceKeyPrefix,
			Model:     ec.Model,
			TTL:       time.Duration(ec.Cache.TTLSec) * time.Second,
		}, metrics.EmbeddingCacheTotal, logger)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, ec.Provider, ec.Model, budget, logger)

	if ec.QueryInstruction != "" {
		embedder = domain.NewInstructionEmbedder(embedder, ec.QueryInstruction)
	}

	logger.Info("Embedder created",
		zap.String("provider", ec.Provider),
		zap.String("model", ec.Model),
		zap.Int("dimensions", ec.Dimensions),
		zap.Bool("cache", ec.Cache.Enabled),
	)

	return embedder, providerHealth{inner: embedder, name: "embedding"}
}

// buildGenerator returns a nil generator when no key is configured.
func buildGenerator(
	cfg config.Config, override domain.Generator, logger *zap.Logger,
) (domain.Generator, healthuc.ProviderChecker) {
	if override != nil {
		return override, providerHealth{inner: override, name: "generation"}
	}
	gc := cfg.Generation
	if !gc.Configured() {
		logger.Warn("Generation API key not found: answers are disabled, retrieval still works",
			zap.String("provider", gc.Provider))
		return nil, nil
	}

	g := openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
		APIKey:      gc.APIKey,
		BaseURL:     gc.BaseURL,
		Model:       gc.Model,
		Temperature: gc.Temperature,
		MaxTokens:   gc.MaxTokens,
		Logger:      logger,
	})
	logger.Info("Generator created", zap.String("provider", gc.Provider), zap.String("model", gc.Model))
	return g, g
}

func newTracker(
	ctx context.Context,
	provider, keyPrefix string,
	bc config.BudgetConfig,
	store db.Store,
	logger *zap.Logger,
) *budgetuc.Tracker {
	if bc.DailyTokenLimit <= 0 && bc.MonthlyTokenLimit <= 0 {
		return nil
	}
	action := budgetuc.ActionWarn
	if bc.Action == string(budgetuc.ActionReject) {
		action = budgetuc.ActionReject
	}
	t := budgetuc.NewTracker(provider, keyPrefix, budgetuc.Limits{
		Daily:   bc.DailyTokenLimit,
		Monthly: bc.MonthlyTokenLimit,
		Action:  action,
	}, logger)
	return t.WithStore(ctx, budgetrepo.New(store, budgetDailyTTL, budgetMonthlyTTL))
}

// providerHealth forwards to the provider's HealthCheck when it has one.
type providerHealth struct {
	inner any
	name  string
}

func (h providerHealth) HealthCheck(ctx context.Context) error {
	if hc, ok := h.inner.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("%s health check: %w", h.name, err)
		}
	}
	return nil
}
