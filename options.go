package policyqa

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/policyqa/internal/config"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	cfg config.Config

	embedder  Embedder
	generator Generator

	logger     *slog.Logger
	zapLogger  *zap.Logger
	metricsReg prometheus.Registerer
}

// WithRedis connects to a Redis instance with the search module.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Database.Driver = "redis"
		c.cfg.Database.Addrs = []string{addr}
		c.cfg.Database.Password = password
	})
}

// WithValkey connects to a Valkey instance with valkey-search.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Database.Driver = "valkey"
		c.cfg.Database.Addrs = []string{addr}
		c.cfg.Database.Password = password
	})
}

// WithIndex overrides the index name and document key prefix.
// Defaults: "climate_laws_nap" and "climate:".
func WithIndex(name, keyPrefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Store.IndexName = name
		c.cfg.Store.KeyPrefix = keyPrefix
	})
}

// WithEmbedding configures the OpenAI-compatible embeddings endpoint.
// dimensions must match the vectors written at ingestion.
func WithEmbedding(baseURL, apiKey, model string, dimensions int) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Embedding.BaseURL = baseURL
		c.cfg.Embedding.APIKey = apiKey
		c.cfg.Embedding.Model = model
		c.cfg.Embedding.Dimensions = dimensions
	})
}

// WithEmbeddingCache caches query vectors in the store. ttl 0 keeps them forever.
func WithEmbeddingCache(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Embedding.Cache.Enabled = true
		c.cfg.Embedding.Cache.TTLSec = int(ttl / time.Second)
	})
}

// WithEmbedder replaces the built-in embeddings client.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithGemini sets the Gemini API key. An empty model keeps "gemini-2.5-flash".
// Without a key (or a Generator) every answer fails with ErrConfiguration.
func WithGemini(apiKey, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Generation.APIKey = apiKey
		if model != "" {
			c.cfg.Generation.Model = model
		}
	})
}

// WithGenerator replaces the built-in generative model client.
func WithGenerator(g Generator) Option {
	return optionFunc(func(c *clientConfig) {
		c.generator = g
	})
}

// WithTopK sets the default number of retrieved documents and its upper bound.
// Defaults: 5 and 50.
func WithTopK(defaultK, maxK int) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Retrieval.DefaultK = defaultK
		c.cfg.Retrieval.MaxK = maxK
	})
}

// WithDedupe drops chunks that repeat the same text from the same source file.
func WithDedupe() Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Retrieval.Dedupe = true
	})
}

// WithTimeout bounds one synthesis, retries included. Default: 60s.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Generation.TimeoutSec = max(1, int(d/time.Second))
	})
}

// WithRetries sets extra generation attempts after the first and the initial backoff.
func WithRetries(n int, backoff time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Generation.MaxRetries = n
		c.cfg.Generation.RetryBackoffMs = int(backoff / time.Millisecond)
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithZapLogger sets the logger of the underlying pipeline. Default: no-op.
func WithZapLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.zapLogger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
