package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the policyqa service configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Store      StoreConfig      `yaml:"store"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`

	CORSOrigins []string `yaml:"cors_origins"` // empty disables CORS
}

// DatabaseConfig holds vector store connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis, valkey (default: redis)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// StoreConfig describes the layout of the pre-ingested document index.
type StoreConfig struct {
	KeyPrefix        string      `yaml:"key_prefix"`
	ServiceKeyPrefix string      `yaml:"service_key_prefix"` // embedding cache and budget counters
	IndexName        string      `yaml:"index_name"`
	DistanceMetric   string      `yaml:"distance_metric"` // cosine, l2, ip
	Fields           FieldConfig `yaml:"fields"`
}

// FieldConfig maps logical document fields to hash field names.
type FieldConfig struct {
	Content    string `yaml:"content"`
	Country    string `yaml:"country"`
	DocType    string `yaml:"doc_type"`
	SourceFile string `yaml:"source_file"`
	Vector     string `yaml:"vector"`
}

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// CacheConfig holds query embedding cache settings.
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	TTLSec  int  `yaml:"ttl_sec"` // 0 = no expiry
}

// EmbeddingConfig holds the query vectorizer settings.
type EmbeddingConfig struct {
	Provider         string       `yaml:"provider"` // label for metrics and budget keys
	APIKey           string       `yaml:"api_key"`
	BaseURL          string       `yaml:"base_url"`
	Model            string       `yaml:"model"`
	Dimensions       int          `yaml:"dimensions"`
	QueryInstruction string       `yaml:"query_instruction"`
	Cache            CacheConfig  `yaml:"cache"`
	Budget           BudgetConfig `yaml:"budget"`
}

// GenerationConfig holds the answer model settings.
type GenerationConfig struct {
	Provider       string       `yaml:"provider"`
	APIKey         string       `yaml:"api_key"`
	BaseURL        string       `yaml:"base_url"`
	Model          string       `yaml:"model"`
	TimeoutSec     int          `yaml:"timeout_sec"`
	Temperature    float32      `yaml:"temperature"`
	MaxTokens      int          `yaml:"max_tokens"`
	MaxRetries     int          `yaml:"max_retries"`
	RetryBackoffMs int          `yaml:"retry_backoff_ms"`
	Budget         BudgetConfig `yaml:"budget"`
}

// Configured reports whether an API key is present.
func (g GenerationConfig) Configured() bool {
	return strings.TrimSpace(g.APIKey) != ""
}

// Timeout returns the per-call deadline.
func (g GenerationConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSec) * time.Second
}

// RetryBackoff returns the base delay between retries.
func (g GenerationConfig) RetryBackoff() time.Duration {
	return time.Duration(g.RetryBackoffMs) * time.Millisecond
}

// RetrievalConfig holds context retrieval settings.
type RetrievalConfig struct {
	DefaultK int  `yaml:"default_k"`
	MaxK     int  `yaml:"max_k"`
	Dedupe   bool `yaml:"dedupe"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit YAML path.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	return Parse(data)
}

// Parse decodes YAML config data, expanding ${VAR} references, then applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 90
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	if c.Database.Driver == "" {
		c.Database.Driver = "redis"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}

	if c.Store.KeyPrefix == "" {
		c.Store.KeyPrefix = "climate:"
	}
	if c.Store.ServiceKeyPrefix == "" {
		c.Store.ServiceKeyPrefix = "policyqa:"
	}
	if c.Store.IndexName == "" {
		c.Store.IndexName = "climate_laws_nap"
	}
	if c.Store.DistanceMetric == "" {
		c.Store.DistanceMetric = "cosine"
	}
	f := &c.Store.Fields
	setDefault(&f.Content, "content")
	setDefault(&f.Country, "country")
	setDefault(&f.DocType, "doc_type")
	setDefault(&f.SourceFile, "source_file")
	setDefault(&f.Vector, "vector")

	setDefault(&c.Embedding.Provider, "embeddings")
	setDefault(&c.Embedding.Model, "sentence-transformers/all-MiniLM-L6-v2")
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 384
	}

	setDefault(&c.Generation.Provider, "gemini")
	setDefault(&c.Generation.BaseURL, "https://generativelanguage.googleapis.com/v1beta/openai")
	setDefault(&c.Generation.Model, "gemini-2.5-flash")
	if c.Generation.TimeoutSec <= 0 {
		c.Generation.TimeoutSec = 60
	}
	if c.Generation.RetryBackoffMs <= 0 {
		c.Generation.RetryBackoffMs = 500
	}

	if c.Retrieval.DefaultK <= 0 {
		c.Retrieval.DefaultK = 5
	}
	if c.Retrieval.MaxK <= 0 {
		c.Retrieval.MaxK = 50
	}
}

func setDefault(field *string, val string) {
	if *field == "" {
		*field = val
	}
}

// Validate checks the configuration for correctness.
// A missing generation key is allowed: retrieval keeps working and synthesis reports it.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case "redis", "valkey":
	default:
		return fmt.Errorf("database.driver must be \"redis\" or \"valkey\", got %q", c.Database.Driver)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Database.DB < 0 {
		return fmt.Errorf("database.db must not be negative, got %d", c.Database.DB)
	}
	// service keys must stay out of the document scan
	if strings.HasPrefix(c.Store.ServiceKeyPrefix, c.Store.KeyPrefix) {
		return fmt.Errorf("store.service_key_prefix %q must not start with store.key_prefix %q",
			c.Store.ServiceKeyPrefix, c.Store.KeyPrefix)
	}
	switch c.Store.DistanceMetric {
	case "cosine", "l2", "ip":
	default:
		return fmt.Errorf("store.distance_metric must be cosine, l2 or ip, got %q", c.Store.DistanceMetric)
	}
	if c.Retrieval.DefaultK > c.Retrieval.MaxK {
		return fmt.Errorf("retrieval.default_k (%d) must not exceed retrieval.max_k (%d)",
			c.Retrieval.DefaultK, c.Retrieval.MaxK)
	}
	if c.Generation.MaxRetries < 0 {
		return fmt.Errorf("generation.max_retries must not be negative, got %d", c.Generation.MaxRetries)
	}
	if c.Generation.Temperature < 0 || c.Generation.Temperature > 2 {
		return fmt.Errorf("generation.temperature must be between 0 and 2, got %v", c.Generation.Temperature)
	}
	for name, b := range map[string]BudgetConfig{"embedding": c.Embedding.Budget, "generation": c.Generation.Budget} {
		switch b.Action {
		case "", "warn", "reject":
		default:
			return fmt.Errorf("%s.budget.action must be \"warn\" or \"reject\", got %q", name, b.Action)
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// relative to the source file, for tests and `go run` from subdirectories
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
