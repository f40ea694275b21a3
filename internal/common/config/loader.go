// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	// Enable ENV override like LLM_API_KEY
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // ignore error if not found

	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = env
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig fills secrets from their conventional env names.
func overrideEmptyConfig(cfg *Config) {
	setIfEmpty(&cfg.Commerce.Store, "SHOPIFY_STORE")
	setIfEmpty(&cfg.Commerce.AccessToken, "SHOPIFY_ADMIN_API_TOKEN")
	setIfEmpty(&cfg.Auth.JWTSecret, "JWT_SECRET")
	setIfEmpty(&cfg.Database.Postgres.User, "DB_USER")
	setIfEmpty(&cfg.Database.Postgres.Password, "DB_PASSWORD")

	if cfg.LLM.APIKey == "" {
		switch cfg.LLM.Provider {
		case "openai":
			setIfEmpty(&cfg.LLM.APIKey, "OPENAI_API_KEY")
		case "anthropic":
			setIfEmpty(&cfg.LLM.APIKey, "ANTHROPIC_API_KEY")
		default:
			setIfEmpty(&cfg.LLM.APIKey, "GEMINI_API_KEY")
		}
	}
}

func setIfEmpty(field *string, envName string) {
	if *field != "" {
		return
	}
	if val := os.Getenv(envName); val != "" {
		*field = val
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "shop-assistant"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.App.Port == 0 {
		cfg.App.Port = 3000
	}

	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 120000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30000
	}

	// Database defaults
	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}

	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "postgres"
	}
	if cfg.Store.UsersTable == "" {
		cfg.Store.UsersTable = "users"
	}
	if cfg.Store.UsersIndex == "" {
		cfg.Store.UsersIndex = "users"
	}
	if cfg.Store.MaxResults == 0 {
		cfg.Store.MaxResults = 100
	}
	if cfg.Store.MaxScan == 0 {
		cfg.Store.MaxScan = 5000
	}

	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "gemini"
	}
	if cfg.LLM.Model == "" {
		switch cfg.LLM.Provider {
		case "openai":
			cfg.LLM.Model = "gpt-4o-mini"
		case "anthropic":
			cfg.LLM.Model = "claude-3-5-haiku-latest"
		default:
			cfg.LLM.Model = "gemini-1.5-flash"
		}
	}
	if cfg.LLM.QueryTemperature == 0 {
		cfg.LLM.QueryTemperature = 0.2
	}
	if cfg.LLM.ChatTemperature == 0 {
		cfg.LLM.ChatTemperature = 0.8
	}
	if cfg.LLM.MaxOutputTokens == 0 {
		cfg.LLM.MaxOutputTokens = 1024
	}

	if cfg.Commerce.APIVersion == "" {
		cfg.Commerce.APIVersion = "2025-07"
	}
	if cfg.Commerce.Timeout == 0 {
		cfg.Commerce.Timeout = 10000
	}
	if cfg.Commerce.MaxResponseBytes == 0 {
		cfg.Commerce.MaxResponseBytes = 4 << 20
	}

	if cfg.Memory.Backend == "" {
		cfg.Memory.Backend = "redis"
	}
	if cfg.Memory.TTL == 0 {
		cfg.Memory.TTL = 3600
	}
	if cfg.Memory.KeyPrefix == "" {
		cfg.Memory.KeyPrefix = "assistant:"
	}
	if cfg.Memory.SweepSchedule == "" {
		cfg.Memory.SweepSchedule = "@every 1m"
	}

	if cfg.Coupon.Currency == "" {
		cfg.Coupon.Currency = "₹"
	}
	if cfg.Coupon.NotifyConcurrency == 0 {
		cfg.Coupon.NotifyConcurrency = 5
	}
	if cfg.Coupon.NotifyTimeout == 0 {
		cfg.Coupon.NotifyTimeout = 60000
	}

	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = 24 * 60
	}
	if cfg.Auth.Issuer == "" {
		cfg.Auth.Issuer = cfg.App.Name
	}

	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = cfg.App.Name
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	switch cfg.Store.Backend {
	case "postgres":
	case "elasticsearch":
		if cfg.Database.Elasticsearch.GetURL() == "" {
			return fmt.Errorf("database.elasticsearch.addresses or url is required")
		}
	default:
		return fmt.Errorf("store.backend must be postgres or elasticsearch, got %q", cfg.Store.Backend)
	}

	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Database.Postgres.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}

	switch cfg.Memory.Backend {
	case "redis":
		if cfg.Database.Redis.Address == "" {
			return fmt.Errorf("database.redis.address is required")
		}
	case "local":
	default:
		return fmt.Errorf("memory.backend must be redis or local, got %q", cfg.Memory.Backend)
	}

	switch cfg.LLM.Provider {
	case "gemini", "openai", "anthropic":
	default:
		return fmt.Errorf("llm.provider must be gemini, openai or anthropic, got %q", cfg.LLM.Provider)
	}
	if cfg.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required")
	}

	if cfg.Commerce.Endpoint == "" && cfg.Commerce.Store == "" {
		return fmt.Errorf("commerce.store or commerce.endpoint is required")
	}

	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
