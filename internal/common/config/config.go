// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Store         StoreConfig         `mapstructure:"store"`
	LLM           LLMConfig           `mapstructure:"llm"`
	Commerce      CommerceConfig      `mapstructure:"commerce"`
	Memory        MemoryConfig        `mapstructure:"memory"`
	Coupon        CouponConfig        `mapstructure:"coupon"`
	Auth          AuthConfig          `mapstructure:"auth"`
	Integrations  IntegrationConfig   `mapstructure:"integrations"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Logging       LoggingConfig       `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Port        int    `mapstructure:"port"`
}

// IsDevelopment reports whether error responses may carry internal details.
func (a AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

type ServerConfig struct {
	ReadTimeout     int `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int `mapstructure:"shutdown_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"` // Single URL for backwards compatibility
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// StoreConfig selects the backend behind the structured-store query path.
type StoreConfig struct {
	Backend    string `mapstructure:"backend"` // postgres | elasticsearch
	UsersTable string `mapstructure:"users_table"`
	UsersIndex string `mapstructure:"users_index"`
	MaxResults int    `mapstructure:"max_results"`
	MaxScan    int    `mapstructure:"max_scan"`
}

// LLMConfig holds the text-completion provider settings.
type LLMConfig struct {
	Provider         string  `mapstructure:"provider"` // gemini | openai | anthropic
	Model            string  `mapstructure:"model"`
	APIKey           string  `mapstructure:"api_key"`
	BaseURL          string  `mapstructure:"base_url"`
	QueryTemperature float32 `mapstructure:"query_temperature"`
	ChatTemperature  float32 `mapstructure:"chat_temperature"`
	MaxOutputTokens  int     `mapstructure:"max_output_tokens"`
}

// CommerceConfig holds the Shopify Admin GraphQL settings.
type CommerceConfig struct {
	Store       string `mapstructure:"store"`
	AccessToken string `mapstructure:"access_token"`
	APIVersion  string `mapstructure:"api_version"`
	Endpoint    string `mapstructure:"endpoint"` // overrides the derived shop URL
	Timeout     int    `mapstructure:"timeout"`  // milliseconds

	// MaxResponseBytes caps the GraphQL response body.
	MaxResponseBytes int64 `mapstructure:"max_response_bytes"`
}

// GetEndpoint returns the GraphQL endpoint for the configured shop.
func (c CommerceConfig) GetEndpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return fmt.Sprintf("https://%s.myshopify.com/admin/api/%s/graphql.json", c.Store, c.APIVersion)
}

// MemoryConfig holds the follow-up memory settings.
type MemoryConfig struct {
	Backend       string `mapstructure:"backend"` // redis | local
	TTL           int    `mapstructure:"ttl"`     // seconds
	KeyPrefix     string `mapstructure:"key_prefix"`
	SweepSchedule string `mapstructure:"sweep_schedule"`
}

// CouponConfig holds coupon campaign settings.
type CouponConfig struct {
	Currency          string `mapstructure:"currency"`
	NotifyConcurrency int    `mapstructure:"notify_concurrency"`
	NotifyTimeout     int    `mapstructure:"notify_timeout"` // milliseconds
}

// AuthConfig holds user-account token settings.
type AuthConfig struct {
	JWTSecret      string `mapstructure:"jwt_secret"`
	TokenTTL       int    `mapstructure:"token_ttl"` // minutes
	Issuer         string `mapstructure:"issuer"`
	ProtectCoupons bool   `mapstructure:"protect_coupons"`
}

// IntegrationConfig holds settings for email and messaging services.
type IntegrationConfig struct {
	AWS struct {
		Region string `mapstructure:"region"`
		SES    struct {
			Enabled   bool   `mapstructure:"enabled"`
			FromEmail string `mapstructure:"from_email"`
		} `mapstructure:"ses"`
		SNS struct {
			Enabled  bool   `mapstructure:"enabled"`
			TopicARN string `mapstructure:"topic_arn"`
		} `mapstructure:"sns"`
	} `mapstructure:"aws"`
}

// ObservabilityConfig holds tracing settings.
type ObservabilityConfig struct {
	ServiceName    string `mapstructure:"service_name"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
