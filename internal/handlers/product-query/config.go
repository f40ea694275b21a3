// internal/handlers/product-query/config.go
package productquery

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 45 * time.Second,
	}
}
