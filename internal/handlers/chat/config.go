// internal/handlers/chat/config.go
package chat

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 60 * time.Second,
	}
}
