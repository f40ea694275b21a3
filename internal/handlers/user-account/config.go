// internal/handlers/user-account/config.go
package useraccount

import "time"

type Config struct {
	Timeout     time.Duration
	DefaultRole string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:     10 * time.Second,
		DefaultRole: "user",
	}
}
