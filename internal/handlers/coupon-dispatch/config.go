// internal/handlers/coupon-dispatch/config.go
package coupondispatch

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 60 * time.Second,
	}
}
