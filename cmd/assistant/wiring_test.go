// cmd/assistant/wiring_test.go
package main

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"shop-assistant/internal/common/logger"
)

func TestRetryWithBackoff(t *testing.T) {
	log := logger.NewNoOpLogger()

	t.Run("succeeds after transient failures", func(t *testing.T) {
		attempts := 0
		err := retryWithBackoff(func() error {
			attempts++
			if attempts < 3 {
				return errors.New("connection refused")
			}
			return nil
		}, 5, time.Millisecond, log, "PostgreSQL connection")

		assert.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("gives up", func(t *testing.T) {
		cause := errors.New("no route to host")
		attempts := 0
		err := retryWithBackoff(func() error {
			attempts++
			return cause
		}, 3, time.Millisecond, log, "Redis connection")

		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "Redis connection failed after 3 attempts")
		assert.Equal(t, 3, attempts)
	})
}
