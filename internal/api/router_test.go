// internal/api/router_test.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop-assistant/internal/common/auth"
	apperrors "shop-assistant/internal/common/errors"
	"shop-assistant/internal/common/logger"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func newTestRouter(readiness map[string]Pinger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logger.NewNoOpLogger()
	return NewRouter(Options{
		Readiness: readiness,
		Errors:    apperrors.NewErrorHandler(log, false),
		Logger:    log,
	})
}

func do(router http.Handler, method, path string, header map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	router.ServeHTTP(w, req)
	return w
}

// ==========================
// Probes
// ==========================

func TestHealth(t *testing.T) {
	w := do(newTestRouter(nil), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReady(t *testing.T) {
	ok := pingerFunc(func(context.Context) error { return nil })
	down := pingerFunc(func(context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name       string
		checks     map[string]Pinger
		wantStatus int
		wantLabel  string
	}{
		{name: "all healthy", checks: map[string]Pinger{"store": ok, "memory": ok}, wantStatus: http.StatusOK, wantLabel: "ready"},
		{name: "memory down", checks: map[string]Pinger{"store": ok, "memory": down}, wantStatus: http.StatusServiceUnavailable, wantLabel: "not ready"},
		{name: "no checks", checks: nil, wantStatus: http.StatusOK, wantLabel: "ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(newTestRouter(tt.checks), http.MethodGet, "/ready", nil)
			assert.Equal(t, tt.wantStatus, w.Code)

			var body struct {
				Status string            `json:"status"`
				Checks map[string]string `json:"checks"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantLabel, body.Status)
			if tt.wantStatus != http.StatusOK {
				assert.Equal(t, "connection refused", body.Checks["memory"])
				assert.Equal(t, "ok", body.Checks["store"])
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(nil)
	do(router, http.MethodGet, "/health", nil)

	w := do(router, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `assistant_http_requests_total{route="/health",status="200"}`)
}

// ==========================
// Middleware
// ==========================

func TestRequestID(t *testing.T) {
	router := newTestRouter(nil)

	t.Run("generated", func(t *testing.T) {
		w := do(router, http.MethodGet, "/health", nil)
		assert.Len(t, w.Header().Get(HeaderRequestID), 36)
	})

	t.Run("propagated", func(t *testing.T) {
		w := do(router, http.MethodGet, "/health", map[string]string{HeaderRequestID: "req-123"})
		assert.Equal(t, "req-123", w.Header().Get(HeaderRequestID))
	})
}

func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens, err := auth.NewTokenManager("test-secret", "shop-assistant", time.Hour)
	require.NoError(t, err)

	adminToken, err := tokens.GenerateToken(context.Background(), "u-admin", "admin@example.com", "admin")
	require.NoError(t, err)
	userToken, err := tokens.GenerateToken(context.Background(), "u-1", "ada@example.com", "user")
	require.NoError(t, err)

	log := logger.NewNoOpLogger()
	router := gin.New()
	router.POST("/coupons", RequireRole(tokens, apperrors.NewErrorHandler(log, false), "admin"), func(c *gin.Context) {
		userID, _ := c.Get("userId")
		c.JSON(http.StatusOK, gin.H{"userId": userID})
	})

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "admin", header: "Bearer " + adminToken, wantStatus: http.StatusOK},
		{name: "plain user", header: "Bearer " + userToken, wantStatus: http.StatusForbidden},
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + adminToken, wantStatus: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer not-a-token", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := map[string]string{}
			if tt.header != "" {
				header["Authorization"] = tt.header
			}
			w := do(router, http.MethodPost, "/coupons", header)
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.True(t, strings.Contains(w.Body.String(), "u-admin"))
			}
		})
	}
}
