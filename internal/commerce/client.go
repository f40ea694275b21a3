// Package commerce talks to the Shopify Admin GraphQL API.
package commerce

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"shop-assistant/internal/common/config"
	apperrors "shop-assistant/internal/common/errors"
	apphttp "shop-assistant/internal/common/http"
	"shop-assistant/internal/common/logger"
	"shop-assistant/internal/common/metrics"
)

const serviceName = "commerce"

// Client issues one GraphQL POST per query. It never retries.
type Client struct {
	http     *apphttp.Client
	endpoint string
	token    string
	logger   logger.Logger
}

func NewClient(cfg config.CommerceConfig, log logger.Logger) *Client {
	return &Client{
		http:     apphttp.NewClient(config.GetDuration(cfg.Timeout), cfg.MaxResponseBytes),
		endpoint: cfg.GetEndpoint(),
		token:    cfg.AccessToken,
		logger:   log.WithFields(map[string]interface{}{"component": serviceName}),
	}
}

type graphQLRequest struct {
	Query string `json:"query"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors json.RawMessage `json:"errors"`
}

// Query posts the document and returns the data member of the response.
func (c *Client) Query(ctx context.Context, query string) (json.RawMessage, error) {
	start := time.Now()
	resp, err := c.http.PostJSON(ctx, c.endpoint, map[string]string{
		"X-Shopify-Access-Token": c.token,
	}, graphQLRequest{Query: query})
	if err != nil {
		if apphttp.IsTimeout(err) {
			metrics.CommerceCalls.WithLabelValues("timeout").Inc()
			c.logger.Warn("commerce request timed out", map[string]interface{}{"durationMs": time.Since(start).Milliseconds()})
			return nil, apperrors.NewUpstreamTimeoutError(serviceName, err)
		}
		metrics.CommerceCalls.WithLabelValues("failed").Inc()
		return nil, apperrors.NewUpstreamFailedError(serviceName, err)
	}

	var body graphQLResponse
	decodeErr := json.Unmarshal(resp.Body, &body)

	if decodeErr == nil {
		if messages := errorMessages(body.Errors); len(messages) > 0 {
			metrics.CommerceCalls.WithLabelValues("rejected").Inc()
			c.logger.Warn("commerce rejected query", map[string]interface{}{
				"status": resp.StatusCode,
				"errors": messages,
			})
			return nil, apperrors.NewUpstreamRejectedError(serviceName, messages)
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.CommerceCalls.WithLabelValues("failed").Inc()
		return nil, apperrors.NewUpstreamFailedError(serviceName, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	if decodeErr != nil {
		metrics.CommerceCalls.WithLabelValues("failed").Inc()
		return nil, apperrors.NewUpstreamFailedError(serviceName, fmt.Errorf("decode response: %w", decodeErr))
	}

	metrics.CommerceCalls.WithLabelValues("ok").Inc()
	c.logger.Debug("commerce query completed", map[string]interface{}{
		"status":     resp.StatusCode,
		"durationMs": time.Since(start).Milliseconds(),
	})
	return body.Data, nil
}

// errorMessages accepts both the GraphQL error list and the plain string
// form returned for authentication failures.
func errorMessages(raw json.RawMessage) []string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var list []struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &list); err == nil {
		out := make([]string, 0, len(list))
		for _, e := range list {
			if e.Message != "" {
				out = append(out, e.Message)
			}
		}
		return out
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil && single != "" {
		return []string{single}
	}
	return []string{string(raw)}
}
