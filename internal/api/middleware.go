// internal/api/middleware.go
package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"shop-assistant/internal/common/auth"
	apperrors "shop-assistant/internal/common/errors"
	"shop-assistant/internal/common/logger"
	"shop-assistant/internal/common/metrics"
	"shop-assistant/internal/common/observability"
)

const (
	HeaderRequestID = "X-Request-ID"
	bearerPrefix    = "Bearer "
)

// TokenValidator resolves a bearer token to its claims.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*auth.Claims, error)
}

// RequestID propagates the caller's request id or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("requestId", id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// RequestLogger writes one structured entry per request.
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := map[string]interface{}{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"latencyMs": time.Since(start).Milliseconds(),
			"clientIp":  c.ClientIP(),
		}
		if id, ok := c.Get("requestId"); ok {
			fields["requestId"] = id
		}
		if userID, ok := c.Get("userId"); ok {
			fields["userId"] = userID
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		if c.Writer.Status() >= http.StatusInternalServerError {
			log.Error("request completed", fields)
			return
		}
		log.Info("request completed", fields)
	}
}

// Metrics counts requests by matched route and status.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// RequireRole admits only bearer tokens carrying role.
func RequireRole(tokens TokenValidator, errs *apperrors.ErrorHandler, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := observability.StartSpan(c.Request.Context(), "api.require_role",
			attribute.String("required.role", role))
		defer span.End()

		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			span.SetAttributes(attribute.Bool("auth.token_present", false))
			errs.Respond(c, apperrors.NewUnauthorizedError("Missing or invalid authorization header"))
			return
		}

		claims, err := tokens.ValidateToken(ctx, strings.TrimSpace(header[len(bearerPrefix):]))
		if err != nil {
			span.RecordError(err)
			errs.Respond(c, apperrors.NewUnauthorizedError("Invalid or expired token"))
			return
		}
		span.SetAttributes(attribute.String("user.id", claims.UserID))

		if claims.Role != role {
			span.SetAttributes(attribute.Bool("auth.role_authorized", false))
			c.AbortWithStatusJSON(http.StatusForbidden,
				errs.Build(apperrors.NewUnauthorizedError("Insufficient permissions")))
			return
		}

		c.Set("userId", claims.UserID)
		c.Set("role", claims.Role)
		c.Next()
	}
}
