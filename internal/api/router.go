// internal/api/router.go
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "shop-assistant/internal/common/errors"
	"shop-assistant/internal/common/logger"
	chat "shop-assistant/internal/handlers/chat"
	cd "shop-assistant/internal/handlers/coupon-dispatch"
	pdq "shop-assistant/internal/handlers/product-query"
	prq "shop-assistant/internal/handlers/prompt-query"
	ua "shop-assistant/internal/handlers/user-account"
)

const readinessTimeout = 2 * time.Second

// Pinger is a dependency probed by /ready.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers groups the route handlers. Nil handlers are not mounted.
type Handlers struct {
	Prompt   *prq.Handler
	Chat     *chat.Handler
	Products *pdq.Handler
	Coupons  *cd.Handler
	Accounts *ua.Handler
}

type Options struct {
	Handlers       Handlers
	Tokens         TokenValidator
	ProtectCoupons bool
	Readiness      map[string]Pinger
	Errors         *apperrors.ErrorHandler
	Logger         logger.Logger
}

func NewRouter(opts Options) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), RequestLogger(opts.Logger), Metrics())

	router.GET("/health", health)
	router.GET("/ready", ready(opts.Readiness))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := opts.Handlers
	if h.Prompt != nil {
		router.POST(prq.Route, h.Prompt.Handle)
	}
	if h.Chat != nil {
		router.POST(chat.Route, h.Chat.Handle)
	}
	if h.Products != nil {
		router.POST(pdq.Route, h.Products.Handle)
	}
	if h.Coupons != nil {
		if opts.ProtectCoupons && opts.Tokens != nil {
			router.POST(cd.Route, RequireRole(opts.Tokens, opts.Errors, "admin"), h.Coupons.Handle)
		} else {
			router.POST(cd.Route, h.Coupons.Handle)
		}
	}
	if h.Accounts != nil {
		router.POST(ua.RegisterRoute, h.Accounts.Register)
		router.POST(ua.LoginRoute, h.Accounts.Login)
	}

	return router
}

func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func ready(checks map[string]Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, p := range checks {
			if err := p.Ping(ctx); err != nil {
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}

		label := "ready"
		if status != http.StatusOK {
			label = "not ready"
		}
		c.JSON(status, gin.H{"status": label, "checks": results})
	}
}
