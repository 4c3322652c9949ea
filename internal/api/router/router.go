package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"layup-scheduler/config"
	"layup-scheduler/internal/api/handler"
	"layup-scheduler/internal/api/middleware"
)

// Pinger 健康检查依赖（数据库 / Redis）
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps 路由依赖；Redis / Limiter 为 nil 时对应能力降级
type Deps struct {
	DB      Pinger
	Redis   Pinger
	Limiter middleware.RateLimiter
}

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, deps Deps, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	if cfg.Server.MaxBodyBytes > 0 {
		r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))
	}

	// ── 健康检查 / 指标 ──
	r.GET("/health", health(deps))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 排产计算接口限流
	limit := middleware.RateLimit(deps.Limiter, cfg.Server.RateLimit.Limit, cfg.Server.RateLimit.Window)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		layup := v1.Group("/layup")
		{
			layup.POST("/runs", limit, h.Layup.CreateRun)
			layup.POST("/runs/dry", limit, h.Layup.DryRun)
			layup.POST("/scenarios", limit, h.Layup.CompareScenarios)
			layup.GET("/runs/:id", h.Layup.GetRun)
			layup.POST("/runs/:id/publish", h.Layup.PublishRun)
			layup.GET("/runs/:id/export", h.Export.ExportRun)
			layup.POST("/adjustments", h.Adjustment.RunAdjustments)
		}
	}

	return r
}

// health 数据库不可用时返回 503；Redis 不可用只标记为 degraded
func health(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := gin.H{"status": "ok", "db": "ok", "redis": "disabled"}

		if deps.DB != nil {
			if err := deps.DB.Ping(ctx); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "down"
				body["db"] = "down"
			}
		}
		if deps.Redis != nil {
			body["redis"] = "ok"
			if err := deps.Redis.Ping(ctx); err != nil {
				body["redis"] = "down"
				if status == http.StatusOK {
					body["status"] = "degraded"
				}
			}
		}

		c.JSON(status, body)
	}
}
