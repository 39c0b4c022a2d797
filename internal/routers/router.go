package routers

import (
	"time"

	"github.com/haierkeys/omni-blogger/internal/app"
	"github.com/haierkeys/omni-blogger/internal/middleware"
	"github.com/haierkeys/omni-blogger/internal/routers/api_router"
	"github.com/haierkeys/omni-blogger/pkg/limiter"

	"github.com/gin-gonic/gin"
)

// writeLimits 写接口的限流规则，容量与填充间隔来自配置
func writeLimits(capacity int64, interval time.Duration) limiter.Face {
	rules := make([]limiter.BucketRule, 0, 4)
	for _, key := range []string{"POST /", "POST /publish", "PUT /posts/:slug", "DELETE /posts/:slug"} {
		rules = append(rules, limiter.BucketRule{
			Key:          key,
			FillInterval: interval,
			Capacity:     capacity,
			Quantum:      capacity,
		})
	}
	return limiter.NewMethodLimiter().AddBuckets(rules...)
}

// NewRouter builds the content API engine.
// NewRouter 创建内容 API 路由
func NewRouter(appContainer *app.App) *gin.Engine {

	// 获取配置
	cfg := appContainer.Config()
	lg := appContainer.Logger()

	r := gin.New()
	r.Use(middleware.AppInfoWithConfig(app.Name, appContainer.Version().Version))
	r.Use(middleware.TraceMiddlewareWithConfig(cfg.Tracer.Enabled, cfg.Tracer.Header)) // Trace ID 中间件
	r.Use(middleware.AccessLogWithLogger(lg))
	r.Use(middleware.RecoveryWithLogger(lg))

	healthHandler := api_router.NewHealthHandler(appContainer.Version(), appContainer.StartTime, appContainer.Ping, lg)
	r.GET("/health", healthHandler.Check)

	api := r.Group("/")
	{
		api.Use(middleware.RateLimiter(writeLimits(cfg.App.RateLimitCapacity, cfg.RateLimitInterval())))
		api.Use(middleware.ContextTimeout(time.Duration(cfg.App.DefaultContextTimeout) * time.Second))
		api.Use(middleware.SimpleAuthTokenWithConfig(cfg.Security.AuthToken))
		api.Use(middleware.MaxBodySize(cfg.MaxBodySize()))

		postHandler := api_router.NewPostHandler(appContainer.PostService, lg)

		api.POST("/", postHandler.Create)
		api.POST("/publish", postHandler.Create)
		api.GET("/posts", postHandler.List)
		api.GET("/posts/:slug", postHandler.Get)
		api.PUT("/posts/:slug", postHandler.Update)
		api.DELETE("/posts/:slug", postHandler.Delete)
		api.GET("/config", postHandler.Config)
	}

	r.NoRoute(middleware.NoFound())

	return r
}
