package api_router

import (
	"context"
	"time"

	pkgapp "github.com/haierkeys/omni-blogger/pkg/app"
	"github.com/haierkeys/omni-blogger/pkg/code"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthHandler 健康检查处理器
type HealthHandler struct {
	*Handler
	version   pkgapp.VersionInfo
	startTime time.Time
	ping      func(ctx context.Context) error
}

// NewHealthHandler 创建健康检查处理器实例，ping 为空时不检查数据库
func NewHealthHandler(version pkgapp.VersionInfo, startTime time.Time, ping func(ctx context.Context) error, lg *zap.Logger) *HealthHandler {
	return &HealthHandler{Handler: NewHandler(lg), version: version, startTime: startTime, ping: ping}
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status    string  `json:"status"`    // "healthy" 或 "unhealthy"
	Version   string  `json:"version"`   // 服务版本号
	GitTag    string  `json:"gitTag"`    // Git 标签
	BuildTime string  `json:"buildTime"` // 构建时间
	Uptime    float64 `json:"uptime"`    // 运行时间（秒）
	Database  string  `json:"database"`  // "connected" 或 "error"
}

// Check 健康检查接口
// @Summary 健康检查
// @Description 检查服务健康状态，包括数据库连接
// @Tags 系统
// @Produce json
// @Success 200 {object} pkgapp.Res{data=HealthResponse}
// @Router /health [get]
func (h *HealthHandler) Check(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Version:   h.version.Version,
		GitTag:    h.version.GitTag,
		BuildTime: h.version.BuildTime,
		Uptime:    time.Since(h.startTime).Seconds(),
		Database:  "connected",
	}

	// 检查数据库连接
	if h.ping != nil {
		if err := h.ping(c.Request.Context()); err != nil {
			h.logError(c.Request.Context(), "HealthHandler.Check", err)
			response.Status = "unhealthy"
			response.Database = "error"
			pkgapp.NewResponse(c).ToResponse(code.ErrorServerInternal.WithData(response))
			return
		}
	}

	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(response))
}
