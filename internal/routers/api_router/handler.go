// Package api_router 提供内容 API 的 HTTP 路由处理器
package api_router

import (
	"context"
	"errors"
	"net/http"

	"github.com/haierkeys/omni-blogger/internal/middleware"
	"github.com/haierkeys/omni-blogger/pkg/code"
	"github.com/haierkeys/omni-blogger/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 基础 Handler 结构体，封装日志器
// 所有 API Handler 都应该嵌入此结构体
type Handler struct {
	logger *zap.Logger
}

// NewHandler 创建基础 Handler 实例
func NewHandler(lg *zap.Logger) *Handler {
	return &Handler{logger: logger.OrNop(lg)}
}

func (h *Handler) logError(ctx context.Context, method string, err error) {
	h.logger.Error(method,
		zap.Error(err),
		zap.String(logger.FieldTraceID, middleware.GetTraceID(ctx)),
	)
}

// bindJSON 绑定 JSON 请求体并校验 binding 标签
func bindJSON(c *gin.Context, obj interface{}) error {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return nil
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return code.ErrorBodyTooLarge
	}
	return code.ErrorInvalidParams.WithDetails(err.Error())
}
