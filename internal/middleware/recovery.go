package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/haierkeys/omni-blogger/pkg/app"
	"github.com/haierkeys/omni-blogger/pkg/code"
	"github.com/haierkeys/omni-blogger/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecoveryWithLogger 创建带日志器的 Recovery 中间件（支持依赖注入）
func RecoveryWithLogger(lg *zap.Logger) gin.HandlerFunc {
	lg = logger.OrNop(lg)
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				var errorMsg string
				switch v := r.(type) {
				case error:
					errorMsg = v.Error()
				default:
					errorMsg = fmt.Sprintf("%v", v)
				}

				lg.Error("Recovered from panic",
					zap.String(logger.FieldPath, c.Request.URL.Path),
					zap.String(logger.FieldMethod, c.Request.Method),
					zap.String("ip", app.GetRequestIP(c)),
					zap.String(logger.FieldTraceID, app.GetTraceID(c)),
					zap.String("panic_value", errorMsg),
					zap.String("stack", string(debug.Stack())),
				)

				// 返回统一的错误响应
				app.NewResponse(c).ToError(code.ErrorServerInternal.WithDetails(errorMsg))
			}
		}()

		c.Next()
	}
}
