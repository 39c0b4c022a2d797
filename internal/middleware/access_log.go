package middleware

import (
	"time"

	"github.com/haierkeys/omni-blogger/pkg/app"
	"github.com/haierkeys/omni-blogger/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AccessLogWithLogger 访问日志中间件
func AccessLogWithLogger(lg *zap.Logger) gin.HandlerFunc {
	lg = logger.OrNop(lg)
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		startTime := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String(logger.FieldMethod, c.Request.Method),
			zap.String("url", path+"?"+query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration(logger.FieldDuration, time.Since(startTime)),
			zap.String("ip", app.GetRequestIP(c)),
			zap.String("user-agent", c.Request.UserAgent()),
			zap.String(logger.FieldTraceID, app.GetTraceID(c)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String(logger.FieldError, c.Errors.String()))
		}

		if c.Writer.Status() >= 500 {
			lg.Error(path, fields...)
		} else {
			lg.Info(path, fields...)
		}
	}
}
