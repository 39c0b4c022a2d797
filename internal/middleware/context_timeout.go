package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/haierkeys/omni-blogger/pkg/app"
	"github.com/haierkeys/omni-blogger/pkg/code"

	"github.com/gin-gonic/gin"
)

// ContextTimeout bounds each request's context. Handlers that return
// without writing after the deadline get a 504 error body.
// ContextTimeout 请求上下文超时中间件
func ContextTimeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if timeout <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if !c.Writer.Written() && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			app.NewResponse(c).ToError(code.ErrorRequestTimeout)
		}
	}
}
