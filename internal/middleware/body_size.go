package middleware

import (
	"net/http"

	"github.com/haierkeys/omni-blogger/pkg/app"
	"github.com/haierkeys/omni-blogger/pkg/code"

	"github.com/gin-gonic/gin"
)

// MaxBodySize 限制请求体大小，limit <= 0 时不限制
// Requests announcing a larger Content-Length are rejected up front; bodies
// without a length fail on read once the limit is crossed.
func MaxBodySize(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > limit {
			app.NewResponse(c).ToError(code.ErrorBodyTooLarge)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
