package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/haierkeys/omni-blogger/pkg/app"
	"github.com/haierkeys/omni-blogger/pkg/code"

	"github.com/gin-gonic/gin"
)

// SimpleAuthTokenWithConfig 简单 Token 认证中间件，authToken 为空时不校验
// Accepts "Authorization: Bearer <token>", a raw header value, or the
// authorization query parameter.
func SimpleAuthTokenWithConfig(authToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authToken == "" {
			c.Next()
			return
		}

		var token string
		if s, exist := c.GetQuery("authorization"); exist {
			token = s
		} else if s = c.GetHeader("Authorization"); len(s) != 0 {
			token = s
		}
		if len(token) > 7 && strings.EqualFold(token[:7], "Bearer ") {
			token = token[7:]
		}

		if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(authToken)) != 1 {
			app.NewResponse(c).ToError(code.ErrorInvalidAuthToken)
			return
		}
		c.Next()
	}
}
