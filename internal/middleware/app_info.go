package middleware

import (
	"github.com/gin-gonic/gin"
)

// AppInfoHeader 响应头中的服务版本
const AppInfoHeader = "X-Omni-Blogger-Version"

// AppInfoWithConfig 在上下文与响应头中写入应用名称和版本
func AppInfoWithConfig(name, version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("app_name", name)
		c.Set("app_version", version)
		c.Header(AppInfoHeader, version)
		c.Next()
	}
}
