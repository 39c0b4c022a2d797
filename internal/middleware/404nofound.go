package middleware

import (
	"github.com/haierkeys/omni-blogger/pkg/app"
	"github.com/haierkeys/omni-blogger/pkg/code"

	"github.com/gin-gonic/gin"
)

// NoFound 未匹配路由时返回统一的 404 错误结构
func NoFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		app.NewResponse(c).ToError(code.ErrorNotFound.WithDetails(c.Request.Method + " " + c.Request.URL.Path))
	}
}
