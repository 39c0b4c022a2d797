package main

import (
	_ "embed"

	"github.com/haierkeys/omni-blogger/cmd"
)

//go:embed config/config.yaml
var c string

//go:generate swag init -g main.go -o docs --parseDependency

// @title omni-blogger content API
// @version 1.0
// @description 博客内容 API：发布、更新、删除与列出文章
// @BasePath /
// @securityDefinitions.apikey AuthToken
// @in header
// @name Authorization
// @description Bearer token，值为 security.auth-token
func main() {
	cmd.Execute(c)
}
