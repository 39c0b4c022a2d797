package api_router

import (
	"net/http"
	"strings"

	"github.com/haierkeys/omni-blogger/internal/service"
	pkgapp "github.com/haierkeys/omni-blogger/pkg/app"
	"github.com/haierkeys/omni-blogger/pkg/code"
	"github.com/haierkeys/omni-blogger/pkg/contentapi"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PostHandler 文章 API 路由处理器
type PostHandler struct {
	*Handler
	svc service.PostService
}

// NewPostHandler 创建 PostHandler 实例
func NewPostHandler(svc service.PostService, lg *zap.Logger) *PostHandler {
	return &PostHandler{Handler: NewHandler(lg), svc: svc}
}

// CreatePostRequest 新建文章请求
type CreatePostRequest struct {
	Filename string             `json:"filename" binding:"required"`
	Content  string             `json:"content" binding:"required"`
	Images   []contentapi.Image `json:"images"`
}

// UpdatePostRequest 更新文章请求，sha 为编辑时加载的版本
type UpdatePostRequest struct {
	Content string `json:"content" binding:"required"`
	Version string `json:"sha" binding:"required"`
}

// DeletePostRequest 删除文章请求
type DeletePostRequest struct {
	Version string `json:"sha"`
}

// Create 发布新文章
// @Summary 发布文章
// @Description 写入 Markdown 文章与图片并触发构建，重复提交相同文件名会覆盖
// @Tags 文章
// @Security AuthToken
// @Accept json
// @Produce json
// @Param params body CreatePostRequest true "文章内容"
// @Success 200 {object} contentapi.CreateResult
// @Router / [post]
// @Router /publish [post]
func (h *PostHandler) Create(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &CreatePostRequest{}
	if err := bindJSON(c, params); err != nil {
		response.ToError(err)
		return
	}

	ctx := c.Request.Context()
	res, err := h.svc.Create(ctx, &contentapi.CreateRequest{
		Filename: params.Filename,
		Content:  params.Content,
		Images:   params.Images,
	})
	observe("create", err)
	if err != nil {
		h.logError(ctx, "PostHandler.Create", err)
		response.ToError(err)
		return
	}
	response.ToJSON(http.StatusOK, res)
}

// Update 更新文章
// @Summary 更新文章
// @Description 版本一致时覆盖文章内容，版本不一致返回 409
// @Tags 文章
// @Security AuthToken
// @Accept json
// @Produce json
// @Param slug path string true "文章 slug"
// @Param params body UpdatePostRequest true "文章内容与版本"
// @Success 200 {object} contentapi.UpdateResult
// @Failure 409 {object} errors.AppError
// @Router /posts/{slug} [put]
func (h *PostHandler) Update(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &UpdatePostRequest{}
	if err := bindJSON(c, params); err != nil {
		response.ToError(err)
		return
	}

	ctx := c.Request.Context()
	res, err := h.svc.Update(ctx, c.Param("slug"), &contentapi.UpdateRequest{
		Content: params.Content,
		Version: params.Version,
	})
	observe("update", err)
	if err != nil {
		h.logError(ctx, "PostHandler.Update", err)
		response.ToError(err)
		return
	}
	response.ToJSON(http.StatusOK, res)
}

// Get 读取文章
// @Summary 读取文章
// @Tags 文章
// @Security AuthToken
// @Produce json
// @Param slug path string true "文章 slug"
// @Success 200 {object} contentapi.Post
// @Router /posts/{slug} [get]
func (h *PostHandler) Get(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	ctx := c.Request.Context()

	post, err := h.svc.Get(ctx, c.Param("slug"))
	observe("get", err)
	if err != nil {
		h.logError(ctx, "PostHandler.Get", err)
		response.ToError(err)
		return
	}
	response.ToJSON(http.StatusOK, post)
}

// Delete 删除文章
// The version comes from the JSON body; ?sha= is accepted for clients that
// cannot send a DELETE body.
// @Summary 删除文章
// @Tags 文章
// @Security AuthToken
// @Accept json
// @Produce json
// @Param slug path string true "文章 slug"
// @Param params body DeletePostRequest true "文章版本"
// @Success 200 {object} contentapi.DeleteResult
// @Router /posts/{slug} [delete]
func (h *PostHandler) Delete(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &DeletePostRequest{}
	if c.Request.ContentLength != 0 {
		if err := bindJSON(c, params); err != nil {
			response.ToError(err)
			return
		}
	}
	if params.Version == "" {
		params.Version = strings.TrimSpace(c.Query("sha"))
	}
	if params.Version == "" {
		response.ToError(code.ErrorInvalidParams.WithDetails("sha is required"))
		return
	}

	ctx := c.Request.Context()
	err := h.svc.Delete(ctx, c.Param("slug"), params.Version)
	observe("delete", err)
	if err != nil {
		h.logError(ctx, "PostHandler.Delete", err)
		response.ToError(err)
		return
	}
	response.ToJSON(http.StatusOK, contentapi.DeleteResult{Success: true})
}

// List 文章列表
// @Summary 文章列表
// @Description 按日期倒序列出所有文章
// @Tags 文章
// @Security AuthToken
// @Produce json
// @Success 200 {object} contentapi.PostList
// @Router /posts [get]
func (h *PostHandler) List(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	ctx := c.Request.Context()

	posts, err := h.svc.List(ctx)
	observe("list", err)
	if err != nil {
		h.logError(ctx, "PostHandler.List", err)
		response.ToError(err)
		return
	}
	if posts == nil {
		posts = []contentapi.PostSummary{}
	}
	response.ToJSON(http.StatusOK, contentapi.PostList{Posts: posts})
}

// Config 站点配置
// @Summary 站点配置
// @Tags 系统
// @Produce json
// @Success 200 {object} contentapi.RemoteConfig
// @Router /config [get]
func (h *PostHandler) Config(c *gin.Context) {
	pkgapp.NewResponse(c).ToJSON(http.StatusOK, h.svc.SiteConfig())
}
