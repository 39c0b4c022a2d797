package app

import (
	"errors"
	"net/http"
	"time"

	"github.com/haierkeys/omni-blogger/pkg/code"
	apperrors "github.com/haierkeys/omni-blogger/pkg/errors"

	"github.com/gin-gonic/gin"
)

// TraceIDKey 请求上下文中追踪 ID 的键
const TraceIDKey = "trace_id"

// VersionInfo version information // 版本信息
type VersionInfo struct {
	Version   string `json:"version"`
	GitTag    string `json:"gitTag"`
	BuildTime string `json:"buildTime"`
}

type Response struct {
	Ctx *gin.Context
}

// Res is the envelope for service endpoints (health, version)
// Res 服务类接口的统一响应结构
type Res struct {
	Code    int         `json:"code"`
	Status  bool        `json:"status"`
	Message interface{} `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

func NewResponse(ctx *gin.Context) *Response {
	return &Response{
		Ctx: ctx,
	}
}

// GetRequestIP gets the request IP
// GetRequestIP 获取ip
func GetRequestIP(c *gin.Context) string {
	reqIP := c.ClientIP()
	if reqIP == "::1" {
		reqIP = "127.0.0.1"
	}
	return reqIP
}

// GetTraceID 获取当前请求的追踪 ID
func GetTraceID(c *gin.Context) string {
	if v, ok := c.Get(TraceIDKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// ToResponse 输出 Res 包装的响应
func (r *Response) ToResponse(codeObj *code.Code) {
	content := Res{
		Code:    codeObj.Code(),
		Status:  codeObj.Status(),
		Message: codeObj.Lang.GetMessage(),
		Data:    codeObj.Data(),
	}
	if codeObj.HaveDetails() {
		content.Details = codeObj.Details()
	}
	r.send(codeObj.StatusCode(), content)
}

// ToJSON writes a bare payload; the content API answers with plain objects.
// ToJSON 直接输出数据对象
func (r *Response) ToJSON(statusCode int, payload interface{}) {
	r.send(statusCode, payload)
}

// ToError answers with {code, message, details, traceId, timestamp}.
// *code.Code and *errors.AppError keep their status; anything else is a 500.
// ToError 输出统一错误结构
func (r *Response) ToError(err error) {
	body := ErrorBody(err)
	body.TraceID = GetTraceID(r.Ctx)
	r.Ctx.Error(err)
	r.send(body.HTTPStatus(), body)
	r.Ctx.Abort()
}

// ErrorBody converts any error into the wire error body.
func ErrorBody(err error) *apperrors.AppError {
	if appErr := apperrors.GetAppError(err); appErr != nil {
		body := *appErr
		if body.Timestamp.IsZero() {
			body.Timestamp = time.Now()
		}
		return &body
	}

	var c *code.Code
	if errors.As(err, &c) {
		return apperrors.NewAppError(c, nil)
	}

	body := apperrors.NewAppError(code.ErrorServerInternal, err)
	if err != nil {
		body.Details = []string{err.Error()}
	}
	body.Status = http.StatusInternalServerError
	return body
}

func (r *Response) send(statusCode int, content interface{}) {
	r.Ctx.Set("status_code", statusCode)
	r.Ctx.JSON(statusCode, content)
}
