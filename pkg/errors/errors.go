package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/haierkeys/omni-blogger/pkg/code"
)

// AppError 统一应用错误结构体
// 包含错误码、消息、详情、追踪ID、时间戳以及错误分类
type AppError struct {
	// Code 错误码
	Code int `json:"code"`
	// Message 错误消息
	Message string `json:"message"`
	// Details 错误详情（可选）
	Details []string `json:"details,omitempty"`
	// TraceID 请求追踪ID
	TraceID string `json:"traceId,omitempty"`
	// Kind 错误分类，决定是否可重试（不序列化到JSON）
	Kind Kind `json:"-"`
	// Status HTTP 状态码（不序列化到JSON）
	Status int `json:"-"`
	// Cause 原始错误（不序列化到JSON）
	Cause error `json:"-"`
	// Timestamp 错误发生时间
	Timestamp time.Time `json:"timestamp"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap 实现 errors.Unwrap 接口，支持错误链路追踪
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError 从 Code 对象创建 AppError
func NewAppError(c *code.Code, cause error) *AppError {
	return &AppError{
		Code:      c.Code(),
		Message:   c.Msg(),
		Details:   c.Details(),
		Kind:      KindFromStatus(c.StatusCode(), false),
		Status:    c.StatusCode(),
		Cause:     cause,
		Timestamp: time.Now(),
	}
}

// New creates an AppError of the given kind.
// New 创建指定分类的 AppError
func New(kind Kind, message string, cause error) *AppError {
	return &AppError{
		Message:   message,
		Kind:      kind,
		Cause:     cause,
		Timestamp: time.Now(),
	}
}

// FromResponse builds an AppError from a non-2xx API response. versioned marks
// calls that carry an expected version, where a missing resource means someone
// else changed it.
// FromResponse 根据非 2xx 响应构建 AppError
func FromResponse(status int, body *AppError, versioned bool) *AppError {
	e := &AppError{Timestamp: time.Now()}
	if body != nil {
		*e = *body
		if e.Timestamp.IsZero() {
			e.Timestamp = time.Now()
		}
	}
	e.Status = status
	e.Kind = KindFromStatus(status, versioned)
	if e.Kind == KindUnknown && containsRateLimit(e.Message) {
		e.Kind = KindRateLimit
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}

// WithTraceID 设置 TraceID 并返回自身（链式调用）
func (e *AppError) WithTraceID(traceID string) *AppError {
	e.TraceID = traceID
	return e
}

// WithDetails 设置详情并返回自身（链式调用）
func (e *AppError) WithDetails(details ...string) *AppError {
	e.Details = details
	return e
}

// HTTPStatus returns the status the error is answered with, 500 when unset.
func (e *AppError) HTTPStatus() int {
	if e.Status == 0 {
		return http.StatusInternalServerError
	}
	return e.Status
}

// IsAppError 检查错误是否为 AppError 类型
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError 从错误链中获取 AppError
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}
