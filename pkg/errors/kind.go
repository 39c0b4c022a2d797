package errors

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
)

// Kind is the failure category used to decide whether an operation may be retried.
// Kind 错误分类，用于判断操作是否可以重试
type Kind string

const (
	KindNetwork        Kind = "network"
	KindTimeout        Kind = "timeout"
	KindRateLimit      Kind = "rate_limit"
	KindAuthentication Kind = "authentication"
	KindConflict       Kind = "conflict"
	KindServer         Kind = "server"
	KindNotFound       Kind = "not_found"
	KindInvalid        Kind = "invalid"
	KindUnknown        Kind = "unknown"
)

// Retryable reports whether a failure of this kind may succeed when attempted again.
// Conflicts, authentication failures, missing resources and invalid input never do.
func (k Kind) Retryable() bool {
	switch k {
	case KindNetwork, KindTimeout, KindRateLimit, KindServer, KindUnknown:
		return true
	}
	return false
}

func (k Kind) String() string {
	return string(k)
}

// KindFromStatus maps an HTTP status to a Kind. For versioned calls (update,
// delete) a 404 is a conflict: the resource was removed under the caller.
// KindFromStatus 将 HTTP 状态码映射为错误分类
func KindFromStatus(status int, versioned bool) Kind {
	switch {
	case status == http.StatusConflict, status == http.StatusPreconditionFailed:
		return KindConflict
	case status == http.StatusNotFound:
		if versioned {
			return KindConflict
		}
		return KindNotFound
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return KindAuthentication
	case status == http.StatusTooManyRequests:
		return KindRateLimit
	case status == http.StatusRequestTimeout, status == http.StatusGatewayTimeout:
		return KindTimeout
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity, status == http.StatusRequestEntityTooLarge:
		return KindInvalid
	case status >= 500:
		return KindServer
	}
	return KindUnknown
}

// Classify inspects an error chain and returns its Kind.
// Classify 分析错误链并返回错误分类
func Classify(err error) Kind {
	if err == nil {
		return ""
	}

	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Kind != "" {
		if appErr.Kind == KindUnknown && containsRateLimit(appErr.Message) {
			return KindRateLimit
		}
		return appErr.Kind
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return KindNetwork
	}

	var opErr *net.OpError
	var dnsErr *net.DNSError
	var urlErr *url.Error
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) || errors.As(err, &urlErr) {
		return KindNetwork
	}

	if containsRateLimit(err.Error()) {
		return KindRateLimit
	}

	return KindUnknown
}

// IsRetryable 判断错误是否可以重试
func IsRetryable(err error) bool {
	return err != nil && Classify(err).Retryable()
}

// IsConflict 判断错误是否为版本冲突
func IsConflict(err error) bool {
	return Classify(err) == KindConflict
}

// IsNotFound 判断错误是否为资源不存在
func IsNotFound(err error) bool {
	return Classify(err) == KindNotFound
}

func containsRateLimit(msg string) bool {
	return strings.Contains(strings.ToLower(msg), "rate limit")
}
