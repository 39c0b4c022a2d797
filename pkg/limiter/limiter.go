// Package limiter keeps token buckets keyed by request route.
package limiter

import (
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/juju/ratelimit"
)

// Face 限流器接口
type Face interface {
	Key(c *gin.Context) string
	GetBucket(key string) (*ratelimit.Bucket, bool)
	AddBuckets(rules ...BucketRule) Face
}

// BucketRule 令牌桶规则
type BucketRule struct {
	Key          string
	FillInterval time.Duration
	Capacity     int64
	Quantum      int64
}

// MethodLimiter limits by "METHOD route" (the matched route template, or the
// path with the query string removed), falling back to the bare route.
// MethodLimiter 按请求方法与路径限流
type MethodLimiter struct {
	mu      sync.RWMutex
	buckets map[string]*ratelimit.Bucket
}

func NewMethodLimiter() *MethodLimiter {
	return &MethodLimiter{buckets: make(map[string]*ratelimit.Bucket)}
}

func (l *MethodLimiter) Key(c *gin.Context) string {
	// 已匹配路由时按路由模板限流，例如 /posts/:slug
	if route := c.FullPath(); route != "" {
		return c.Request.Method + " " + route
	}
	uri := c.Request.RequestURI
	if i := strings.Index(uri, "?"); i >= 0 {
		uri = uri[:i]
	}
	return c.Request.Method + " " + uri
}

func (l *MethodLimiter) GetBucket(key string) (*ratelimit.Bucket, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if b, ok := l.buckets[key]; ok {
		return b, true
	}
	if _, path, found := strings.Cut(key, " "); found {
		b, ok := l.buckets[path]
		return b, ok
	}
	return nil, false
}

func (l *MethodLimiter) AddBuckets(rules ...BucketRule) Face {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, rule := range rules {
		if _, ok := l.buckets[rule.Key]; ok {
			continue
		}
		quantum := rule.Quantum
		if quantum <= 0 {
			quantum = rule.Capacity
		}
		l.buckets[rule.Key] = ratelimit.NewBucketWithQuantum(rule.FillInterval, rule.Capacity, quantum)
	}
	return l
}
