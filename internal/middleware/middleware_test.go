package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/haierkeys/omni-blogger/pkg/app"
	"github.com/haierkeys/omni-blogger/pkg/limiter"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/ok", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"trace": app.GetTraceID(c), "ctxTrace": GetTraceID(c.Request.Context())})
	})
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	r.GET("/slow", func(c *gin.Context) { <-c.Request.Context().Done() })
	r.NoRoute(NoFound())
	return r
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSimpleAuthToken(t *testing.T) {
	r := newEngine(SimpleAuthTokenWithConfig("s3cret"))

	tests := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{"bearer", "Bearer s3cret", "", http.StatusOK},
		{"raw header", "s3cret", "", http.StatusOK},
		{"query", "", "?authorization=s3cret", http.StatusOK},
		{"wrong", "Bearer nope", "", http.StatusUnauthorized},
		{"missing", "", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ok"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, do(r, req).Code)
		})
	}

	open := newEngine(SimpleAuthTokenWithConfig(""))
	assert.Equal(t, http.StatusOK, do(open, httptest.NewRequest(http.MethodGet, "/ok", nil)).Code)
}

func TestTraceMiddleware(t *testing.T) {
	r := newEngine(TraceMiddlewareWithConfig(true, ""))

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(DefaultTraceIDHeader, "abc")
	w := do(r, req)
	assert.Equal(t, "abc", w.Header().Get(DefaultTraceIDHeader))
	assert.JSONEq(t, `{"trace":"abc","ctxTrace":"abc"}`, w.Body.String())

	w = do(r, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.NotEmpty(t, w.Header().Get(DefaultTraceIDHeader))

	disabled := newEngine(TraceMiddlewareWithConfig(false, ""))
	w = do(disabled, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Empty(t, w.Header().Get(DefaultTraceIDHeader))
}

func TestRecovery(t *testing.T) {
	r := newEngine(TraceMiddlewareWithConfig(true, ""), RecoveryWithLogger(nil))
	w := do(r, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "boom")
	assert.Contains(t, w.Body.String(), "traceId")
}

func TestRateLimiter(t *testing.T) {
	l := limiter.NewMethodLimiter().AddBuckets(limiter.BucketRule{
		Key: "GET /ok", FillInterval: time.Hour, Capacity: 1,
	})
	r := newEngine(RateLimiter(l))

	assert.Equal(t, http.StatusOK, do(r, httptest.NewRequest(http.MethodGet, "/ok", nil)).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, httptest.NewRequest(http.MethodGet, "/ok", nil)).Code)
}

func TestContextTimeout(t *testing.T) {
	r := newEngine(ContextTimeout(20 * time.Millisecond))
	w := do(r, httptest.NewRequest(http.MethodGet, "/slow", nil))
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}

func TestNoFound(t *testing.T) {
	r := newEngine(AccessLogWithLogger(nil))
	w := do(r, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "GET /nope")
}

func TestMaxBodySize(t *testing.T) {
	r := gin.New()
	r.Use(MaxBodySize(8))
	r.POST("/echo", func(c *gin.Context) {
		var body map[string]string
		if err := c.ShouldBindJSON(&body); err != nil {
			app.NewResponse(c).ToError(err)
			return
		}
		c.JSON(http.StatusOK, body)
	})

	w := do(r, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"a":"b"}`)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = do(r, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAppInfo(t *testing.T) {
	r := newEngine(AppInfoWithConfig("Omni Blogger", "1.2.3"))
	w := do(r, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, "1.2.3", w.Header().Get(AppInfoHeader))
}
