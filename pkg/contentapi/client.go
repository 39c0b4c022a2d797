// Package contentapi is the HTTP client of the blog content API.
// Package contentapi 博客内容 API 客户端
package contentapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	apperrors "github.com/haierkeys/omni-blogger/pkg/errors"
	"github.com/haierkeys/omni-blogger/pkg/logger"

	"go.uber.org/zap"
)

// DefaultTimeout 单个请求超时时间
const DefaultTimeout = 30 * time.Second

// Config client configuration
// Config 客户端配置
type Config struct {
	// BaseURL 内容 API 地址
	BaseURL string
	// Timeout 单个请求超时
	Timeout time.Duration
	// AuthToken 可选的认证令牌
	AuthToken string
	// HTTPClient 自定义 HTTP 客户端（测试用）
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// API is the set of remote operations the publish pipeline relies on.
type API interface {
	Create(ctx context.Context, filename, content string, images ...Image) (*CreateResult, error)
	Update(ctx context.Context, slug, content, expectedVersion string) (*UpdateResult, error)
	Fetch(ctx context.Context, slug string) (*Post, error)
	Delete(ctx context.Context, slug, expectedVersion string) error
	List(ctx context.Context) ([]PostSummary, error)
	Config(ctx context.Context) (*RemoteConfig, error)
}

// Client talks to the content API over HTTP.
type Client struct {
	base      string
	authToken string
	http      *http.Client
	logger    *zap.Logger
}

var _ API = (*Client)(nil)

// New 创建客户端
func New(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		base:      strings.TrimRight(cfg.BaseURL, "/"),
		authToken: cfg.AuthToken,
		http:      hc,
		logger:    logger.OrNop(cfg.Logger),
	}
}

// BaseURL 返回 API 地址
func (c *Client) BaseURL() string {
	return c.base
}

// Create publishes a new post file, overwriting a file with the same name.
func (c *Client) Create(ctx context.Context, filename, content string, images ...Image) (*CreateResult, error) {
	var out CreateResult
	req := CreateRequest{Filename: filename, Content: content, Images: images}
	if err := c.do(ctx, http.MethodPost, "/", req, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update replaces a post. The server rejects it as a conflict when
// expectedVersion is not the current version.
func (c *Client) Update(ctx context.Context, slug, content, expectedVersion string) (*UpdateResult, error) {
	var out UpdateResult
	req := UpdateRequest{Content: content, Version: expectedVersion}
	if err := c.do(ctx, http.MethodPut, postPath(slug), req, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// Fetch returns a post with its current version.
func (c *Client) Fetch(ctx context.Context, slug string) (*Post, error) {
	var out Post
	if err := c.do(ctx, http.MethodGet, postPath(slug), nil, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a post if expectedVersion is still current.
func (c *Client) Delete(ctx context.Context, slug, expectedVersion string) error {
	var out DeleteResult
	return c.do(ctx, http.MethodDelete, postPath(slug), DeleteRequest{Version: expectedVersion}, &out, true)
}

// List returns the published posts, newest first.
func (c *Client) List(ctx context.Context) ([]PostSummary, error) {
	var out PostList
	if err := c.do(ctx, http.MethodGet, "/posts", nil, &out, false); err != nil {
		return nil, err
	}
	sort.SliceStable(out.Posts, func(i, j int) bool {
		return out.Posts[i].Date.After(out.Posts[j].Date)
	})
	return out.Posts, nil
}

// Config returns the blog and API URLs the server is configured with.
func (c *Client) Config(ctx context.Context) (*RemoteConfig, error) {
	var out RemoteConfig
	if err := c.do(ctx, http.MethodGet, "/config", nil, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health returns the server's version information from /health.
func (c *Client) Health(ctx context.Context) (*ServerInfo, error) {
	var out struct {
		Data ServerInfo `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/health", nil, &out, false); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func postPath(slug string) string {
	return "/posts/" + url.PathEscape(slug)
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}, versioned bool) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return apperrors.New(apperrors.KindInvalid, "encode request", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return apperrors.New(apperrors.KindInvalid, "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		kind := apperrors.Classify(err)
		if kind == apperrors.KindUnknown {
			kind = apperrors.KindNetwork
		}
		c.logger.Debug("content api request failed",
			zap.String(logger.FieldMethod, method),
			zap.String(logger.FieldPath, path),
			zap.String(logger.FieldKind, kind.String()),
			zap.Error(err),
		)
		return apperrors.New(kind, method+" "+path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("content api request",
		zap.String(logger.FieldMethod, method),
		zap.String(logger.FieldPath, path),
		zap.Int("status", resp.StatusCode),
		zap.Duration(logger.FieldDuration, time.Since(start)),
	)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.New(apperrors.KindNetwork, "read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apperrors.FromResponse(resp.StatusCode, decodeError(data), versioned)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apperrors.New(apperrors.KindServer, "decode response", err)
	}
	return nil
}

// errorBody accepts both the structured error and the older {error, details} shape.
type errorBody struct {
	Code      int             `json:"code"`
	Message   string          `json:"message"`
	Error     string          `json:"error"`
	Details   json.RawMessage `json:"details"`
	TraceID   string          `json:"traceId"`
	Timestamp time.Time       `json:"timestamp"`
}

func decodeError(data []byte) *apperrors.AppError {
	var b errorBody
	if err := json.Unmarshal(data, &b); err != nil {
		msg := strings.TrimSpace(string(data))
		if msg == "" {
			return nil
		}
		return &apperrors.AppError{Message: msg}
	}

	e := &apperrors.AppError{
		Code:      b.Code,
		Message:   b.Message,
		TraceID:   b.TraceID,
		Timestamp: b.Timestamp,
	}
	if e.Message == "" {
		e.Message = b.Error
	}

	if len(b.Details) > 0 {
		var list []string
		var single string
		if err := json.Unmarshal(b.Details, &list); err == nil {
			e.Details = list
		} else if err := json.Unmarshal(b.Details, &single); err == nil && single != "" {
			e.Details = []string{single}
		}
	}
	return e
}
