// Package progress persists the resume record of a multi-step operation so
// that it can continue after an interruption or on another machine.
// Package progress 保存多步骤操作的进度记录，用于中断后或在其他设备上继续
package progress

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/haierkeys/omni-blogger/pkg/logger"

	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrNoProgress is returned when no usable resume record exists.
var ErrNoProgress = errors.New("progress: no saved progress")

// ErrInvalidToken is returned when an imported token cannot be decoded.
var ErrInvalidToken = errors.New("progress: invalid resume token")

const (
	// RecordVersion 记录格式版本，不一致的记录会被丢弃
	RecordVersion = 1
	// DefaultKey 存储键
	DefaultKey = "deploy-wizard-state"
	// DefaultMaxAge 记录最长有效期
	DefaultMaxAge = 24 * time.Hour
	// ResumeParam 分享链接中的查询参数名
	ResumeParam = "resume"
)

// State is the serializable progress of one operation.
// State 操作进度
type State struct {
	CurrentStep    int               `json:"currentStep"`
	Config         map[string]string `json:"config"`
	CompletedSteps []string          `json:"completedSteps"`
	FailedSteps    []string          `json:"failedSteps"`
	Started        bool              `json:"started"`
	// Failures 每个步骤以失败结束的执行次数
	Failures       map[string]int    `json:"failures,omitempty"`
}

// Record wraps a State with the format version and save time.
type Record struct {
	Version int       `json:"version"`
	SavedAt time.Time `json:"savedAt"`
	State   State     `json:"state"`
}

// Store is the key-value persistence the manager writes through.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Option configures a Manager.
type Option func(*Manager)

// WithKey 设置存储键
func WithKey(key string) Option {
	return func(m *Manager) { m.key = key }
}

// WithMaxAge 设置记录有效期
func WithMaxAge(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.maxAge = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithLogger 设置日志器
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = logger.OrNop(l) }
}

// Manager saves, loads and transfers resume records.
// Manager 进度管理器
type Manager struct {
	store  Store
	key    string
	maxAge time.Duration
	now    func() time.Time
	logger *zap.Logger
	mu     sync.Mutex
}

// NewManager 创建进度管理器
func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		key:    DefaultKey,
		maxAge: DefaultMaxAge,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Save writes the state with the current time.
func (m *Manager) Save(ctx context.Context, s State) error {
	return m.put(ctx, Record{Version: RecordVersion, SavedAt: m.now().UTC(), State: s})
}

func (m *Manager) put(ctx context.Context, r Record) error {
	data, err := json.Marshal(r)
	if err != nil {
		return pkgerrors.Wrap(err, "marshal progress record")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return pkgerrors.Wrap(m.store.Put(ctx, m.key, data), "save progress record")
}

// Load returns the saved state. A record with another format version or
// older than the max age is cleared and reported as ErrNoProgress.
// Load 读取进度；版本不一致或超过有效期的记录会被清除
func (m *Manager) Load(ctx context.Context) (*State, error) {
	r, err := m.loadRecord(ctx)
	if err != nil {
		return nil, err
	}
	return &r.State, nil
}

func (m *Manager) loadRecord(ctx context.Context) (*Record, error) {
	m.mu.Lock()
	data, found, err := m.store.Get(ctx, m.key)
	m.mu.Unlock()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "load progress record")
	}
	if !found {
		return nil, ErrNoProgress
	}

	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		m.logger.Warn("discarding unreadable progress record", zap.Error(err))
		return nil, m.discard(ctx)
	}
	if reason := m.invalid(&r); reason != "" {
		m.logger.Info("discarding progress record", zap.String("reason", reason), zap.Time("savedAt", r.SavedAt))
		return nil, m.discard(ctx)
	}
	return &r, nil
}

func (m *Manager) invalid(r *Record) string {
	if r.Version != RecordVersion {
		return "version mismatch"
	}
	if m.now().Sub(r.SavedAt) > m.maxAge {
		return "expired"
	}
	return ""
}

func (m *Manager) discard(ctx context.Context) error {
	if err := m.Clear(ctx); err != nil {
		return err
	}
	return ErrNoProgress
}

// Clear 删除进度记录
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return pkgerrors.Wrap(m.store.Delete(ctx, m.key), "clear progress record")
}

// Export encodes the saved record as a URL-safe token.
// Export 将进度记录导出为令牌
func (m *Manager) Export(ctx context.Context) (string, error) {
	r, err := m.loadRecord(ctx)
	if err != nil {
		return "", err
	}
	return EncodeToken(*r)
}

// Import decodes a token and stores its record, keeping the original save
// time so that the age limit still applies.
// Import 导入令牌中的进度，保留原始保存时间
func (m *Manager) Import(ctx context.Context, token string) (*State, error) {
	r, err := DecodeToken(token)
	if err != nil {
		return nil, err
	}
	if reason := m.invalid(&r); reason != "" {
		return nil, pkgerrors.Wrap(ErrNoProgress, reason)
	}
	if err := m.put(ctx, r); err != nil {
		return nil, err
	}
	return &r.State, nil
}

// EncodeToken 编码令牌
func EncodeToken(r Record) (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", pkgerrors.Wrap(err, "marshal progress record")
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// DecodeToken accepts padded or unpadded base64url.
// DecodeToken 解码令牌
func DecodeToken(token string) (Record, error) {
	var r Record
	data, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(strings.TrimSpace(token), "="))
	if err != nil {
		return r, pkgerrors.Wrap(ErrInvalidToken, err.Error())
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return r, pkgerrors.Wrap(ErrInvalidToken, err.Error())
	}
	return r, nil
}

// ShareLink embeds a token in base as the resume query parameter.
// ShareLink 生成包含令牌的分享链接
func ShareLink(base, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", pkgerrors.Wrap(err, "parse share base url")
	}
	q := u.Query()
	q.Set(ResumeParam, token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// TokenFromLink extracts the token from a share link. A bare token is returned as is.
// TokenFromLink 从分享链接中提取令牌
func TokenFromLink(link string) (string, error) {
	link = strings.TrimSpace(link)
	if !strings.Contains(link, "?") && !strings.Contains(link, "://") {
		if link == "" {
			return "", ErrInvalidToken
		}
		return link, nil
	}
	u, err := url.Parse(link)
	if err != nil {
		return "", pkgerrors.Wrap(ErrInvalidToken, err.Error())
	}
	token := u.Query().Get(ResumeParam)
	if token == "" {
		return "", ErrInvalidToken
	}
	return token, nil
}
