// Package editor holds the state of one editing session: the draft or post
// being edited and its debounced auto-save.
// Package editor 编辑会话状态与防抖自动保存
package editor

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/haierkeys/omni-blogger/internal/domain"
	"github.com/haierkeys/omni-blogger/pkg/logger"
	"github.com/haierkeys/omni-blogger/pkg/markdown"

	"go.uber.org/zap"
)

// DefaultAutosaveDelay 停止输入后自动保存的延迟
const DefaultAutosaveDelay = 2 * time.Second

// saveTimeout 单次自动保存的超时时间
const saveTimeout = 10 * time.Second

// Mode 编辑模式
type Mode int

const (
	// ModeNew 新文章
	ModeNew Mode = iota
	// ModeEditing 编辑已发布文章
	ModeEditing
)

// Saver persists a draft and returns the stored copy with its id assigned.
type Saver interface {
	Save(ctx context.Context, doc *domain.Document) (*domain.Document, error)
}

// Snapshot is a copy of the session fields at one point in time.
// Snapshot 会话状态快照
type Snapshot struct {
	DraftID string
	Title   string
	RawTags string
	Body    string
	Mode    Mode
	// Slug / Version 编辑已发布文章时有效
	Slug    string
	Version string
	// Base 加载时的远端正文（Markdown），用于冲突合并
	Base string
}

// Tags 解析后的标签
func (s Snapshot) Tags() []string {
	return markdown.ParseTags(s.RawTags)
}

// HasContent reports whether the title or the text of the body is non-empty.
func (s Snapshot) HasContent() bool {
	return strings.TrimSpace(s.Title) != "" || strings.TrimSpace(markdown.PlainText(s.Body)) != ""
}

// Document 转换为待保存的草稿
func (s Snapshot) Document() *domain.Document {
	doc := &domain.Document{
		ID:    s.DraftID,
		Title: s.Title,
		Tags:  s.Tags(),
		Body:  s.Body,
	}
	if s.Mode == ModeEditing {
		doc.Slug = s.Slug
		doc.RemoteVersion = s.Version
	}
	return doc
}

// PostState is a published post loaded into the session.
type PostState struct {
	Slug    string
	Version string
	Title   string
	Tags    []string
	// BodyHTML 编辑器显示的 HTML
	BodyHTML string
	// Base 远端 Markdown 正文
	Base string
}

// Option 会话配置选项
type Option func(*Session)

// WithAutosaveDelay 设置自动保存延迟
func WithAutosaveDelay(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.delay = d
		}
	}
}

// WithLogger 设置日志器
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.logger = logger.OrNop(l) }
}

// OnSaved registers a callback run after every auto-save attempt.
func OnSaved(fn func(doc *domain.Document, err error)) Option {
	return func(s *Session) { s.onSaved = fn }
}

// Session is the editor state. Every mutation schedules an auto-save that
// fires once no further mutation happened for the autosave delay.
// Session 编辑会话
type Session struct {
	mu   sync.Mutex
	snap Snapshot
	// gen 每次 Reset/Load 递增，使过期的保存结果不会写回
	gen  uint64

	saver   Saver
	delay   time.Duration
	timer   *time.Timer
	closed  bool
	// held > 0 时暂停自动保存，dirty 记录暂停期间的修改
	held    int
	dirty   bool
	saving  sync.WaitGroup
	onSaved func(*domain.Document, error)
	logger  *zap.Logger
}

// NewSession 创建编辑会话，saver 为 nil 时不自动保存
func NewSession(saver Saver, opts ...Option) *Session {
	s := &Session{
		saver:  saver,
		delay:  DefaultAutosaveDelay,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot 返回当前状态副本
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// DraftID 当前草稿 ID
func (s *Session) DraftID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.DraftID
}

// IsEditing 是否在编辑已发布文章
func (s *Session) IsEditing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Mode == ModeEditing
}

// SetTitle 设置标题
func (s *Session) SetTitle(title string) {
	s.mutate(func(sn *Snapshot) { sn.Title = title })
}

// SetTags 设置原始标签输入（逗号分隔）
func (s *Session) SetTags(raw string) {
	s.mutate(func(sn *Snapshot) { sn.RawTags = raw })
}

// SetBody 设置正文 HTML
func (s *Session) SetBody(body string) {
	s.mutate(func(sn *Snapshot) { sn.Body = body })
}

// Format applies cmd to text and appends the result to the body.
// Format 应用格式化命令并追加到正文
func (s *Session) Format(cmd Command, text, arg string) error {
	fragment, err := cmd.Apply(text, arg)
	if err != nil {
		return err
	}
	s.mutate(func(sn *Snapshot) { sn.Body += fragment })
	return nil
}

// LoadDraft replaces the session with a stored draft. A stored "Untitled"
// title is shown as an empty title.
// LoadDraft 加载草稿
func (s *Session) LoadDraft(doc *domain.Document) {
	title := doc.Title
	if title == domain.UntitledTitle {
		title = ""
	}
	next := Snapshot{
		DraftID: doc.ID,
		Title:   title,
		RawTags: strings.Join(doc.Tags, ", "),
		Body:    doc.Body,
	}
	if doc.IsPublished() {
		next.Mode = ModeEditing
		next.Slug = doc.Slug
		next.Version = doc.RemoteVersion
	}
	s.replace(next)
}

// LoadPost 加载已发布文章进入编辑模式
func (s *Session) LoadPost(p PostState) {
	s.replace(Snapshot{
		Title:   p.Title,
		RawTags: strings.Join(p.Tags, ", "),
		Body:    p.BodyHTML,
		Mode:    ModeEditing,
		Slug:    p.Slug,
		Version: p.Version,
		Base:    p.Base,
	})
}

// Reset 清空会话，回到新文章模式
func (s *Session) Reset() {
	s.replace(Snapshot{})
}

// SetVersion records the remote version after a successful update.
func (s *Session) SetVersion(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Version = v
}

func (s *Session) replace(next Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
	s.gen++
	s.snap = next
	s.dirty = false
}

func (s *Session) mutate(fn func(*Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.snap)
	s.scheduleLocked()
}

func (s *Session) scheduleLocked() {
	if s.saver == nil || s.closed {
		return
	}
	if s.held > 0 {
		s.dirty = true
		return
	}
	s.stopTimerLocked()
	gen := s.gen
	s.timer = time.AfterFunc(s.delay, func() {
		s.autosave(gen)
	})
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) autosave(gen uint64) {
	s.mu.Lock()
	if s.gen != gen || s.closed || s.held > 0 {
		s.mu.Unlock()
		return
	}
	snap := s.snap
	s.timer = nil
	s.saving.Add(1)
	s.mu.Unlock()
	defer s.saving.Done()

	if !snap.HasContent() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	doc, err := s.save(ctx, gen, snap)
	if err != nil {
		s.logger.Warn("draft autosave failed", zap.String(logger.FieldDraftID, snap.DraftID), zap.Error(err))
	}
	if s.onSaved != nil {
		s.onSaved(doc, err)
	}
}

func (s *Session) save(ctx context.Context, gen uint64, snap Snapshot) (*domain.Document, error) {
	doc, err := s.saver.Save(ctx, snap.Document())
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.gen == gen && (s.snap.DraftID == "" || s.snap.DraftID == doc.ID) {
		s.snap.DraftID = doc.ID
	}
	s.mu.Unlock()
	s.logger.Debug("draft saved", zap.String(logger.FieldDraftID, doc.ID))
	return doc, nil
}

// Hold suspends auto-saving and waits for a save in progress to finish.
// Mutations made while held are scheduled again by the returned release.
// Hold 暂停自动保存，返回恢复函数
func (s *Session) Hold() (release func()) {
	s.mu.Lock()
	s.held++
	if s.timer != nil {
		s.stopTimerLocked()
		s.dirty = true
	}
	s.mu.Unlock()
	s.saving.Wait()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.held--
			if s.held == 0 && s.dirty {
				s.dirty = false
				s.scheduleLocked()
			}
		})
	}
}

// Flush cancels any pending auto-save and saves the draft now when the
// session has content. It returns the stored draft, or nil when nothing was
// saved.
// Flush 立即保存草稿
func (s *Session) Flush(ctx context.Context) (*domain.Document, error) {
	s.mu.Lock()
	s.stopTimerLocked()
	s.dirty = false
	snap, gen := s.snap, s.gen
	s.mu.Unlock()

	if s.saver == nil || !snap.HasContent() {
		return nil, nil
	}
	return s.save(ctx, gen, snap)
}

// Close stops auto-saving and waits for a save in progress.
// Close 停止自动保存
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.stopTimerLocked()
	s.mu.Unlock()
	s.saving.Wait()
}
