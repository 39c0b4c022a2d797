package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/haierkeys/omni-blogger/internal/domain"
	"github.com/haierkeys/omni-blogger/pkg/code"
	"github.com/haierkeys/omni-blogger/pkg/logger"

	"go.uber.org/zap"
)

// DraftService 本地草稿服务接口
type DraftService interface {
	// List 返回全部草稿，最近更新的在前
	List(ctx context.Context) ([]*domain.Document, error)
	// Get 读取草稿
	Get(ctx context.Context, id string) (*domain.Document, error)
	// Save 新建或更新草稿，ID 为空时分配新 ID
	Save(ctx context.Context, doc *domain.Document) (*domain.Document, error)
	// Delete 删除草稿，不存在时不报错
	Delete(ctx context.Context, id string) error
}

// draftService 实现 DraftService 接口
// 同一进程内的读改写由 mu 串行化；跨进程以最后写入为准
type draftService struct {
	repo   domain.DraftRepository
	logger *zap.Logger
	mu     sync.Mutex
	ids    *idGenerator
	now    func() time.Time
}

// NewDraftService 创建 DraftService 实例
func NewDraftService(repo domain.DraftRepository, lg *zap.Logger) DraftService {
	return &draftService{
		repo:   repo,
		logger: logger.OrNop(lg),
		ids:    &idGenerator{},
		now:    time.Now,
	}
}

// List 返回全部草稿
func (s *draftService) List(ctx context.Context) ([]*domain.Document, error) {
	drafts, err := s.repo.LoadAll(ctx)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	sort.SliceStable(drafts, func(i, j int) bool {
		return drafts[i].UpdatedAt.After(drafts[j].UpdatedAt)
	})
	return drafts, nil
}

// Get 读取草稿
func (s *draftService) Get(ctx context.Context, id string) (*domain.Document, error) {
	drafts, err := s.repo.LoadAll(ctx)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	for _, d := range drafts {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, code.ErrorDraftNotFound
}

// Save 保存草稿
func (s *draftService) Save(ctx context.Context, doc *domain.Document) (*domain.Document, error) {
	if doc == nil {
		return nil, code.ErrorInvalidParams
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	drafts, err := s.repo.LoadAll(ctx)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}

	d := doc.Clone()
	d.Normalize()
	now := s.now().UTC()

	idx := -1
	if d.ID != "" {
		for i, existing := range drafts {
			if existing.ID == d.ID {
				idx = i
				break
			}
		}
	}

	if idx >= 0 {
		stored := drafts[idx]
		d.CreatedAt = stored.CreatedAt
		// 更新时间不早于已存储的值
		d.UpdatedAt = now
		if d.UpdatedAt.Before(stored.UpdatedAt) {
			d.UpdatedAt = stored.UpdatedAt
		}
		drafts[idx] = d
	} else {
		if d.ID == "" {
			d.ID = s.ids.next(now, drafts)
		}
		if d.CreatedAt.IsZero() {
			d.CreatedAt = now
		}
		d.UpdatedAt = now
		drafts = append(drafts, d)
	}

	if err := s.repo.SaveAll(ctx, drafts); err != nil {
		return nil, code.ErrorDBWrite.WithDetails(err.Error())
	}

	s.logger.Debug("draft saved", zap.String(logger.FieldDraftID, d.ID))
	return d.Clone(), nil
}

// Delete 删除草稿
func (s *draftService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	drafts, err := s.repo.LoadAll(ctx)
	if err != nil {
		return code.ErrorDBQuery.WithDetails(err.Error())
	}
	kept := drafts[:0]
	for _, d := range drafts {
		if d.ID != id {
			kept = append(kept, d)
		}
	}
	if len(kept) == len(drafts) {
		return nil
	}
	if err := s.repo.SaveAll(ctx, kept); err != nil {
		return code.ErrorDBWrite.WithDetails(err.Error())
	}
	s.logger.Debug("draft deleted", zap.String(logger.FieldDraftID, id))
	return nil
}

// idGenerator issues draft-<unixMilli>-<seq> ids. seq restarts at 0 each
// millisecond, so two drafts created within one millisecond still differ.
type idGenerator struct {
	mu       sync.Mutex
	lastMill int64
	seq      int
}

func (g *idGenerator) next(now time.Time, existing []*domain.Document) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := now.UnixMilli()
	if ms <= g.lastMill {
		ms = g.lastMill
		g.seq++
	} else {
		g.lastMill = ms
		g.seq = 0
	}

	for {
		id := fmt.Sprintf("draft-%d-%d", ms, g.seq)
		if !hasDraft(existing, id) {
			return id
		}
		g.seq++
	}
}

func hasDraft(drafts []*domain.Document, id string) bool {
	for _, d := range drafts {
		if d.ID == id {
			return true
		}
	}
	return false
}
