package dao

import (
	"context"
	"encoding/json"

	"github.com/haierkeys/omni-blogger/internal/domain"

	pkgerrors "github.com/pkg/errors"
)

// DraftsKey 草稿集合的存储键
const DraftsKey = "blog-drafts"

// draftRepository 实现 domain.DraftRepository 接口
// 草稿集合整体以 JSON 数组保存在一个键下
type draftRepository struct {
	kv domain.KVRepository
}

// NewDraftRepository 创建 DraftRepository 实例
func NewDraftRepository(kv domain.KVRepository) domain.DraftRepository {
	return &draftRepository{kv: kv}
}

// LoadAll 读取全部草稿
func (r *draftRepository) LoadAll(ctx context.Context) ([]*domain.Document, error) {
	data, found, err := r.kv.Get(ctx, DraftsKey)
	if err != nil {
		return nil, err
	}
	if !found || len(data) == 0 {
		return []*domain.Document{}, nil
	}
	var drafts []*domain.Document
	if err := json.Unmarshal(data, &drafts); err != nil {
		return nil, pkgerrors.Wrap(err, "decode drafts")
	}
	if drafts == nil {
		drafts = []*domain.Document{}
	}
	return drafts, nil
}

// SaveAll 写回草稿集合
func (r *draftRepository) SaveAll(ctx context.Context, drafts []*domain.Document) error {
	if drafts == nil {
		drafts = []*domain.Document{}
	}
	data, err := json.Marshal(drafts)
	if err != nil {
		return pkgerrors.Wrap(err, "encode drafts")
	}
	return r.kv.Put(ctx, DraftsKey, data)
}
