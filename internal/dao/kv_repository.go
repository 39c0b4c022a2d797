package dao

import (
	"context"
	"errors"
	"time"

	"github.com/haierkeys/omni-blogger/internal/domain"
	"github.com/haierkeys/omni-blogger/internal/model"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// kvRepository 实现 domain.KVRepository 接口
type kvRepository struct {
	dao *Dao
}

// NewKVRepository 创建 KVRepository 实例
func NewKVRepository(dao *Dao) domain.KVRepository {
	return &kvRepository{dao: dao}
}

// Get 读取值
func (r *kvRepository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, errors.New("kv: empty key")
	}
	var m model.KVEntry
	err := r.dao.DB(ctx).Where(&model.KVEntry{Key: key}).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, pkgerrors.Wrapf(err, "kv get %s", key)
	}
	return []byte(m.Value), true, nil
}

// Put 写入值，存在则覆盖
func (r *kvRepository) Put(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return errors.New("kv: empty key")
	}
	m := &model.KVEntry{Key: key, Value: string(value), UpdatedAt: time.Now().UTC()}
	err := r.dao.ExecuteWrite(ctx, key, func(db *gorm.DB) error {
		return db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(m).Error
	})
	return pkgerrors.Wrapf(err, "kv put %s", key)
}

// Delete 删除键
func (r *kvRepository) Delete(ctx context.Context, key string) error {
	if key == "" {
		return errors.New("kv: empty key")
	}
	err := r.dao.ExecuteWrite(ctx, key, func(db *gorm.DB) error {
		return db.Where(&model.KVEntry{Key: key}).Delete(&model.KVEntry{}).Error
	})
	return pkgerrors.Wrapf(err, "kv delete %s", key)
}
