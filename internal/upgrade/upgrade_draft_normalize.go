package upgrade

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/haierkeys/omni-blogger/internal/dao"
	"github.com/haierkeys/omni-blogger/internal/domain"
	"github.com/haierkeys/omni-blogger/internal/model"
	"github.com/haierkeys/omni-blogger/pkg/markdown"

	"gorm.io/gorm"
)

// DraftNormalizeMigrate rewrites the stored draft collection: blank tags are
// removed, an empty title becomes "Untitled", a missing UpdatedAt falls back
// to CreatedAt and drafts without an id are dropped.
// DraftNormalizeMigrate 规范化已保存的草稿
type DraftNormalizeMigrate struct{}

func (m *DraftNormalizeMigrate) Version() string {
	return "0.2.0"
}

func (m *DraftNormalizeMigrate) Description() string {
	return "normalize stored draft titles, tags and timestamps"
}

func (m *DraftNormalizeMigrate) Up(ctx context.Context, tx *gorm.DB) error {
	var entry model.KVEntry
	err := tx.WithContext(ctx).Where(&model.KVEntry{Key: dao.DraftsKey}).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if strings.TrimSpace(entry.Value) == "" {
		return nil
	}

	var drafts []*domain.Document
	if err := json.Unmarshal([]byte(entry.Value), &drafts); err != nil {
		return err
	}

	out := make([]*domain.Document, 0, len(drafts))
	for _, d := range drafts {
		if d == nil || d.ID == "" {
			continue
		}
		if strings.TrimSpace(d.Title) == "" {
			d.Title = domain.UntitledTitle
		}
		d.Tags = markdown.CleanTags(d.Tags)
		if d.UpdatedAt.IsZero() {
			d.UpdatedAt = d.CreatedAt
		}
		out = append(out, d)
	}

	data, err := json.Marshal(out)
	if err != nil {
		return err
	}
	entry.Value = string(data)
	entry.UpdatedAt = time.Now()
	return tx.WithContext(ctx).Save(&entry).Error
}
