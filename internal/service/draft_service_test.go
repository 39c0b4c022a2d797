package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/haierkeys/omni-blogger/internal/dao"
	"github.com/haierkeys/omni-blogger/internal/domain"
	"github.com/haierkeys/omni-blogger/pkg/code"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDraftRepo(t *testing.T) domain.DraftRepository {
	t.Helper()
	cfg := dao.DatabaseConfig{Type: "sqlite", Path: filepath.Join(t.TempDir(), "drafts.sqlite3"), AutoMigrate: true}
	db, err := dao.NewDBEngineWithConfig(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	d := dao.New(db, context.Background(), dao.WithConfig(cfg))
	require.NoError(t, d.Migrate())
	return dao.NewDraftRepository(dao.NewKVRepository(d))
}

func newTestDraftService(t *testing.T, now func() time.Time) *draftService {
	t.Helper()
	s := NewDraftService(newTestDraftRepo(t), nil).(*draftService)
	if now != nil {
		s.now = now
	}
	return s
}

func TestDraftServiceSaveGetDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestDraftService(t, nil)

	saved, err := s.Save(ctx, &domain.Document{Title: "  ", Tags: []string{" go ", ""}, Body: "<p>hi</p>"})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, domain.UntitledTitle, saved.Title)
	assert.Equal(t, []string{"go"}, saved.Tags)
	assert.False(t, saved.CreatedAt.IsZero())

	got, err := s.Get(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.Body, got.Body)

	require.NoError(t, s.Delete(ctx, saved.ID))
	_, err = s.Get(ctx, saved.ID)
	assert.True(t, errors.Is(err, code.ErrorDraftNotFound))

	// 删除不存在的草稿不报错
	assert.NoError(t, s.Delete(ctx, "draft-missing"))
}

func TestDraftServiceIDsUniqueWithinMillisecond(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newTestDraftService(t, func() time.Time { return fixed })

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		d, err := s.Save(ctx, &domain.Document{Title: "t"})
		require.NoError(t, err)
		assert.False(t, seen[d.ID], d.ID)
		seen[d.ID] = true
	}
	assert.True(t, seen["draft-1704067200000-0"])

	// 删除后 ID 不会被重新分配
	require.NoError(t, s.Delete(ctx, "draft-1704067200000-4"))
	d, err := s.Save(ctx, &domain.Document{Title: "t"})
	require.NoError(t, err)
	assert.Equal(t, "draft-1704067200000-5", d.ID)
}

func TestDraftServiceUpdatedAtMonotonic(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := newTestDraftService(t, func() time.Time { return now })

	d, err := s.Save(ctx, &domain.Document{Title: "a"})
	require.NoError(t, err)
	created := d.CreatedAt

	// 时钟回拨
	now = now.Add(-time.Hour)
	d.Title = "b"
	d2, err := s.Save(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, d.ID, d2.ID)
	assert.True(t, created.Equal(d2.CreatedAt))
	assert.False(t, d2.UpdatedAt.Before(d.UpdatedAt))
	assert.Equal(t, "b", d2.Title)
}

func TestDraftServiceListNewestFirst(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := newTestDraftService(t, func() time.Time { return now })

	first, err := s.Save(ctx, &domain.Document{Title: "first"})
	require.NoError(t, err)
	now = now.Add(time.Minute)
	_, err = s.Save(ctx, &domain.Document{Title: "second"})
	require.NoError(t, err)
	now = now.Add(time.Minute)
	_, err = s.Save(ctx, first)
	require.NoError(t, err)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "first", list[0].Title)
	assert.Equal(t, "second", list[1].Title)
}
