// Package upgrade applies versioned data migrations after the schema has
// been auto-migrated.
// Package upgrade 数据升级脚本
package upgrade

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/haierkeys/omni-blogger/internal/model"
	"github.com/haierkeys/omni-blogger/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/mod/semver"
	"gorm.io/gorm"
)

// LastVersionKey kv_entry 中记录上次运行版本的键
const LastVersionKey = "app-last-version"

// SchemaVersion 数据库版本记录表
type SchemaVersion struct {
	ID          int       `gorm:"primaryKey;autoIncrement" json:"id"`
	Version     string    `gorm:"not null;uniqueIndex;type:varchar(64)" json:"version"`
	Description string    `gorm:"type:text" json:"description"`
	AppliedAt   time.Time `gorm:"not null" json:"applied_at"`
}

// TableName 指定表名
func (SchemaVersion) TableName() string {
	return "schema_version"
}

// Migration 定义升级接口
type Migration interface {
	Version() string
	Description() string
	Up(ctx context.Context, tx *gorm.DB) error
}

// MigrationManager 升级管理器
type MigrationManager struct {
	db         *gorm.DB
	logger     *zap.Logger
	version    string
	migrations []Migration
}

// NewMigrationManager 创建升级管理器，version 为当前运行版本
func NewMigrationManager(db *gorm.DB, lg *zap.Logger, version string) *MigrationManager {
	return &MigrationManager{
		db:      db,
		logger:  logger.OrNop(lg),
		version: canonical(version),
		migrations: []Migration{
			// 在这里注册所有的升级脚本
			&DraftNormalizeMigrate{},
		},
	}
}

func canonical(v string) string {
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

// Run applies every registered migration newer than the last recorded run
// and not yet applied, each in its own transaction, then records the
// running version.
// Run 执行升级
func (m *MigrationManager) Run(ctx context.Context) error {
	if err := m.db.WithContext(ctx).AutoMigrate(&SchemaVersion{}); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	appliedVersions, err := m.getAppliedVersions(ctx)
	if err != nil {
		return fmt.Errorf("failed to get applied versions: %w", err)
	}

	lastVersion, err := m.getReferenceVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get last version: %w", err)
	}

	// 当前版本不高于上次运行版本时跳过
	if semver.IsValid(m.version) && semver.Compare(m.version, lastVersion) <= 0 {
		m.logger.Debug("skipping upgrade", zap.String("runningVersion", m.version), zap.String("lastVersion", lastVersion))
		return nil
	}

	pending := make([]Migration, 0, len(m.migrations))
	for _, migration := range m.migrations {
		v := canonical(migration.Version())
		if semver.Compare(v, lastVersion) <= 0 || appliedVersions[migration.Version()] {
			continue
		}
		pending = append(pending, migration)
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return semver.Compare(canonical(pending[i].Version()), canonical(pending[j].Version())) < 0
	})

	for _, migration := range pending {
		m.logger.Info("applying migration",
			zap.String(logger.FieldVersion, migration.Version()),
			zap.String("desc", migration.Description()))

		if err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := migration.Up(ctx, tx); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			record := &SchemaVersion{
				Version:     migration.Version(),
				Description: migration.Description(),
				AppliedAt:   time.Now(),
			}
			return tx.Create(record).Error
		}); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", migration.Version(), err)
		}
	}

	if len(pending) > 0 {
		m.logger.Info("upgrade completed", zap.Int("migrations_applied", len(pending)))
	}

	// 记录失败不阻断启动
	if err := m.saveReferenceVersion(ctx); err != nil {
		m.logger.Error("save last version failed", zap.Error(err))
	}
	return nil
}

// getAppliedVersions 获取已应用的数据库版本
func (m *MigrationManager) getAppliedVersions(ctx context.Context) (map[string]bool, error) {
	var versions []SchemaVersion
	if err := m.db.WithContext(ctx).Find(&versions).Error; err != nil {
		return nil, err
	}
	applied := make(map[string]bool, len(versions))
	for _, v := range versions {
		applied[v.Version] = true
	}
	return applied, nil
}

// getReferenceVersion 上次运行的版本，不存在时为 v0.0.0
func (m *MigrationManager) getReferenceVersion(ctx context.Context) (string, error) {
	var entry model.KVEntry
	err := m.db.WithContext(ctx).Where(&model.KVEntry{Key: LastVersionKey}).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "v0.0.0", nil
	}
	if err != nil {
		return "", err
	}
	v := canonical(entry.Value)
	if !semver.IsValid(v) {
		m.logger.Warn("recorded version is not a valid semver, reapplying migrations", zap.String("lastVersion", entry.Value))
		return "v0.0.0", nil
	}
	return v, nil
}

// saveReferenceVersion 记录当前运行版本
func (m *MigrationManager) saveReferenceVersion(ctx context.Context) error {
	entry := model.KVEntry{Key: LastVersionKey, Value: m.version, UpdatedAt: time.Now()}
	return m.db.WithContext(ctx).Save(&entry).Error
}

// Execute 执行升级(便捷方法)
func Execute(ctx context.Context, db *gorm.DB, lg *zap.Logger, version string) error {
	if db == nil {
		return fmt.Errorf("database not initialized")
	}
	return NewMigrationManager(db, lg, version).Run(ctx)
}
