package domain

import (
	"context"
	"errors"
)

// ErrVersionMismatch is returned when a post changed since the caller read it.
var ErrVersionMismatch = errors.New("post version mismatch")

// ErrPostNotFound is returned when a post file does not exist.
var ErrPostNotFound = errors.New("post not found")

// ErrInvalidSlug is returned for slugs that are not a plain file name.
var ErrInvalidSlug = errors.New("invalid post slug")

// KVRepository 键值仓储接口，本地持久化的统一入口
type KVRepository interface {
	// Get 读取值，found 为 false 表示不存在
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// Put 写入值（覆盖）
	Put(ctx context.Context, key string, value []byte) error

	// Delete 删除键，不存在时不报错
	Delete(ctx context.Context, key string) error
}

// DraftRepository 草稿仓储接口
type DraftRepository interface {
	// LoadAll 读取全部草稿
	LoadAll(ctx context.Context) ([]*Document, error)

	// SaveAll 整体写回草稿集合
	SaveAll(ctx context.Context, drafts []*Document) error
}

// PostRepository 文章仓储接口（服务端，基于 Git 工作区）
type PostRepository interface {
	// Get 读取文章及其当前版本
	Get(ctx context.Context, slug string) (*Post, error)

	// List 列出全部文章
	List(ctx context.Context) ([]*Post, error)

	// Put writes a post unconditionally and returns its new version.
	Put(ctx context.Context, slug, content string) (string, error)

	// Replace writes a post only if its current version is expectedVersion.
	Replace(ctx context.Context, slug, content, expectedVersion string) (string, error)

	// Remove deletes a post only if its current version is expectedVersion.
	Remove(ctx context.Context, slug, expectedVersion string) error

	// PostPath 文章文件相对工作区的路径
	PostPath(slug string) string

	// SaveImages 写入图片，返回相对工作区的路径
	SaveImages(ctx context.Context, images []Image) ([]string, error)

	// Commit 提交变更（可选推送）
	Commit(ctx context.Context, message string, paths ...string) error
}
