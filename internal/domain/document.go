// Package domain 定义领域模型和接口
package domain

import (
	"strings"
	"time"
)

// UntitledTitle is stored for drafts saved without a title.
const UntitledTitle = "Untitled"

// SyncState 文档同步状态
type SyncState string

const (
	// SyncDraft 仅存在于本地草稿
	SyncDraft SyncState = "draft"
	// SyncPublished 仅存在于远端
	SyncPublished SyncState = "published"
	// SyncBoth 已发布的文章正在本地编辑
	SyncBoth SyncState = "both"
)

// Document is a blog post as the editor sees it: a local draft, a published
// post, or a published post with a local draft.
// Document 文档领域模型
type Document struct {
	ID            string    `json:"id,omitempty"`
	Slug          string    `json:"slug,omitempty"`
	Title         string    `json:"title"`
	Tags          []string  `json:"tags"`
	Body          string    `json:"content"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	RemoteVersion string    `json:"sha,omitempty"`
}

// IsPublished 是否已发布
func (d *Document) IsPublished() bool {
	return d.Slug != "" && d.RemoteVersion != ""
}

// SyncState 返回文档同步状态
func (d *Document) SyncState() SyncState {
	switch {
	case d.ID != "" && d.IsPublished():
		return SyncBoth
	case d.IsPublished():
		return SyncPublished
	}
	return SyncDraft
}

// Normalize applies the stored form: trimmed title defaulting to Untitled and
// trimmed non-empty tags.
// Normalize 规范化标题与标签
func (d *Document) Normalize() {
	d.Title = strings.TrimSpace(d.Title)
	if d.Title == "" {
		d.Title = UntitledTitle
	}
	tags := make([]string, 0, len(d.Tags))
	for _, t := range d.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	d.Tags = tags
}

// Clone 深拷贝
func (d *Document) Clone() *Document {
	c := *d
	c.Tags = append([]string(nil), d.Tags...)
	return &c
}
