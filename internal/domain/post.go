package domain

import "time"

// Post is a published post file in the blog workspace.
// Post 博客仓库中的文章文件
type Post struct {
	Slug    string
	Content string
	Version string
	ModTime time.Time
}

// Filename 文章文件名
func (p *Post) Filename() string {
	return p.Slug + ".md"
}

// Image 待写入的图片
type Image struct {
	Filename string
	Data     []byte
}
