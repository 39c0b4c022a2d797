package contentapi

import "time"

// Image is an uploaded image, content base64 encoded.
type Image struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// CreateRequest POST / 请求体
type CreateRequest struct {
	Filename string  `json:"filename"`
	Content  string  `json:"content"`
	Images   []Image `json:"images,omitempty"`
}

// CreateResult POST / 响应
type CreateResult struct {
	Success        bool   `json:"success"`
	Message        string `json:"message,omitempty"`
	Filename       string `json:"filename"`
	Version        string `json:"sha,omitempty"`
	ImagesUploaded int    `json:"imagesUploaded"`
}

// UpdateRequest PUT /posts/{slug} 请求体
type UpdateRequest struct {
	Content string `json:"content"`
	Version string `json:"sha"`
}

// UpdateResult PUT /posts/{slug} 响应
type UpdateResult struct {
	Success    bool   `json:"success"`
	NewVersion string `json:"sha"`
}

// DeleteRequest DELETE /posts/{slug} 请求体
type DeleteRequest struct {
	Version string `json:"sha"`
}

// DeleteResult DELETE /posts/{slug} 响应
type DeleteResult struct {
	Success bool `json:"success"`
}

// FrontMatter is the part of a post header the editor needs.
type FrontMatter struct {
	Title string   `json:"title"`
	Tags  []string `json:"tags"`
}

// Post GET /posts/{slug} 响应；Content 为不含头部的正文
type Post struct {
	Content     string      `json:"content"`
	FrontMatter FrontMatter `json:"frontmatter"`
	Version     string      `json:"sha"`
}

// PostSummary 文章列表项
type PostSummary struct {
	Slug    string    `json:"slug"`
	Title   string    `json:"title"`
	Date    time.Time `json:"date"`
	Tags    []string  `json:"tags"`
	Excerpt string    `json:"excerpt"`
}

// PostList GET /posts 响应
type PostList struct {
	Posts []PostSummary `json:"posts"`
}

// RemoteConfig GET /config 响应
type RemoteConfig struct {
	BlogURL string `json:"blogUrl"`
	APIURL  string `json:"apiUrl"`
}

// ServerInfo GET /health 响应中的服务信息
type ServerInfo struct {
	Status    string  `json:"status"`
	Version   string  `json:"version"`
	GitTag    string  `json:"gitTag"`
	BuildTime string  `json:"buildTime"`
	Uptime    float64 `json:"uptime"`
}
