package markdown

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const frontmatterDelimiter = "---"

// DateLayout is the front matter date format: RFC 3339 in UTC with milliseconds.
const DateLayout = "2006-01-02T15:04:05.000Z"

// FrontMatterData holds the front matter fields the blog relies on.
type FrontMatterData struct {
	Title string    `json:"title"`
	Date  time.Time `json:"date"`
	Draft bool      `json:"draft"`
	Tags  []string  `json:"tags"`
}

// FrontMatter renders the YAML header of a post. title and date are always
// present; tags only when at least one non-empty tag remains after trimming.
// FrontMatter 生成文章头部，title 与 date 必有，tags 仅在非空时输出
func FrontMatter(title string, tags []string, date time.Time) string {
	var sb strings.Builder
	sb.WriteString(frontmatterDelimiter + "\n")
	sb.WriteString("title: " + quote(title) + "\n")
	sb.WriteString("date: " + date.UTC().Format(DateLayout) + "\n")
	sb.WriteString("draft: false")

	if clean := CleanTags(tags); len(clean) > 0 {
		quoted := make([]string, len(clean))
		for i, t := range clean {
			quoted[i] = quote(t)
		}
		sb.WriteString("\ntags: [" + strings.Join(quoted, ", ") + "]")
	}

	sb.WriteString("\n" + frontmatterDelimiter + "\n\n")
	return sb.String()
}

// Compose joins a front matter header and a Markdown body into a post file.
func Compose(title string, tags []string, date time.Time, body string) string {
	return FrontMatter(title, tags, date) + body
}

func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}

// ParseFrontMatter extracts the leading YAML block of a post.
// Returns the parsed fields, the body after the block and whether a block exists.
func ParseFrontMatter(content string) (fm FrontMatterData, body string, ok bool) {
	raw, body, ok := splitFrontMatter(content)
	if !ok {
		return fm, content, false
	}

	data := make(map[string]interface{})
	if err := yaml.Unmarshal([]byte(raw), &data); err != nil {
		return fm, content, false
	}

	if v, exists := data["title"]; exists && v != nil {
		fm.Title = fmt.Sprint(v)
	}
	if v, exists := data["draft"].(bool); exists {
		fm.Draft = v
	}
	switch v := data["date"].(type) {
	case time.Time:
		fm.Date = v
	case string:
		fm.Date = parseDate(v)
	}
	switch v := data["tags"].(type) {
	case []interface{}:
		tags := make([]string, 0, len(v))
		for _, t := range v {
			tags = append(tags, fmt.Sprint(t))
		}
		fm.Tags = CleanTags(tags)
	case string:
		fm.Tags = ParseTags(v)
	}

	return fm, body, true
}

func splitFrontMatter(content string) (raw, body string, ok bool) {
	content = strings.TrimPrefix(content, "\ufeff")
	content = strings.ReplaceAll(content, "\r\n", "\n")
	if !strings.HasPrefix(content, frontmatterDelimiter+"\n") {
		return "", content, false
	}

	rest := content[len(frontmatterDelimiter)+1:]
	end := strings.Index(rest, "\n"+frontmatterDelimiter)
	if end == -1 {
		return "", content, false
	}

	raw = rest[:end]
	body = rest[end+len("\n"+frontmatterDelimiter):]
	body = strings.TrimLeft(body, "\n")
	return raw, body, true
}

func parseDate(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ParseTags splits comma separated input into clean tags.
// ParseTags 将逗号分隔的输入拆分为标签
func ParseTags(raw string) []string {
	return CleanTags(strings.Split(raw, ","))
}

// CleanTags trims every tag and drops empty ones, keeping order.
func CleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
