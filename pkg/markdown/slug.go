package markdown

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxSlugLength 最大 slug 长度
const MaxSlugLength = 60

// slugSpace 视为空白的字符，含 Unicode 空格与 BOM
const slugSpace = `\s\v\p{Zs}\x{2028}\x{2029}\x{feff}`

var (
	slugInvalid    = regexp.MustCompile(`[^a-z0-9` + slugSpace + `-]`)
	slugWhitespace = regexp.MustCompile(`[` + slugSpace + `]+`)
	slugHyphens    = regexp.MustCompile(`-+`)
)

// Slugify derives the URL identity of a post from its title. The result only
// contains [a-z0-9-], is at most 60 characters and Slugify(Slugify(x)) == Slugify(x).
// Slugify 根据标题生成 slug
func Slugify(title string) string {
	s := strings.ToLower(title)
	s = slugInvalid.ReplaceAllString(s, "")
	s = slugWhitespace.ReplaceAllString(s, "-")
	s = slugHyphens.ReplaceAllString(s, "-")
	if len(s) > MaxSlugLength {
		s = s[:MaxSlugLength]
	}
	return s
}

// Filename is the post file name for a slug.
func Filename(slug string) string {
	return slug + ".md"
}

// SlugFromFilename strips the .md extension.
func SlugFromFilename(name string) string {
	return strings.TrimSuffix(name, ".md")
}

var (
	excerptLinks   = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	excerptMarkers = regexp.MustCompile("(?m)^(#{1,6} |> |- |\\d+\\. )|[*`_]|^---$")
	excerptSpaces  = regexp.MustCompile(`\s+`)
)

// Excerpt returns the first n characters of the post body as plain text.
// Excerpt 返回正文前 n 个字符的纯文本摘要
func Excerpt(body string, n int) string {
	text := excerptLinks.ReplaceAllString(body, "$1")
	text = excerptMarkers.ReplaceAllString(text, "")
	text = strings.TrimSpace(excerptSpaces.ReplaceAllString(text, " "))
	if n <= 0 || utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:n])) + "..."
}
