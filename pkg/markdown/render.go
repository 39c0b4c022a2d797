package markdown

import "regexp"

type rewrite struct {
	re   *regexp.Regexp
	repl string
}

// order matters: longer header prefixes first, bold before italic
var rewrites = []rewrite{
	{regexp.MustCompile(`(?m)^### (.*)$`), "<h3>$1</h3>"},
	{regexp.MustCompile(`(?m)^## (.*)$`), "<h2>$1</h2>"},
	{regexp.MustCompile(`(?m)^# (.*)$`), "<h1>$1</h1>"},
	{regexp.MustCompile(`\*\*(.*?)\*\*`), "<strong>$1</strong>"},
	{regexp.MustCompile(`\*(.*?)\*`), "<em>$1</em>"},
	{regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`), `<a href="$2">$1</a>`},
	{regexp.MustCompile("`([^`]+)`"), "<code>$1</code>"},
	{regexp.MustCompile(`\n\n`), "</p><p>"},
	{regexp.MustCompile(`\n`), "<br>"},
}

// FromCanonical renders Markdown back to editor HTML for editing a published
// post. It is a best-effort display conversion, not an inverse of ToCanonical:
// lists, quotes and fenced blocks come back as plain paragraphs.
// FromCanonical 将 Markdown 尽力转换回编辑器 HTML，仅用于重新编辑
func FromCanonical(md string) string {
	out := md
	for _, r := range rewrites {
		out = r.re.ReplaceAllString(out, r.repl)
	}
	return "<p>" + out + "</p>"
}
