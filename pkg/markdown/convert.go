// Package markdown converts between the editor's rich-text HTML and the
// canonical Markdown stored in the blog repository.
// Package markdown 负责编辑器富文本 HTML 与博客仓库中规范 Markdown 之间的转换
package markdown

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var excessNewlines = regexp.MustCompile(`\n{3,}`)

// ToCanonicalHTML parses an HTML fragment and converts it to canonical Markdown.
// ToCanonicalHTML 解析 HTML 片段并转换为规范 Markdown
func ToCanonicalHTML(src string) (string, error) {
	container := &html.Node{Type: html.ElementNode, DataAtom: atom.Div, Data: "div"}
	nodes, err := html.ParseFragment(strings.NewReader(src), container)
	if err != nil {
		return "", err
	}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	return ToCanonical(container), nil
}

// ToCanonical converts a parsed HTML tree to Markdown. The root element itself
// is treated as a container and contributes only its children. Elements with no
// Markdown equivalent keep their text and lose their structure.
// ToCanonical 将 HTML 树转换为 Markdown，未知元素只保留文本
func ToCanonical(root *html.Node) string {
	var sb strings.Builder
	if root != nil {
		if root.Type == html.ElementNode || root.Type == html.DocumentNode {
			sb.WriteString(children(root, false))
		} else {
			sb.WriteString(convertNode(root, false))
		}
	}
	return strings.TrimSpace(excessNewlines.ReplaceAllString(sb.String(), "\n\n"))
}

func children(n *html.Node, inPre bool) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(convertNode(c, inPre))
	}
	return sb.String()
}

func convertNode(n *html.Node, inPre bool) string {
	switch n.Type {
	case html.TextNode:
		return n.Data
	case html.ElementNode:
	default:
		return ""
	}

	tag := strings.ToLower(n.Data)
	if tag == "pre" {
		return "```\n" + children(n, true) + "\n```\n\n"
	}

	inner := children(n, inPre)

	switch tag {
	case "h1":
		return "# " + inner + "\n\n"
	case "h2":
		return "## " + inner + "\n\n"
	case "h3":
		return "### " + inner + "\n\n"
	case "h4":
		return "#### " + inner + "\n\n"
	case "p", "div":
		return inner + "\n\n"
	case "strong", "b":
		return "**" + inner + "**"
	case "em", "i":
		return "*" + inner + "*"
	case "a":
		return "[" + inner + "](" + attr(n, "href") + ")"
	case "code":
		// code inside a fenced block is already literal
		if inPre {
			return inner
		}
		return "`" + inner + "`"
	case "blockquote":
		lines := strings.Split(inner, "\n")
		for i, line := range lines {
			lines[i] = "> " + line
		}
		return strings.Join(lines, "\n") + "\n\n"
	case "ul", "ol":
		return inner + "\n"
	case "li":
		prefix := "- "
		if p := n.Parent; p != nil && p.Type == html.ElementNode && strings.EqualFold(p.Data, "ol") {
			prefix = strconv.Itoa(elementIndex(n)+1) + ". "
		}
		return prefix + strings.TrimSpace(inner) + "\n"
	case "br":
		return "\n"
	case "hr":
		return "\n---\n\n"
	}
	return inner
}

// elementIndex is the position of n among its parent's element children.
func elementIndex(n *html.Node) int {
	i := 0
	for s := n.Parent.FirstChild; s != nil && s != n; s = s.NextSibling {
		if s.Type == html.ElementNode {
			i++
		}
	}
	return i
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// PlainText returns the text content of an HTML fragment, like a DOM
// textContent. Unparseable input is returned unchanged.
// PlainText 返回 HTML 片段的纯文本内容
func PlainText(src string) string {
	container := &html.Node{Type: html.ElementNode, DataAtom: atom.Div, Data: "div"}
	nodes, err := html.ParseFragment(strings.NewReader(src), container)
	if err != nil {
		return src
	}
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return sb.String()
}
