package editor

import (
	"fmt"
	"html"
	"strings"
)

// Command is a toolbar formatting action.
// Command 工具栏格式化命令
type Command string

const (
	CommandBold   Command = "bold"
	CommandItalic Command = "italic"
	CommandH2     Command = "h2"
	CommandH3     Command = "h3"
	CommandUL     Command = "ul"
	CommandOL     Command = "ol"
	CommandQuote  Command = "quote"
	CommandLink   Command = "link"
	CommandCode   Command = "code"
)

type formatter func(text, arg string) (string, error)

func wrap(tag string) formatter {
	return func(text, _ string) (string, error) {
		return "<" + tag + ">" + text + "</" + tag + ">", nil
	}
}

func list(tag string) formatter {
	return func(text, _ string) (string, error) {
		var sb strings.Builder
		sb.WriteString("<" + tag + ">")
		for _, line := range strings.Split(text, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				sb.WriteString("<li>" + line + "</li>")
			}
		}
		sb.WriteString("</" + tag + ">")
		return sb.String(), nil
	}
}

var formatters = map[Command]formatter{
	CommandBold:   wrap("strong"),
	CommandItalic: wrap("em"),
	CommandH2:     wrap("h2"),
	CommandH3:     wrap("h3"),
	CommandUL:     list("ul"),
	CommandOL:     list("ol"),
	CommandQuote:  wrap("blockquote"),
	CommandLink: func(text, url string) (string, error) {
		if strings.TrimSpace(url) == "" {
			return "", fmt.Errorf("link requires a URL")
		}
		return `<a href="` + html.EscapeString(url) + `">` + text + "</a>", nil
	},
	// 代码内容按纯文本插入
	CommandCode: func(text, _ string) (string, error) {
		return "<code>" + html.EscapeString(text) + "</code>", nil
	},
}

// Commands 全部命令，按工具栏顺序
var Commands = []Command{
	CommandBold, CommandItalic, CommandH2, CommandH3,
	CommandUL, CommandOL, CommandQuote, CommandLink, CommandCode,
}

// ParseCommand 解析命令名
func ParseCommand(s string) (Command, error) {
	c := Command(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := formatters[c]; !ok {
		return "", fmt.Errorf("unknown command %q", s)
	}
	return c, nil
}

// Apply formats text as HTML. arg is the URL for CommandLink and ignored
// otherwise.
// Apply 将文本格式化为 HTML 片段
func (c Command) Apply(text, arg string) (string, error) {
	f, ok := formatters[c]
	if !ok {
		return "", fmt.Errorf("unknown command %q", string(c))
	}
	return f(text, arg)
}
