package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/haierkeys/omni-blogger/internal/domain"
	"github.com/haierkeys/omni-blogger/pkg/markdown"

	"github.com/spf13/cobra"
)

// newTable 对齐输出的表格
func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// printDocument 输出草稿详情，正文以 Markdown 显示
func printDocument(out io.Writer, doc *domain.Document) error {
	body, err := markdown.ToCanonicalHTML(doc.Body)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "ID:      %s\n", doc.ID)
	fmt.Fprintf(out, "Title:   %s\n", doc.Title)
	fmt.Fprintf(out, "Tags:    %s\n", strings.Join(doc.Tags, ", "))
	fmt.Fprintf(out, "State:   %s\n", doc.SyncState())
	if doc.Slug != "" {
		fmt.Fprintf(out, "Slug:    %s (sha %s)\n", doc.Slug, shortVersion(doc.RemoteVersion))
	}
	fmt.Fprintf(out, "Updated: %s\n\n", formatTime(doc.UpdatedAt))
	fmt.Fprintln(out, body)
	return nil
}

func shortVersion(v string) string {
	if len(v) > 7 {
		return v[:7]
	}
	return v
}

// readBody reads the body argument. "-" reads stdin, a .md/.markdown file is
// rendered to HTML and any other file is taken as HTML.
// readBody 读取正文
func readBody(cmd *cobra.Command, file string) (string, error) {
	var (
		raw []byte
		err error
	)
	if file == "-" {
		raw, err = io.ReadAll(cmd.InOrStdin())
	} else {
		raw, err = os.ReadFile(file)
	}
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	lower := strings.ToLower(file)
	if file == "-" || strings.HasSuffix(lower, ".md") || strings.HasSuffix(lower, ".markdown") {
		// 带 front matter 的文件只取正文
		content := string(raw)
		if _, body, ok := markdown.ParseFrontMatter(content); ok {
			content = body
		}
		return markdown.FromCanonical(content), nil
	}
	return string(raw), nil
}

// commandContext 带超时的命令上下文
func commandContext(cmd *cobra.Command, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// confirm 交互确认，yes 为 true 时跳过
func confirm(cmd *cobra.Command, yes bool, prompt string) bool {
	if yes {
		return true
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", prompt)
	var answer string
	if _, err := fmt.Fscanln(cmd.InOrStdin(), &answer); err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
