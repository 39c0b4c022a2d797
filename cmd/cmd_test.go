package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/haierkeys/omni-blogger/internal/service"
	"github.com/haierkeys/omni-blogger/internal/setup"
	"github.com/haierkeys/omni-blogger/pkg/diff"
	apperrors "github.com/haierkeys/omni-blogger/pkg/errors"
	"github.com/haierkeys/omni-blogger/pkg/progress"
	"github.com/haierkeys/omni-blogger/pkg/retry"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveConfigPathCreatesDefault(t *testing.T) {
	t.Chdir(t.TempDir())
	configDefault = "security:\n  auth-token: omni-blogger-Auth-Token\nclient:\n  auth-token: omni-blogger-Auth-Token\n"
	rootEnv.config = ""

	path, err := resolveConfigPath()
	require.NoError(t, err)
	assert.Equal(t, "config/config.yaml", path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.NotContains(t, content, defaultTokenPlaceholder)
	// 服务端与客户端 Token 一致
	lines := strings.Split(strings.TrimSpace(content), "\n")
	server := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(lines[1]), "auth-token:"))
	client := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(lines[3]), "auth-token:"))
	assert.Len(t, server, 32)
	assert.Equal(t, server, client)

	// 已存在时直接返回
	again, err := resolveConfigPath()
	require.NoError(t, err)
	assert.Equal(t, path, again)
}

func TestResolveConfigPathPrefersFlagAndDevConfig(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.MkdirAll("config", 0755))
	require.NoError(t, os.WriteFile(filepath.Join("config", "config-dev.yaml"), []byte("{}"), 0644))
	require.NoError(t, os.WriteFile("config.yaml", []byte("{}"), 0644))

	rootEnv.config = ""
	path, err := resolveConfigPath()
	require.NoError(t, err)
	assert.Equal(t, "config/config-dev.yaml", path)

	rootEnv.config = "custom.yaml"
	defer func() { rootEnv.config = "" }()
	path, err = resolveConfigPath()
	require.NoError(t, err)
	assert.Equal(t, "custom.yaml", path)
}

func TestPrintPublishError(t *testing.T) {
	var buf bytes.Buffer
	printPublishError(&buf, &service.PublishError{
		Err:          apperrors.New(apperrors.KindConflict, "stale", nil),
		Kind:         apperrors.KindConflict,
		FallbackPath: "storage/exports/hello.md",
		Conflict: &service.Conflict{
			RemoteVersion: "0123456789abcdef",
			Diff:          diff.Report{Unified: "-a\n+b", Insertions: 1, Deletions: 1},
			Clean:         true,
		},
	})
	out := buf.String()
	assert.Contains(t, out, "storage/exports/hello.md")
	assert.Contains(t, out, "sha 0123456")
	assert.Contains(t, out, "+1 -1")
	assert.Contains(t, out, "merge cleanly")

	buf.Reset()
	printPublishError(&buf, errors.New("plain"))
	assert.Empty(t, buf.String())
}

func TestStatusFromState(t *testing.T) {
	got := statusFromState(&progress.State{
		CompletedSteps: []string{"prepare_workspace"},
		FailedSteps:    []string{"verify_api"},
		Failures:       map[string]int{"verify_api": 2},
	})
	require.Len(t, got, len(setup.Steps))
	assert.Equal(t, 2, got[1].Failures)
	assert.Equal(t, retry.StateCompleted, got[0].State)
	assert.Equal(t, retry.StateFailed, got[1].State)
	assert.Equal(t, retry.StatePending, got[2].State)

	var buf bytes.Buffer
	printSteps(&buf, got)
	assert.Contains(t, buf.String(), "Verify content API")
	assert.Contains(t, buf.String(), "failed")
	assert.Contains(t, buf.String(), "FAILED RUNS")
}

func TestReadBodyConvertsMarkdown(t *testing.T) {
	dir := t.TempDir()
	md := filepath.Join(dir, "post.md")
	require.NoError(t, os.WriteFile(md, []byte("---\ntitle: \"Hello\"\n---\n**bold** text\n"), 0644))
	htmlFile := filepath.Join(dir, "post.html")
	require.NoError(t, os.WriteFile(htmlFile, []byte("<p>raw</p>"), 0644))

	cmd := &cobra.Command{}
	body, err := readBody(cmd, md)
	require.NoError(t, err)
	assert.Contains(t, body, "<strong>bold</strong>")
	assert.NotContains(t, body, "title:")

	body, err = readBody(cmd, htmlFile)
	require.NoError(t, err)
	assert.Equal(t, "<p>raw</p>", body)

	cmd.SetIn(strings.NewReader("# Title\n"))
	body, err = readBody(cmd, "-")
	require.NoError(t, err)
	assert.Contains(t, body, "<h1>Title</h1>")
}

func TestConfirm(t *testing.T) {
	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)

	assert.True(t, confirm(cmd, true, "skip?"))
	assert.Empty(t, out.String())

	cmd.SetIn(strings.NewReader("yes\n"))
	assert.True(t, confirm(cmd, false, "Delete?"))
	assert.Contains(t, out.String(), "Delete? [y/N]")

	cmd.SetIn(strings.NewReader("\n"))
	assert.False(t, confirm(cmd, false, "Delete?"))
}

func TestVersionComparison(t *testing.T) {
	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)
	printComparison(cmd, "0.0.1")
	assert.Contains(t, out.String(), "older")
}
