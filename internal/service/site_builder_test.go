package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/haierkeys/omni-blogger/pkg/code"
	"github.com/haierkeys/omni-blogger/pkg/writequeue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipOnWindows(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell commands differ on windows")
	}
}

func TestSiteBuilderRunsBuildThenDeploy(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()
	wq := writequeue.New(nil, nil)
	defer wq.Shutdown(context.Background())

	b := NewSiteBuilder(&BlogServiceConfig{
		WorkDir:       dir,
		BuildCommand:  "echo built > build.txt",
		DeployCommand: "cat build.txt > deployed.txt",
	}, wq, nil)
	require.NoError(t, b.Build(context.Background()))

	out, err := os.ReadFile(filepath.Join(dir, "deployed.txt"))
	require.NoError(t, err)
	assert.Equal(t, "built\n", string(out))
}

func TestSiteBuilderEmptyCommandsAreSkipped(t *testing.T) {
	b := NewSiteBuilder(&BlogServiceConfig{}, nil, nil)
	assert.NoError(t, b.Build(context.Background()))
}

func TestSiteBuilderFailures(t *testing.T) {
	skipOnWindows(t)

	b := NewSiteBuilder(&BlogServiceConfig{WorkDir: t.TempDir(), BuildCommand: "echo broken; exit 3"}, nil, nil)
	err := b.Build(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, code.ErrorBuildFailed))
	var c *code.Code
	require.True(t, errors.As(err, &c))
	assert.Contains(t, strings.Join(c.Details(), " "), "broken")

	b = NewSiteBuilder(&BlogServiceConfig{WorkDir: t.TempDir(), BuildCommand: "true", DeployCommand: "false"}, nil, nil)
	assert.True(t, errors.Is(b.Build(context.Background()), code.ErrorDeployFailed))
}

func TestSiteBuilderCommandTimeout(t *testing.T) {
	skipOnWindows(t)

	b := NewSiteBuilder(&BlogServiceConfig{
		WorkDir:        t.TempDir(),
		BuildCommand:   "sleep 5",
		CommandTimeout: 100 * time.Millisecond,
	}, nil, nil)
	start := time.Now()
	err := b.Build(context.Background())
	assert.True(t, errors.Is(err, code.ErrorBuildFailed))
	assert.Less(t, time.Since(start), 4*time.Second)
}
