package code

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLanguageSwitch(t *testing.T) {
	defer func() { _ = SetGlobalDefaultLang(FallbackLang) }()

	assert.Equal(t, "Post not found", ErrorPostNotFound.Msg())

	require.NoError(t, SetGlobalDefaultLang("zh-CN"))
	assert.Equal(t, LangZhCN, GetGlobalDefaultLang())
	assert.Equal(t, "文章不存在", ErrorPostNotFound.Msg())

	assert.Error(t, SetGlobalDefaultLang("fr"))
	assert.Equal(t, LangEN, GetGlobalDefaultLang())
	assert.Equal(t, "Post not found", ErrorPostNotFound.Msg())
	assert.Equal(t, []string{LangEN, LangZhCN}, SupportedLanguages())
}

func TestCodeDetailsAndIs(t *testing.T) {
	c := ErrorPostConflict.WithDetails("stale sha")
	assert.Equal(t, http.StatusConflict, c.StatusCode())
	assert.True(t, errors.Is(c, ErrorPostConflict))
	assert.False(t, errors.Is(c, ErrorPostNotFound))
	assert.Equal(t, []string{"stale sha"}, c.Details())
	// 原始错误码不受影响
	assert.False(t, ErrorPostConflict.HaveDetails())
}
