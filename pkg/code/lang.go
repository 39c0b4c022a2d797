package code

import (
	"fmt"
	"sync/atomic"
)

// 支持的语言
const (
	LangEN   = "en"
	LangZhCN = "zh_cn"
)

// FallbackLang 默认语言
const FallbackLang = LangEN

// lang 一条消息的多语言文本
type lang struct {
	en    string
	zh_cn string
}

// current 当前语言，未设置时为 FallbackLang
var current atomic.Value

// GetMessage returns the text in the current language, falling back to English.
// GetMessage 返回当前语言的文本
func (l lang) GetMessage() string {
	if GetGlobalDefaultLang() == LangZhCN && l.zh_cn != "" {
		return l.zh_cn
	}
	return l.en
}

// SupportedLanguages 支持的语言列表
func SupportedLanguages() []string {
	return []string{LangEN, LangZhCN}
}

// SetGlobalDefaultLang sets the language of response messages. An unknown
// language resets it to English and returns an error.
// SetGlobalDefaultLang 设置全局默认语言
func SetGlobalDefaultLang(language string) error {
	switch language {
	case LangEN, LangZhCN:
		current.Store(language)
		return nil
	case "zh", "zh-CN", "zh_CN":
		current.Store(LangZhCN)
		return nil
	}
	current.Store(FallbackLang)
	return fmt.Errorf("unsupported language %q, defaulting to %s", language, FallbackLang)
}

// GetGlobalDefaultLang 当前语言
func GetGlobalDefaultLang() string {
	if v, ok := current.Load().(string); ok {
		return v
	}
	return FallbackLang
}
