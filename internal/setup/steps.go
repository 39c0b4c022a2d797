// Package setup prepares a blog for publishing as an ordered sequence of
// checkpointed steps that can be resumed and recovered.
// Package setup 站点初始化：按顺序执行、可断点续传与恢复的多步骤操作
package setup

import (
	"context"
	"strings"

	"github.com/haierkeys/omni-blogger/pkg/contentapi"
	"github.com/haierkeys/omni-blogger/pkg/storage"

	pkgerrors "github.com/pkg/errors"
)

// StepID 步骤标识
type StepID string

const (
	StepPrepareWorkspace StepID = "prepare_workspace"
	StepVerifyAPI        StepID = "verify_api"
	StepVerifyStorage    StepID = "verify_storage"
	StepSaveConfig       StepID = "save_config"
)

// Steps is the declared execution order.
var Steps = []StepID{
	StepPrepareWorkspace,
	StepVerifyAPI,
	StepVerifyStorage,
	StepSaveConfig,
}

func (id StepID) String() string {
	return string(id)
}

// Title 步骤的显示名称
func (id StepID) Title() string {
	switch id {
	case StepPrepareWorkspace:
		return "Prepare blog workspace"
	case StepVerifyAPI:
		return "Verify content API"
	case StepVerifyStorage:
		return "Verify media storage"
	case StepSaveConfig:
		return "Save configuration"
	}
	return string(id)
}

// ParseStepID 解析步骤标识
func ParseStepID(s string) (StepID, bool) {
	for _, id := range Steps {
		if string(id) == strings.TrimSpace(s) {
			return id, true
		}
	}
	return "", false
}

// 进度记录中 Config 的键
const (
	ConfigBlogURL     = "blogUrl"
	ConfigAPIURL      = "apiUrl"
	ConfigStorageType = "storageType"
)

// checkKey 存储检查写入的对象键
const checkKey = ".omni-blogger-check"

// Workspace 本地博客工作区
type Workspace interface {
	Prepare(ctx context.Context) error
}

// RemoteConfigurer 内容 API 的站点配置接口
type RemoteConfigurer interface {
	Config(ctx context.Context) (*contentapi.RemoteConfig, error)
}

// ConfigWriter persists the resolved settings, typically into the config file.
type ConfigWriter func(ctx context.Context, resolved map[string]string) error

// Deps are the collaborators the steps act on. A nil Workspace, Storage or
// WriteConfig makes the corresponding step succeed without doing anything.
// Deps 步骤依赖
type Deps struct {
	Workspace   Workspace
	API         RemoteConfigurer
	Storage     storage.Storager
	StorageType string
	WriteConfig ConfigWriter
	// Defaults 初始配置，远端未返回时使用
	Defaults map[string]string
}

// operations 构造步骤表
func (r *Runner) operations() map[StepID]func(ctx context.Context) error {
	return map[StepID]func(ctx context.Context) error{
		StepPrepareWorkspace: r.prepareWorkspace,
		StepVerifyAPI:        r.verifyAPI,
		StepVerifyStorage:    r.verifyStorage,
		StepSaveConfig:       r.saveConfig,
	}
}

func (r *Runner) prepareWorkspace(ctx context.Context) error {
	if r.deps.Workspace == nil {
		return nil
	}
	return r.deps.Workspace.Prepare(ctx)
}

func (r *Runner) verifyAPI(ctx context.Context) error {
	if r.deps.API == nil {
		return pkgerrors.New("content api client is not configured")
	}
	rc, err := r.deps.API.Config(ctx)
	if err != nil {
		return err
	}
	r.setConfig(ConfigBlogURL, strings.TrimRight(rc.BlogURL, "/"))
	r.setConfig(ConfigAPIURL, strings.TrimRight(rc.APIURL, "/"))
	return nil
}

func (r *Runner) verifyStorage(ctx context.Context) error {
	if r.deps.Storage == nil {
		return nil
	}
	if _, err := r.deps.Storage.Put(ctx, checkKey, []byte("ok"), "text/plain"); err != nil {
		return pkgerrors.Wrap(err, "storage write check")
	}
	if err := r.deps.Storage.Delete(ctx, checkKey); err != nil {
		return pkgerrors.Wrap(err, "storage delete check")
	}
	r.setConfig(ConfigStorageType, r.deps.StorageType)
	return nil
}

func (r *Runner) saveConfig(ctx context.Context) error {
	if r.deps.WriteConfig == nil {
		return nil
	}
	return r.deps.WriteConfig(ctx, r.Config())
}
