package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	internalApp "github.com/haierkeys/omni-blogger/internal/app"
	"github.com/haierkeys/omni-blogger/internal/dao"
	"github.com/haierkeys/omni-blogger/pkg/fileurl"
	"github.com/haierkeys/omni-blogger/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// defaultTokenPlaceholder 默认配置中的 Token 占位符，首次生成配置时替换为随机值
const defaultTokenPlaceholder = "omni-blogger-Auth-Token"

// resolveConfigPath returns the -c file, or the first existing default
// location. When none exists the embedded default config is written to
// config/config.yaml.
// resolveConfigPath 查找配置文件，不存在时写入默认配置
func resolveConfigPath() (string, error) {
	if len(rootEnv.config) > 0 {
		return rootEnv.config, nil
	}
	for _, p := range []string{"config/config-dev.yaml", "config.yaml", "config/config.yaml"} {
		if fileurl.IsExist(p) {
			return p, nil
		}
	}

	bootstrapLogger.Warn("config file not found, creating default config")
	path := "config/config.yaml"

	// 服务端与客户端使用同一个随机 Token
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	content := strings.ReplaceAll(configDefault, defaultTokenPlaceholder, token)

	if err := fileurl.CreatePath(path, os.ModePerm); err != nil {
		return "", fmt.Errorf("config file auto create error: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return "", fmt.Errorf("config file auto create writing error: %w", err)
	}
	bootstrapLogger.Info("config file auto create successfully", zap.String("path", path))
	return path, nil
}

// loadConfig 定位并加载配置
func loadConfig() (*internalApp.AppConfig, string, error) {
	path, err := resolveConfigPath()
	if err != nil {
		return nil, "", err
	}
	cfg, realpath, err := internalApp.LoadConfig(path)
	if err != nil {
		return nil, realpath, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, realpath, nil
}

// initLoggerWithConfig initializes logger (using injected config)
// initLoggerWithConfig 初始化日志器（使用注入的配置）
func initLoggerWithConfig(cfg *internalApp.AppConfig, console bool) (*zap.Logger, error) {
	lg, err := logger.NewLogger(logger.Config{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		Production: cfg.Log.Production,
		NoConsole:  !console,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}
	return lg, nil
}

// initDatabaseWithConfig initializes database (using injected config)
// initDatabaseWithConfig 初始化数据库（使用注入的配置）
func initDatabaseWithConfig(cfg *internalApp.AppConfig, lg *zap.Logger) (*gorm.DB, error) {
	return dao.NewDBEngineWithConfig(cfg.GetDatabaseConfig(), lg)
}

// initStorageWithConfig initializes storage directory (using injected config)
// initStorageWithConfig 初始化存储目录（使用注入的配置）
func initStorageWithConfig(cfg *internalApp.AppConfig) error {
	dirs := []string{
		filepath.Dir(cfg.Log.File),
		cfg.Client.ExportPath,
	}
	if cfg.Database.Type == "" || cfg.Database.Type == "sqlite" {
		dirs = append(dirs, filepath.Dir(cfg.Database.Path))
	}

	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0754); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// newClientApp builds the App Container for the client commands. Logs go to
// the log file only so command output stays readable.
// newClientApp 为客户端命令创建 App Container
func newClientApp() (*internalApp.App, func(), error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if err := initStorageWithConfig(cfg); err != nil {
		return nil, nil, fmt.Errorf("initStorage: %w", err)
	}
	lg, err := initLoggerWithConfig(cfg, false)
	if err != nil {
		return nil, nil, err
	}
	db, err := initDatabaseWithConfig(cfg, lg)
	if err != nil {
		return nil, nil, fmt.Errorf("initDatabase: %w", err)
	}
	a, err := internalApp.NewApp(cfg, lg, db)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create app container: %w", err)
	}

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), internalApp.DefaultShutdownTimeout)
		defer cancel()
		if err := a.Shutdown(ctx); err != nil {
			lg.Warn("app shutdown error", zap.Error(err))
		}
		_ = lg.Sync()
	}
	return a, cleanup, nil
}
