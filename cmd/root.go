package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configDefault string

// rootFlags 全局参数
type rootFlags struct {
	dir    string // Working directory // 工作目录
	config string // Specified configuration file path // 指定要使用的配置文件路径
}

var rootEnv = new(rootFlags)

var rootCmd = &cobra.Command{
	Use:           "omni-blogger",
	Short:         "Omni Blogger, a local-first Markdown blog editor with a Git-backed content API",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if len(rootEnv.dir) > 0 {
			if err := os.Chdir(rootEnv.dir); err != nil {
				return fmt.Errorf("failed to change the current working directory: %w", err)
			}
			bootstrapLogger.Debug("working directory changed", zap.String("dir", rootEnv.dir))
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.HelpTemplate()
		cmd.Help()
	},
}

func init() {
	fs := rootCmd.PersistentFlags()
	fs.StringVarP(&rootEnv.dir, "dir", "d", "", "run dir")
	fs.StringVarP(&rootEnv.config, "config", "c", "", "config file")
}

func Execute(c string) {
	configDefault = c
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
