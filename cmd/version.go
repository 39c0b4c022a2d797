package cmd

import (
	"context"
	"fmt"

	"github.com/haierkeys/omni-blogger/internal/app"

	"github.com/spf13/cobra"
)

func init() {
	var remote bool

	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print out version info and exit. // 打印版本信息并退出。",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "v%s ( Git:%s ) BuidTime:%s\n", app.Version, app.GitTag, app.BuildTime)
			if len(args) > 0 {
				printComparison(cmd, args[0])
			}
			if !remote {
				return nil
			}

			// 对比内容 API 服务端的版本
			a, cleanup, err := newClientApp()
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, cancel := context.WithTimeout(cmd.Context(), a.Config().ClientTimeout())
			defer cancel()
			info, err := a.ContentClient.Health(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "server v%s ( Git:%s ) BuidTime:%s\n", info.Version, info.GitTag, info.BuildTime)
			printComparison(cmd, info.Version)
			return nil
		},
	}

	versionCmd.Flags().BoolVarP(&remote, "remote", "r", false, "also query the content API server version")
	rootCmd.AddCommand(versionCmd)
}

func printComparison(cmd *cobra.Command, other string) {
	out := cmd.OutOrStdout()
	switch app.CompareVersion(other) {
	case 1:
		fmt.Fprintf(out, "%s is older than v%s\n", other, app.Version)
	case -1:
		fmt.Fprintf(out, "%s is newer than v%s\n", other, app.Version)
	default:
		fmt.Fprintf(out, "%s matches v%s\n", other, app.Version)
	}
}
