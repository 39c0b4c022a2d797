package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/haierkeys/omni-blogger/pkg/progress"

	"github.com/spf13/cobra"
)

func init() {
	resumeCmd := &cobra.Command{
		Use:   "resume",
		Short: "Export, import or clear the saved setup progress",
	}

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Print a resume token and share link for the saved progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := newClientApp()
			if err != nil {
				return err
			}
			defer cleanup()

			token, err := a.Progress.Export(cmd.Context())
			if err != nil {
				if errors.Is(err, progress.ErrNoProgress) {
					fmt.Fprintln(cmd.OutOrStdout(), "no saved progress")
					return nil
				}
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "token: %s\n", token)
			if base := a.Config().Resume.ShareBaseURL; base != "" {
				link, err := progress.ShareLink(base, token)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "link:  %s\n", link)
			}
			return nil
		},
	}

	importCmd := &cobra.Command{
		Use:   "import <token|link>",
		Short: "Replace the saved progress with an exported token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := progress.TokenFromLink(args[0])
			if err != nil {
				return err
			}
			a, cleanup, err := newClientApp()
			if err != nil {
				return err
			}
			defer cleanup()

			st, err := a.Progress.Import(cmd.Context(), token)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "progress imported")
			printState(cmd.OutOrStdout(), st)
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Discard the saved progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := newClientApp()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := a.Progress.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "progress cleared")
			return nil
		},
	}

	resumeCmd.AddCommand(exportCmd, importCmd, clearCmd)
	rootCmd.AddCommand(resumeCmd)
}

// printState 输出进度摘要
func printState(out io.Writer, st *progress.State) {
	fmt.Fprintf(out, "  current step: %d\n", st.CurrentStep)
	fmt.Fprintf(out, "  completed:    %v\n", st.CompletedSteps)
	if len(st.FailedSteps) > 0 {
		fmt.Fprintf(out, "  failed:       %v\n", st.FailedSteps)
	}
}
