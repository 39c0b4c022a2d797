package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/haierkeys/omni-blogger/internal/setup"
	"github.com/haierkeys/omni-blogger/pkg/progress"
	"github.com/haierkeys/omni-blogger/pkg/retry"

	"github.com/spf13/cobra"
)

func init() {
	setupCmd := &cobra.Command{
		Use:   "setup",
		Short: "Prepare the blog workspace, content API and media storage",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run every setup step from the start",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := newClientApp()
			if err != nil {
				return err
			}
			defer cleanup()

			r := a.NewSetupRunner(setup.OnStepChange(stepPrinter(cmd.OutOrStdout())))
			err = r.Run(cmd.Context())
			printSteps(cmd.OutOrStdout(), r.Status())
			return err
		},
	}

	resumeCmd := &cobra.Command{
		Use:   "resume",
		Short: "Continue setup from the saved checkpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := newClientApp()
			if err != nil {
				return err
			}
			defer cleanup()

			r := a.NewSetupRunner(setup.OnStepChange(stepPrinter(cmd.OutOrStdout())))
			err = r.Resume(cmd.Context())
			if errors.Is(err, progress.ErrNoProgress) {
				fmt.Fprintln(cmd.OutOrStdout(), "no saved progress, use: setup run")
				return nil
			}
			printSteps(cmd.OutOrStdout(), r.Status())
			return err
		},
	}

	recoverCmd := &cobra.Command{
		Use:   "recover",
		Short: "Retry every failed step",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := newClientApp()
			if err != nil {
				return err
			}
			defer cleanup()

			r := a.NewSetupRunner(setup.OnStepChange(stepPrinter(cmd.OutOrStdout())))
			report, err := r.RecoverFailed(cmd.Context())
			if report != nil {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "recovered: %v\n", report.Succeeded)
				if !report.Complete() {
					fmt.Fprintf(out, "still failed: %v\n", report.Failed)
				}
				if len(report.GaveUp) > 0 {
					fmt.Fprintf(out, "gave up: %v (run `setup run` to start over)\n", report.GaveUp)
				}
			}
			printSteps(cmd.OutOrStdout(), r.Status())
			return err
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the saved setup progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := newClientApp()
			if err != nil {
				return err
			}
			defer cleanup()

			st, err := a.Progress.Load(cmd.Context())
			if errors.Is(err, progress.ErrNoProgress) {
				fmt.Fprintln(cmd.OutOrStdout(), "no saved progress")
				return nil
			}
			if err != nil {
				return err
			}
			printSteps(cmd.OutOrStdout(), statusFromState(st))
			return nil
		},
	}

	setupCmd.AddCommand(runCmd, resumeCmd, recoverCmd, statusCmd)
	rootCmd.AddCommand(setupCmd)
}

// stepPrinter 步骤状态变化时逐行输出
func stepPrinter(out io.Writer) func(setup.StepStatus) {
	return func(s setup.StepStatus) {
		switch s.State {
		case retry.StateInProgress:
			fmt.Fprintf(out, "... %s\n", s.ID.Title())
		case retry.StateCompleted:
			fmt.Fprintf(out, "ok  %s\n", s.ID.Title())
		case retry.StateFailed:
			fmt.Fprintf(out, "err %s: %v\n", s.ID.Title(), s.Err)
		}
	}
}

func printSteps(out io.Writer, steps []setup.StepStatus) {
	tw := newTable(out)
	fmt.Fprintln(tw, "STEP\tSTATE\tATTEMPTS\tFAILED RUNS")
	for _, s := range steps {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", s.ID.Title(), s.State, s.Attempts, s.Failures)
	}
	_ = tw.Flush()
}

// statusFromState 由保存的进度还原各步骤状态
func statusFromState(st *progress.State) []setup.StepStatus {
	states := make(map[string]retry.StepState, len(st.CompletedSteps)+len(st.FailedSteps))
	for _, id := range st.CompletedSteps {
		states[id] = retry.StateCompleted
	}
	for _, id := range st.FailedSteps {
		states[id] = retry.StateFailed
	}
	out := make([]setup.StepStatus, 0, len(setup.Steps))
	for _, id := range setup.Steps {
		state, ok := states[id.String()]
		if !ok {
			state = retry.StatePending
		}
		out = append(out, setup.StepStatus{ID: id, State: state, Failures: st.Failures[id.String()]})
	}
	return out
}
