package retry

import (
	"context"
	"fmt"
	"strings"

	"github.com/haierkeys/omni-blogger/pkg/logger"

	pkgerrors "github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Report is the outcome of a recovery sweep.
// Report 恢复结果：成功与失败的步骤
type Report struct {
	Succeeded []string
	Failed    []string
	// GaveUp 已达失败上限而未重新执行的步骤，同时列在 Failed 中
	GaveUp    []string
	Errors    map[string]error
}

// Complete reports whether every step in the sweep succeeded.
func (r *Report) Complete() bool {
	return len(r.Failed) == 0
}

// Err returns a *PartialError when any step is still failed, nil otherwise.
func (r *Report) Err() error {
	if r.Complete() {
		return nil
	}
	var combined error
	for _, id := range r.Failed {
		combined = multierr.Append(combined, fmt.Errorf("%s: %w", id, r.Errors[id]))
	}
	return &PartialError{Succeeded: r.Succeeded, Failed: r.Failed, Cause: combined}
}

// PartialError means some steps of a multi-step operation remain failed.
// PartialError 部分步骤仍然失败
type PartialError struct {
	Succeeded []string
	Failed    []string
	Cause     error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("partially completed: succeeded [%s], failed [%s]: %v",
		strings.Join(e.Succeeded, ", "), strings.Join(e.Failed, ", "), e.Cause)
}

func (e *PartialError) Unwrap() []error {
	return multierr.Errors(e.Cause)
}

// Recover re-runs each of the given steps that is currently failed. A step
// whose operation cannot be found, or that fails again, does not stop the
// sweep; the report lists exactly which steps succeeded and which did not.
// Steps for which ShouldGiveUp holds are not run again and are reported
// failed with ErrGaveUp.
// Recover 逐个重新执行失败步骤，单个失败不影响其他步骤
func (o *Orchestrator) Recover(ctx context.Context, ids []string, lookup func(id string) (Func, bool)) *Report {
	report := &Report{Errors: make(map[string]error)}

	for _, id := range ids {
		if !o.HasFailed(id) {
			continue
		}

		if o.ShouldGiveUp(id) {
			report.Failed = append(report.Failed, id)
			report.GaveUp = append(report.GaveUp, id)
			report.Errors[id] = pkgerrors.Wrapf(ErrGaveUp, "%d failed runs", o.Failures(id))
			continue
		}

		fn, ok := lookup(id)
		if !ok {
			report.Failed = append(report.Failed, id)
			report.Errors[id] = fmt.Errorf("no operation registered for step %q", id)
			continue
		}

		if err := o.Do(ctx, id, fn); err != nil {
			report.Failed = append(report.Failed, id)
			report.Errors[id] = err
			continue
		}
		report.Succeeded = append(report.Succeeded, id)
	}

	o.logger.Info("recovery sweep finished",
		zap.Strings("succeeded", report.Succeeded),
		zap.Strings("failed", report.Failed),
		zap.Strings("gaveUp", report.GaveUp),
		zap.String(logger.FieldAction, "recover"),
	)

	return report
}
