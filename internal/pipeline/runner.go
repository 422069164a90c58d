package pipeline

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"time"

	"github.com/elyseproject/elyse/internal/errors"
	"github.com/elyseproject/elyse/internal/logfields"
	"github.com/elyseproject/elyse/internal/metrics"
)

// StageOutcome is the normalized result of stage execution.
type StageOutcome struct {
	Stage    StageName
	Error    *StageError
	Result   StageResult
	Code     string
	Severity IssueSeverity
	Abort    bool
}

// classifyStageResult converts a raw error from a stage into a StageOutcome.
func classifyStageResult(stage StageName, err error) StageOutcome {
	if err == nil {
		return StageOutcome{Stage: stage, Result: StageResultSuccess}
	}

	var se *StageError
	if !stdErrors.As(err, &se) {
		// Not a StageError, treat as fatal.
		se = NewFatalStageError(stage, err)
	}

	out := StageOutcome{
		Stage:    stage,
		Error:    se,
		Result:   resultFromStageErrorKind(se.Kind),
		Code:     string(errors.KindOf(se.Err)),
		Severity: SeverityError,
		Abort:    se.Kind == StageErrorFatal || se.Kind == StageErrorCanceled,
	}
	if se.Kind == StageErrorCanceled {
		out.Code = IssueCanceled
	}
	if se.Kind == StageErrorWarning {
		out.Severity = SeverityWarning
	}
	return out
}

// resultFromStageErrorKind maps a StageErrorKind to a StageResult.
func resultFromStageErrorKind(k StageErrorKind) StageResult {
	switch k {
	case StageErrorWarning:
		return StageResultWarning
	case StageErrorCanceled:
		return StageResultCanceled
	default:
		return StageResultFatal
	}
}

// RunStages executes stages in order, recording timing and stopping on the
// first fatal error or cancellation. The report is finalized (end time,
// derived outcome, observer completion callback) on every path, so callers
// can persist or publish it regardless of how the pass ended.
func RunStages(ctx context.Context, rep *BuildReport, stages []StageDef, obs BuildObserver, rec metrics.Recorder) error {
	if obs == nil {
		obs = NoopObserver{}
	}

	for _, st := range stages {
		select {
		case <-ctx.Done():
			se := NewCanceledStageError(st.Name, ctx.Err())
			rep.StageErrorKinds[st.Name] = se.Kind
			rep.AddIssue(IssueCanceled, st.Name, SeverityError, se.Error(), "", se)
			rep.RecordStageResult(st.Name, StageResultCanceled, rec)
			obs.OnStageComplete(st.Name, 0, StageResultCanceled)
			finalize(rep, obs)
			return se
		default:
		}

		obs.OnStageStart(st.Name)

		t0 := time.Now()
		err := st.Fn(ctx, rep)
		dur := time.Since(t0)

		rep.StageDurations[string(st.Name)] = dur

		out := classifyStageResult(st.Name, err)

		if out.Error != nil {
			rep.StageErrorKinds[st.Name] = out.Error.Kind
			rep.AddIssue(out.Code, st.Name, out.Severity, out.Error.Error(), errors.PathOf(out.Error), out.Error)
		}

		rep.RecordStageResult(st.Name, out.Result, rec)
		obs.OnStageComplete(st.Name, dur, out.Result)

		slog.Debug("stage complete",
			logfields.BuildID(rep.BuildID),
			logfields.Stage(string(st.Name)),
			logfields.Duration(dur),
			logfields.Outcome(string(out.Result)))

		if out.Abort {
			finalize(rep, obs)
			return out.Error
		}
	}

	finalize(rep, obs)
	return nil
}

func finalize(rep *BuildReport, obs BuildObserver) {
	rep.Finish()
	rep.DeriveOutcome()
	obs.OnBuildComplete(rep)
}
