package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/run-llama/autorfp/apimodels"
)

// runStep executes one stage function under the per-step time budget and
// records the outcome as a StepResult. A failure (stage error or timeout) is
// returned to the caller; retry and fallback policy live in the orchestrator.
//
// On timeout the stage goroutine is abandoned, not aborted: an in-flight
// gateway request may still complete, and its result is discarded.
func runStep[T any](ctx context.Context, timeout time.Duration, stageType, title, description string, fn func(context.Context) (T, error)) (apimodels.StepResult, T, error) {
	step := apimodels.StepResult{
		ID:          uuid.NewString(),
		Type:        stageType,
		Title:       title,
		Description: description,
		Status:      apimodels.StepRunning,
		StartTime:   time.Now(),
	}
	slog.Info("step started", "step", stageType, "id", step.ID)

	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		out T
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		out, err := fn(stepCtx)
		done <- outcome{out: out, err: err}
	}()

	var zero T
	select {
	case res := <-done:
		step.EndTime = time.Now()
		step.Duration = step.EndTime.Sub(step.StartTime).Milliseconds()
		if res.err != nil {
			step.Status = apimodels.StepFailed
			step.Error = res.err.Error()
			slog.Error("step failed", "step", stageType, "id", step.ID, "error", res.err)
			return step, zero, res.err
		}
		step.Status = apimodels.StepCompleted
		step.Output = res.out
		slog.Info("step completed", "step", stageType, "id", step.ID, "duration_ms", step.Duration)
		return step, res.out, nil

	case <-stepCtx.Done():
		step.EndTime = time.Now()
		step.Duration = step.EndTime.Sub(step.StartTime).Milliseconds()
		step.Status = apimodels.StepFailed

		var err error
		if parentErr := ctx.Err(); parentErr != nil {
			err = fmt.Errorf("step %s cancelled: %w", stageType, parentErr)
		} else {
			err = fmt.Errorf("step %s timed out after %s", stageType, timeout)
		}
		step.Error = err.Error()
		slog.Error("step failed", "step", stageType, "id", step.ID, "error", err)
		return step, zero, err
	}
}
