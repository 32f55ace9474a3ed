package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/run-llama/autorfp/apimodels"
)

func TestRunStepSuccess(t *testing.T) {
	step, out, err := runStep(context.Background(), time.Second, StageAnalysis,
		"Question Analysis", "test step",
		func(ctx context.Context) (string, error) {
			return "payload", nil
		})

	require.NoError(t, err)
	assert.Equal(t, "payload", out)
	assert.Equal(t, apimodels.StepCompleted, step.Status)
	assert.Equal(t, "payload", step.Output)
	assert.Empty(t, step.Error)
	assert.NotEmpty(t, step.ID)
	assert.False(t, step.EndTime.Before(step.StartTime))
	assert.GreaterOrEqual(t, step.Duration, int64(0))
}

func TestRunStepProducerError(t *testing.T) {
	boom := errors.New("gateway exploded")
	step, out, err := runStep(context.Background(), time.Second, StageSynthesis,
		"Response Synthesis", "test step",
		func(ctx context.Context) (int, error) {
			return 0, boom
		})

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, out)
	assert.Equal(t, apimodels.StepFailed, step.Status)
	assert.Equal(t, "gateway exploded", step.Error)
	assert.Nil(t, step.Output)
}

func TestRunStepTimeout(t *testing.T) {
	step, _, err := runStep(context.Background(), 20*time.Millisecond, StageSearch,
		"Document Search", "test step",
		func(ctx context.Context) (string, error) {
			select {
			case <-time.After(5 * time.Second):
				return "too late", nil
			case <-ctx.Done():
				return "", ctx.Err()
			}
		})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
	assert.Equal(t, apimodels.StepFailed, step.Status)
	assert.Contains(t, step.Error, "timed out")
}

func TestRunStepParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	step, _, err := runStep(ctx, time.Second, StageValidation,
		"Response Validation", "test step",
		func(ctx context.Context) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		})

	require.Error(t, err)
	assert.Equal(t, apimodels.StepFailed, step.Status)
}
