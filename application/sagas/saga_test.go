package sagas

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSaga_Execute_ChainsStepData(t *testing.T) {
	ctx := context.Background()
	saga := NewSagaBuilder("chain", zap.NewNop()).
		WithStep("first", func(ctx context.Context, data interface{}) (interface{}, error) {
			return data.(string) + "-a", nil
		}).
		WithStep("second", func(ctx context.Context, data interface{}) (interface{}, error) {
			return data.(string) + "-b", nil
		}).
		Build()

	result, err := saga.Execute(ctx, "start")

	require.NoError(t, err)
	assert.Equal(t, "start-a-b", result)
	assert.Equal(t, SagaStateCompleted, saga.GetState())
}

func TestSaga_Execute_RetriesTransientFailures(t *testing.T) {
	ctx := context.Background()
	attempts := 0
	saga := NewSagaBuilder("retry", zap.NewNop()).
		WithRetryableStep("flaky", func(ctx context.Context, data interface{}) (interface{}, error) {
			attempts++
			if attempts < 3 {
				return nil, errors.New("transient")
			}
			return data, nil
		}, 3, time.Millisecond).
		Build()

	_, err := saga.Execute(ctx, nil)

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestSaga_Execute_ExhaustedRetriesFail(t *testing.T) {
	ctx := context.Background()
	attempts := 0
	saga := NewSagaBuilder("retry", zap.NewNop()).
		WithRetryableStep("flaky", func(ctx context.Context, data interface{}) (interface{}, error) {
			attempts++
			return nil, errors.New("still broken")
		}, 2, time.Millisecond).
		Build()

	_, err := saga.Execute(ctx, nil)

	assert.ErrorContains(t, err, "failed after 2 attempts")
	assert.Equal(t, 2, attempts)
	assert.Equal(t, SagaStateCompensated, saga.GetState())
}

func TestSaga_Execute_CompensatesInReverseOrder(t *testing.T) {
	ctx := context.Background()
	var compensated []string

	compensator := func(name string) func(context.Context, interface{}) error {
		return func(ctx context.Context, data interface{}) error {
			compensated = append(compensated, name)
			return nil
		}
	}
	passthrough := func(ctx context.Context, data interface{}) (interface{}, error) {
		return data, nil
	}

	saga := NewSagaBuilder("compensate", zap.NewNop()).
		WithCompensableStep("first", passthrough, compensator("first")).
		WithCompensableStep("second", passthrough, compensator("second")).
		WithStep("boom", func(ctx context.Context, data interface{}) (interface{}, error) {
			return nil, errors.New("exploded")
		}).
		Build()

	_, err := saga.Execute(ctx, nil)

	assert.ErrorContains(t, err, "failed at step boom")
	assert.Equal(t, []string{"second", "first"}, compensated)
	assert.Equal(t, SagaStateCompensated, saga.GetState())
}

func TestSaga_Execute_FailedCompensationDoesNotStopOthers(t *testing.T) {
	ctx := context.Background()
	var compensated []string

	passthrough := func(ctx context.Context, data interface{}) (interface{}, error) {
		return data, nil
	}

	saga := NewSagaBuilder("compensate", zap.NewNop()).
		WithCompensableStep("first", passthrough, func(ctx context.Context, data interface{}) error {
			compensated = append(compensated, "first")
			return nil
		}).
		WithCompensableStep("second", passthrough, func(ctx context.Context, data interface{}) error {
			return errors.New("compensation broken")
		}).
		WithStep("boom", func(ctx context.Context, data interface{}) (interface{}, error) {
			return nil, errors.New("exploded")
		}).
		Build()

	_, err := saga.Execute(ctx, nil)

	assert.Error(t, err)
	assert.Equal(t, []string{"first"}, compensated)
}

func TestSaga_Execute_RetryWaitHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	saga := NewSagaBuilder("cancel", zap.NewNop()).
		WithRetryableStep("flaky", func(ctx context.Context, data interface{}) (interface{}, error) {
			cancel()
			return nil, errors.New("transient")
		}, 3, time.Minute).
		Build()

	_, err := saga.Execute(ctx, nil)

	assert.ErrorIs(t, err, context.Canceled)
}
