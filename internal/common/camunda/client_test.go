package camunda

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"card-decision-workers/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var fastRetry = RetryConfig{MaxAttempts: 4, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastRetry, "connect", logger.NewTestLogger(t), func(context.Context) error {
		calls++
		if calls < 3 {
			return status.Error(codes.Unavailable, "gateway not ready")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_StopsOnPermanentError(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastRetry, "connect", logger.NewNoOpLogger(), func(context.Context) error {
		calls++
		return status.Error(codes.PermissionDenied, "bad credentials")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Contains(t, err.Error(), "connect failed")
}

func TestRetry_GivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	cause := errors.New("connection refused")
	err := Retry(context.Background(), fastRetry, "postgres", logger.NewNoOpLogger(), func(context.Context) error {
		calls++
		return cause
	})

	require.ErrorIs(t, err, cause)
	assert.Equal(t, fastRetry.MaxAttempts, calls)
}

func TestRetry_HonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, RetryConfig{MaxAttempts: 3, BaseDelay: time.Second}, "redis", logger.NewNoOpLogger(), func(context.Context) error {
		return errors.New("dial tcp: i/o timeout")
	})

	require.ErrorIs(t, err, context.Canceled)
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{status.Error(codes.Unavailable, "x"), true},
		{status.Error(codes.DeadlineExceeded, "x"), true},
		{status.Error(codes.ResourceExhausted, "x"), true},
		{status.Error(codes.InvalidArgument, "x"), false},
		{status.Error(codes.NotFound, "x"), false},
		{context.DeadlineExceeded, true},
		{fmt.Errorf("wrapped: %w", context.Canceled), false},
		{errors.New("connection reset by peer"), true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsTransient(tt.err), tt.err.Error())
	}
}
