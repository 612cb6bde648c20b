// Package camunda connects to the Zeebe gateway and runs job workers.
package camunda

import (
	"context"
	"errors"
	"fmt"
	"time"

	"card-decision-workers/internal/common/config"
	"card-decision-workers/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

var DefaultRetryConfig = RetryConfig{
	MaxAttempts: 5,
	BaseDelay:   2 * time.Second,
	MaxDelay:    30 * time.Second,
}

// Client is a connected Zeebe client.
type Client struct {
	zbc.Client
	requestTimeout time.Duration
}

// NewClient opens a gateway connection and confirms it with a topology request.
func NewClient(ctx context.Context, cfg config.CamundaConfig) (*Client, error) {
	zc, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         cfg.BrokerAddress,
		UsePlaintextConnection: cfg.UsePlaintext,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Zeebe client: %w", err)
	}

	c := &Client{Client: zc, requestTimeout: config.GetDuration(cfg.RequestTimeout)}
	if err := c.HealthCheck(ctx); err != nil {
		_ = zc.Close()
		return nil, fmt.Errorf("failed to connect to Zeebe at %s: %w", cfg.BrokerAddress, err)
	}
	return c, nil
}

func (c *Client) HealthCheck(ctx context.Context) error {
	if c.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}
	if _, err := c.NewTopologyCommand().Send(ctx); err != nil {
		return fmt.Errorf("zeebe topology request failed: %w", err)
	}
	return nil
}

// Retry runs op until it succeeds, a non-transient error is returned, the
// attempts run out or ctx ends. The delay doubles after each failure.
func Retry(ctx context.Context, rc RetryConfig, name string, log logger.Logger, op func(context.Context) error) error {
	if rc.MaxAttempts <= 0 {
		rc.MaxAttempts = 1
	}
	delay := rc.BaseDelay

	var err error
	for attempt := 1; attempt <= rc.MaxAttempts; attempt++ {
		if err = op(ctx); err == nil {
			return nil
		}
		if !IsTransient(err) || attempt == rc.MaxAttempts {
			break
		}

		log.Warn(name+" failed, retrying", map[string]interface{}{
			"error":       err.Error(),
			"attempt":     attempt,
			"maxAttempts": rc.MaxAttempts,
			"nextRetryIn": delay.String(),
		})
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("%s cancelled after %d attempts: %w", name, attempt, ctx.Err())
		}
		if delay *= 2; rc.MaxDelay > 0 && delay > rc.MaxDelay {
			delay = rc.MaxDelay
		}
	}
	return fmt.Errorf("%s failed: %w", name, err)
}

// IsTransient reports whether an error is worth retrying. gRPC statuses are
// judged by code; other errors are assumed to be connection problems.
func IsTransient(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	st, ok := status.FromError(err)
	if !ok {
		return true
	}
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
		return true
	}
	return false
}
