package camunda

import (
	"context"
	"fmt"
	"testing"
	"time"

	"actuator-workers/internal/common/config"
	"actuator-workers/internal/common/errors"

	"github.com/stretchr/testify/assert"
)

func testClient(maxRetries int) *Client {
	return &Client{config: &ClientConfig{
		ConnectionTimeout: time.Second,
		RetryConfig: &RetryConfig{
			MaxRetries: maxRetries,
			BaseDelay:  time.Millisecond,
			MaxDelay:   2 * time.Millisecond,
		},
	}}
}

func TestExecuteWithRetry_RecoversFromTransientError(t *testing.T) {
	calls := 0
	err := testClient(3).ExecuteWithRetry(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return fmt.Errorf("rpc error: code = Unavailable desc = connection refused")
		}
		return nil
	}, "topology")

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestExecuteWithRetry_GivesUpAfterBudget(t *testing.T) {
	calls := 0
	err := testClient(2).ExecuteWithRetry(context.Background(), func(context.Context) error {
		calls++
		return fmt.Errorf("context deadline exceeded")
	}, "topology")

	assert.Equal(t, 3, calls)
	assert.True(t, errors.HasCode(err, errors.ErrCodeBrokerUnavailable))
	assert.Contains(t, err.(*errors.StandardError).Details, "after 3 attempts")
}

func TestExecuteWithRetry_PermanentErrorNotRetried(t *testing.T) {
	calls := 0
	err := testClient(3).ExecuteWithRetry(context.Background(), func(context.Context) error {
		calls++
		return fmt.Errorf("permission denied")
	}, "complete")

	assert.Equal(t, 1, calls)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInternal))
}

func TestExecuteWithRetry_ContextCancelled(t *testing.T) {
	c := testClient(5)
	c.config.RetryConfig.BaseDelay = time.Hour
	c.config.RetryConfig.MaxDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.ExecuteWithRetry(ctx, func(context.Context) error {
		return fmt.Errorf("broken pipe")
	}, "topology")

	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsRetryableZeebeError(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"connection refused", true},
		{"rpc error: code = Unavailable", true},
		{"Deadline Exceeded", true},
		{"NOT_FOUND: job 42", false},
		{"invalid argument", false},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableZeebeError(fmt.Errorf("%s", tt.msg)))
		})
	}
}

func TestConfigFromApp(t *testing.T) {
	cfg := ConfigFromApp(config.CamundaConfig{BrokerAddress: "zeebe:26500", RequestTimeout: 1500})
	assert.Equal(t, "zeebe:26500", cfg.GatewayAddress)
	assert.Equal(t, 1500*time.Millisecond, cfg.RequestTimeout)
	assert.Same(t, DefaultRetryConfig, cfg.RetryConfig)

	cfg = ConfigFromApp(config.CamundaConfig{BrokerAddress: "localhost:26500"})
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
}
