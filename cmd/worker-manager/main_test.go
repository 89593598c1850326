package main

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestRetryWithBackoff(t *testing.T) {
	log := zaptest.NewLogger(t)

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := retryWithBackoff(func() error {
			calls++
			if calls < 3 {
				return fmt.Errorf("dial tcp: connection refused")
			}
			return nil
		}, 5, time.Millisecond, log, "redis")

		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up", func(t *testing.T) {
		calls := 0
		err := retryWithBackoff(func() error {
			calls++
			return fmt.Errorf("no route to host")
		}, 3, time.Millisecond, log, "postgres")

		assert.Equal(t, 3, calls)
		assert.EqualError(t, err, "postgres failed after 3 attempts: no route to host")
	})
}
