package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetryFirstAttemptSucceeds(t *testing.T) {
	calls := 0
	v, ok := withRetry(func() (string, error) {
		calls++
		return "hit", nil
	}, 3, time.Millisecond)

	require.True(t, ok)
	assert.Equal(t, "hit", v)
	assert.Equal(t, 1, calls)
}

func TestWithRetryRecoversAfterFailures(t *testing.T) {
	calls := 0
	v, ok := withRetry(func() (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("connection refused")
		}
		return 42, nil
	}, 3, time.Millisecond)

	require.True(t, ok)
	assert.Equal(t, 42, v)
	assert.Equal(t, 3, calls)
}

func TestWithRetryExhaustionReturnsZeroValue(t *testing.T) {
	calls := 0
	v, ok := withRetry(func() (string, error) {
		calls++
		return "partial", errors.New("down")
	}, 3, time.Millisecond)

	assert.False(t, ok)
	assert.Equal(t, "", v)
	assert.Equal(t, 3, calls)
}

func TestWithRetryDelayIncreasesLinearly(t *testing.T) {
	delay := 10 * time.Millisecond
	start := time.Now()
	_, ok := withRetry(func() (struct{}, error) {
		return struct{}{}, errors.New("down")
	}, 3, delay)
	elapsed := time.Since(start)

	assert.False(t, ok)
	// Two sleeps between three attempts: 1x + 2x the base delay.
	assert.GreaterOrEqual(t, elapsed, 3*delay)
}
