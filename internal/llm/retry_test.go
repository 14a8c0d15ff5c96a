package llm

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsRateLimited(t *testing.T) {
	assert.True(t, IsRateLimited(http.StatusTooManyRequests, nil))
	assert.True(t, IsRateLimited(http.StatusBadRequest, []byte(`{"error":{"code":"rate_limit_exceeded"}}`)))
	assert.False(t, IsRateLimited(http.StatusInternalServerError, []byte("oops")))
}

func TestRetryPolicy_Delay(t *testing.T) {
	p := RetryPolicy{Backoff: time.Second, MaxBackoff: 10 * time.Second}
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	h := http.Header{}
	h.Set("Retry-After", "3")
	assert.Equal(t, 3*time.Second, p.Delay(0, h, nil, now))

	h.Set("Retry-After", now.Add(7*time.Second).Format(http.TimeFormat))
	assert.Equal(t, 7*time.Second, p.Delay(0, h, nil, now))

	body := []byte(`Rate limit reached. Please try again in 1.5s. Visit ...`)
	assert.Equal(t, 1500*time.Millisecond, p.Delay(0, nil, body, now))
	assert.Equal(t, 20*time.Millisecond, p.Delay(0, nil, []byte("try again in 20ms"), now))

	assert.Equal(t, time.Second, p.Delay(0, nil, nil, now))
	assert.Equal(t, 4*time.Second, p.Delay(2, nil, nil, now))
	assert.Equal(t, 10*time.Second, p.Delay(6, nil, nil, now))
}

func TestSleep_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
	assert.NoError(t, Sleep(context.Background(), time.Millisecond))
}
