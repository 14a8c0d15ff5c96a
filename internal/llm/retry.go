package llm

import (
	"context"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// RetryPolicy bounds retries of rate-limited calls. MaxRetries counts retries after the
// first attempt; Backoff is the base of the exponential delay used when the server gives no hint.
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
	MaxBackoff time.Duration
}

var reTryAgain = regexp.MustCompile(`(?i)try again in ([\d.]+)\s*(ms|s)`)

// IsRateLimited reports a 429 or an error body naming rate_limit_exceeded.
func IsRateLimited(status int, body []byte) bool {
	return status == http.StatusTooManyRequests || strings.Contains(string(body), "rate_limit_exceeded")
}

// Delay picks the wait before retry number attempt (0-based): Retry-After first, then the
// "try again in Xs" hint from the body, then exponential backoff.
func (p RetryPolicy) Delay(attempt int, header http.Header, body []byte, now time.Time) time.Duration {
	if header != nil {
		if d, ok := retryAfterDuration(header.Get("Retry-After"), now); ok {
			return d
		}
	}
	if d, ok := tryAgainHint(string(body)); ok {
		return d
	}
	return p.backoff(attempt)
}

func (p RetryPolicy) backoff(attempt int) time.Duration {
	base := p.Backoff
	if base <= 0 {
		base = time.Second
	}
	limit := p.MaxBackoff
	if limit <= 0 {
		limit = time.Minute
	}
	d := base << attempt
	if d <= 0 || d > limit {
		d = limit
	}
	return d
}

// retryAfterDuration parses the Retry-After header which may be seconds or HTTP-date.
func retryAfterDuration(h string, now time.Time) (time.Duration, bool) {
	h = strings.TrimSpace(h)
	if h == "" {
		return 0, false
	}
	if secs, err := strconv.ParseFloat(h, 64); err == nil {
		if secs > 0 {
			return time.Duration(secs * float64(time.Second)), true
		}
		return 0, false
	}
	if t, err := time.Parse(http.TimeFormat, h); err == nil {
		if t.After(now) {
			return t.Sub(now), true
		}
	}
	return 0, false
}

func tryAgainHint(body string) (time.Duration, bool) {
	m := reTryAgain.FindStringSubmatch(body)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	unit := time.Second
	if strings.EqualFold(m[2], "ms") {
		unit = time.Millisecond
	}
	return time.Duration(v * float64(unit)), true
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
