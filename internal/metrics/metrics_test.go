package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/kozichsergey/SmetaAI/constants"
	"github.com/kozichsergey/SmetaAI/internal/common"
	"github.com/kozichsergey/SmetaAI/internal/core/catalog"
	"github.com/kozichsergey/SmetaAI/internal/core/cluster"
)

func TestFallbackReason(t *testing.T) {
	assert.Equal(t, "unknown", fallbackReason(nil))
	assert.Equal(t, "no_clusters", fallbackReason(fmt.Errorf("%w: %w", common.ErrOracleMalformedResponse, cluster.ErrNoClusters)))
	assert.Equal(t, "timeout", fallbackReason(context.DeadlineExceeded))
	assert.Equal(t, "rate_limited", fallbackReason(fmt.Errorf("x: %w", common.ErrOracleRateLimited)))
	assert.Equal(t, "unavailable", fallbackReason(common.ErrOracleUnavailable))
	assert.Equal(t, "malformed", fallbackReason(common.ErrOracleMalformedResponse))
	assert.Equal(t, "other", fallbackReason(errors.New("boom")))
}

func TestRecorders(t *testing.T) {
	before := testutil.ToFloat64(MatchesTotal.WithLabelValues("fallback"))
	RecordMatchStats(catalog.MatchStats{Oracle: 2, Fallback: 3})
	assert.Equal(t, before+3, testutil.ToFloat64(MatchesTotal.WithLabelValues("fallback")))

	before = testutil.ToFloat64(TasksTotal.WithLabelValues("optimize", "success"))
	RecordTask(constants.TaskOptimize, constants.TaskStatusSuccess, 2*time.Second)
	assert.Equal(t, before+1, testutil.ToFloat64(TasksTotal.WithLabelValues("optimize", "success")))

	before = testutil.ToFloat64(OracleCallsTotal.WithLabelValues("group", "ok"))
	RecordOracleCall("group", "ok", time.Second)
	assert.Equal(t, before+1, testutil.ToFloat64(OracleCallsTotal.WithLabelValues("group", "ok")))

	RecordFile(constants.TaskIngest, errors.New("bad file"))
	assert.GreaterOrEqual(t, testutil.ToFloat64(FilesTotal.WithLabelValues("ingest", "failed")), 1.0)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "smeta_task_finished_total")
}
