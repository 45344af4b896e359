package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordersBeforeInitAreNoops(t *testing.T) {
	if nodeMetrics != nil {
		t.Skip("metrics already initialized in this process")
	}
	assert.NotPanics(t, func() {
		SetBlockHeight(1)
		RecordAddBlock(time.Millisecond, 10)
		RecordChainValidation(time.Millisecond, 0)
		IncreasePanicCount()
	})
}

func TestMetricsRecordAndExpose(t *testing.T) {
	InitMetrics()
	InitMetrics()

	SetBlockHeight(7)
	assert.Equal(t, 7.0, testutil.ToFloat64(nodeMetrics.blockHeight))

	RecordChainValidation(10*time.Millisecond, 2)
	assert.Equal(t, 2.0, testutil.ToFloat64(nodeMetrics.invalidBlocksFound))

	before := testutil.ToFloat64(nodeMetrics.validationRuns.WithLabelValues("block", "invalid"))
	RecordBlockValidation(false)
	after := testutil.ToFloat64(nodeMetrics.validationRuns.WithLabelValues("block", "invalid"))
	assert.Equal(t, before+1, after)

	mux := http.NewServeMux()
	RegisterMetrics(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "simplechain_block_height 7")
}
