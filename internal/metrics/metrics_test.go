package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordHTTPRequest(t *testing.T) {
	HTTPRequestsTotal.Reset()
	HTTPRequestDuration.Reset()

	RecordHTTPRequest("POST", "/align", "200", 0.123)

	assert.Equal(t, 1.0, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/align", "200")))
	assert.Equal(t, 1, testutil.CollectAndCount(HTTPRequestDuration))
}

func TestRecordAlignment(t *testing.T) {
	AlignmentsTotal.Reset()
	AlignmentDuration.Reset()

	RecordAlignment("precise", "eng", 1.2)
	RecordAlignment("fallback", "eng", 0.01)
	RecordAlignment("fallback", "vie", 0.02)

	assert.Equal(t, 1.0, testutil.ToFloat64(AlignmentsTotal.WithLabelValues("precise", "eng")))
	assert.Equal(t, 1.0, testutil.ToFloat64(AlignmentsTotal.WithLabelValues("fallback", "vie")))
	assert.Equal(t, 2, testutil.CollectAndCount(AlignmentDuration))
}

func TestRecordCacheLookup(t *testing.T) {
	AlignmentCacheTotal.Reset()

	RecordCacheLookup(true)
	RecordCacheLookup(false)
	RecordCacheLookup(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(AlignmentCacheTotal.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(AlignmentCacheTotal.WithLabelValues("miss")))
}

func TestRecordRender(t *testing.T) {
	RendersTotal.Reset()
	RenderDuration.Reset()

	RecordRender("tiktok_clean", 4.5, nil)
	RecordRender("tiktok_clean", 0, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(RendersTotal.WithLabelValues("tiktok_clean", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(RendersTotal.WithLabelValues("tiktok_clean", "failed")))
	assert.Equal(t, 1, testutil.CollectAndCount(RenderDuration))
}

func TestJobLifecycleMetrics(t *testing.T) {
	JobsCompletedTotal.Reset()
	JobsInProgress.Set(0)
	before := testutil.ToFloat64(JobsCreatedTotal)

	RecordJobCreated()
	RecordJobStarted()
	assert.Equal(t, 1.0, testutil.ToFloat64(JobsInProgress))

	RecordJobCompleted("completed")
	assert.Equal(t, 0.0, testutil.ToFloat64(JobsInProgress))
	assert.Equal(t, before+1, testutil.ToFloat64(JobsCreatedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(JobsCompletedTotal.WithLabelValues("completed")))
}

func TestRecordQueueDepth(t *testing.T) {
	QueueDepth.Reset()

	RecordQueueDepth("render_jobs", 7)
	RecordQueueDepth("render_jobs", 3)
	RecordQueueDepth("render_jobs_dlq", 1)

	assert.Equal(t, 3.0, testutil.ToFloat64(QueueDepth.WithLabelValues("render_jobs")))
	assert.Equal(t, 1.0, testutil.ToFloat64(QueueDepth.WithLabelValues("render_jobs_dlq")))
}

func TestRecordError(t *testing.T) {
	ErrorsTotal.Reset()

	RecordError("align", "bad_input")
	assert.Equal(t, 1.0, testutil.ToFloat64(ErrorsTotal.WithLabelValues("align", "bad_input")))
}

func TestHandler(t *testing.T) {
	RecordCacheLookup(true)

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
