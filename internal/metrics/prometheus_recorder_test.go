package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.ObserveStageDuration("oss/python", 150*time.Millisecond)
	pr.ObserveBuildDuration(500 * time.Millisecond)
	pr.IncFileResult("oss/python", ResultBuilt)
	pr.IncFileResult("oss/python", ResultBuilt)
	pr.IncFileResult("oss/javascript", ResultSkipped)
	pr.IncBuildOutcome(BuildOutcomeSuccess)
	pr.AddSnippetsExported("python", 3)
	pr.IncUnresolved(UnresolvedReference)
	pr.IncRetry("reference_download")

	assert.InDelta(t, 2, testutil.ToFloat64(pr.fileResults.WithLabelValues("oss/python", "built")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(pr.snippets.WithLabelValues("python")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(pr.unresolved.WithLabelValues("reference")), 0)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, mfs, 7)
}

func TestHTTPHandler(t *testing.T) {
	reg := prom.NewRegistry()
	NewPrometheusRecorder(reg).IncBuildOutcome(BuildOutcomeFailed)

	srv := httptest.NewServer(HTTPHandler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `docpipe_build_outcomes_total{outcome="failed"} 1`)
}

func TestOrNoop(t *testing.T) {
	assert.Equal(t, NoopRecorder{}, OrNoop(nil))
	pr := NewPrometheusRecorder(nil)
	assert.Same(t, pr, OrNoop(pr))
}
