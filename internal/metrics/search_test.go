package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterSearchMetrics_Idempotent(t *testing.T) {
	RegisterSearchMetrics()
	RegisterSearchMetrics()

	IndexErrorsTotal.WithLabelValues("redis").Inc()
	if got := testutil.ToFloat64(IndexErrorsTotal.WithLabelValues("redis")); got < 1 {
		t.Errorf("index_errors_total = %f", got)
	}
}

func TestSearchStageDuration_Observes(t *testing.T) {
	SearchStageDuration.WithLabelValues(StageCompile).Observe(0.001)
	if n := testutil.CollectAndCount(SearchStageDuration); n == 0 {
		t.Error("expected stage duration series")
	}
}
