package observability

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestMetricsWritePrometheus(t *testing.T) {
	m := NewMetrics()
	m.ObserveAPI("POST", "/api/campaigns/:id/participation", 201, 20*time.Millisecond)
	m.ObserveAPI("POST", "/api/campaigns/:id/participation", 201, 30*time.Millisecond)
	m.ObserveSubmit("joined")
	m.ObserveSubmit("campaign_full")
	m.AddCampaignsEnded("close_time", 3)
	m.AddCampaignsEnded("close_time", 0)
	m.ObserveSweep(nil, time.Millisecond)
	m.ObserveSweep(errors.New("boom"), time.Millisecond)

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`gb_api_requests_total{method="POST",route="/api/campaigns/:id/participation",status="201"} 2`,
		`gb_api_request_duration_seconds_count{method="POST",route="/api/campaigns/:id/participation"} 2`,
		`gb_participation_submits_total{result="campaign_full"} 1`,
		`gb_campaigns_ended_total{reason="close_time"} 3`,
		`gb_closer_sweeps_total{status="error"} 1`,
		`gb_closer_sweep_duration_seconds_bucket{le="+Inf"} 2`,
		"# TYPE gb_api_inflight_requests gauge",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in output:\n%s", want, out)
		}
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/x", 200, time.Millisecond)
	m.ObserveSubmit("joined")
	m.AddCampaignsEnded("full", 1)
	m.ObserveSweep(nil, 0)
	m.APIInflightInc()
	m.APIInflightDec()
	if err := m.WritePrometheus(&bytes.Buffer{}); err != nil {
		t.Fatalf("WritePrometheus on nil: %v", err)
	}
	if Init(false) != nil {
		t.Fatalf("expected disabled metrics to be nil")
	}
}

func TestLabelString(t *testing.T) {
	if got := labelString([]string{"a", "b"}, []string{"x\"y"}); got != `{a="x\"y",b="unknown"}` {
		t.Fatalf("labelString=%q", got)
	}
	if got := withLe("", "0.5"); got != `{le="0.5"}` {
		t.Fatalf("withLe=%q", got)
	}
}
