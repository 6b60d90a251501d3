package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestMetricsWritePrometheus(t *testing.T) {
	m := NewMetrics()
	m.ObserveAPI("GET", "/api/subjects", 200, 30*time.Millisecond)
	m.ObserveAPI("GET", "/api/subjects", 200, 2*time.Second)
	m.ObserveJob("succeeded", 12*time.Second, "try,quiz")
	m.ObserveJob("failed", time.Second, "")

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`studypath_api_requests_total{method="GET",route="/api/subjects",status="200"} 2`,
		`studypath_api_request_duration_seconds_bucket{method="GET",route="/api/subjects",le="0.05"} 1`,
		`studypath_api_request_duration_seconds_bucket{method="GET",route="/api/subjects",le="+Inf"} 2`,
		`studypath_api_request_duration_seconds_count{method="GET",route="/api/subjects"} 2`,
		`studypath_generation_jobs_total{status="failed"} 1`,
		`studypath_generation_jobs_total{status="succeeded"} 1`,
		`studypath_generation_mode_fallbacks_total{mode="quiz"} 1`,
		`studypath_generation_mode_fallbacks_total{mode="try"} 1`,
		"# TYPE studypath_api_inflight_requests gauge",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/x", 200, time.Millisecond)
	m.ObserveJob("failed", time.Second, "explain")
	m.APIInflightInc()
	m.APIInflightDec()
	if err := m.WritePrometheus(&bytes.Buffer{}); err != nil {
		t.Fatalf("nil WritePrometheus: %v", err)
	}
}

func TestLabelEscaping(t *testing.T) {
	got := labelString([]string{"route", "status"}, []string{`a"b\c`})
	want := `{route="a\"b\\c",status="unknown"}`
	if got != want {
		t.Fatalf("labelString = %s, want %s", got, want)
	}
}
