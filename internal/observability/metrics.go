package observability

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	types "github.com/yungbote/studypath-backend/internal/domain"
	"github.com/yungbote/studypath-backend/internal/platform/logger"
)

// Metrics holds the process counters exposed in Prometheus text format.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	apiRequests  *CounterVec
	apiLatency   *HistogramVec
	apiInflight  *Gauge
	jobOutcomes  *CounterVec
	jobDuration  *HistogramVec
	modeFailures *CounterVec
	queueDepth   *GaugeVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("studypath_api_requests_total", "HTTP requests by route and status.",
			[]string{"method", "route", "status"}),
		apiLatency: NewHistogramVec("studypath_api_request_duration_seconds", "HTTP request latency.",
			[]string{"method", "route"}, nil),
		apiInflight: NewGauge("studypath_api_inflight_requests", "HTTP requests currently being served."),
		jobOutcomes: NewCounterVec("studypath_generation_jobs_total", "Finished generation job attempts by status.",
			[]string{"status"}),
		jobDuration: NewHistogramVec("studypath_generation_job_duration_seconds", "Generation job run time.",
			[]string{"status"}, []float64{1, 5, 15, 30, 60, 120, 300, 600}),
		modeFailures: NewCounterVec("studypath_generation_mode_fallbacks_total", "Content modes stored as fallback text.",
			[]string{"mode"}),
		queueDepth: NewGaugeVec("studypath_generation_queue_depth", "Generation jobs by status.",
			[]string{"status"}),
	}
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, c := range []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.jobOutcomes, m.jobDuration, m.modeFailures, m.queueDepth,
	} {
		if err := c.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, _ *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

// StartServer serves /metrics on addr until ctx is done.
func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	addr = strings.TrimSpace(addr)
	if m == nil || addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", m.WriteHTTP)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server failed", "error", err, "addr", addr)
		}
	}()
	log.Info("Metrics server listening", "addr", addr)
}

func (m *Metrics) ObserveAPI(method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unknown"
	}
	m.apiRequests.Inc(method, route, strconv.Itoa(status))
	m.apiLatency.Observe(dur.Seconds(), method, route)
}

func (m *Metrics) APIInflightInc() {
	if m != nil {
		m.apiInflight.Inc()
	}
}

func (m *Metrics) APIInflightDec() {
	if m != nil {
		m.apiInflight.Dec()
	}
}

// ObserveJob records one finished attempt. failedModes is the job's
// comma-separated fallback list.
func (m *Metrics) ObserveJob(status string, dur time.Duration, failedModes string) {
	if m == nil {
		return
	}
	m.jobOutcomes.Inc(status)
	m.jobDuration.Observe(dur.Seconds(), status)
	for _, mode := range strings.Split(failedModes, ",") {
		if mode = strings.TrimSpace(mode); mode != "" {
			m.modeFailures.Inc(mode)
		}
	}
}

// StartJobQueueCollector samples generation_job counts by status every
// interval until ctx is done.
func (m *Metrics) StartJobQueueCollector(ctx context.Context, log *logger.Logger, db *gorm.DB, interval time.Duration) {
	if m == nil || db == nil {
		return
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := m.collectQueueDepth(ctx, db); err != nil && ctx.Err() == nil {
					log.Warn("metrics: job queue depth query failed", "error", err)
				}
			}
		}
	}()
}

func (m *Metrics) collectQueueDepth(ctx context.Context, db *gorm.DB) error {
	var rows []struct {
		Status string
		Count  int64
	}
	if err := db.WithContext(ctx).
		Model(&types.GenerationJob{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return err
	}
	for _, s := range []string{types.JobStatusQueued, types.JobStatusRunning, types.JobStatusSucceeded, types.JobStatusFailed} {
		m.queueDepth.Set(0, s)
	}
	for _, row := range rows {
		m.queueDepth.Set(float64(row.Count), row.Status)
	}
	return nil
}
