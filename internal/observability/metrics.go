package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/nutriplan-backend/internal/platform/envutil"
	"github.com/yungbote/nutriplan-backend/internal/platform/logger"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge

	catalogCache   *CounterVec
	catalogLoad    *HistogramVec
	catalogQuality *CounterVec

	rebuildTotal    *CounterVec
	rebuildDuration *HistogramVec

	planTotal       *CounterVec
	planDuration    *HistogramVec
	missingProfiles *CounterVec

	dbStats   *GaugeVec
	redisUp   *Gauge
	redisPing *Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

// Current returns the process metrics, or nil when metrics are disabled.
// Every method is safe on a nil receiver.
func Current() *Metrics {
	return instance
}

func scrapeInterval() time.Duration {
	d := envutil.Seconds("METRICS_SCRAPE_INTERVAL_SECONDS", 10*time.Second)
	if d <= 0 {
		return 10 * time.Second
	}
	return d
}

func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = newMetrics()
		if log != nil {
			log.Info("Observability metrics enabled")
		}
	})
	return instance
}

func newMetrics() *Metrics {
	latencyBuckets := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}
	return &Metrics{
		apiRequests: NewCounterVec("np_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"np_api_request_duration_seconds",
			"API request latency in seconds by method/route/status.",
			[]string{"method", "route", "status"},
			latencyBuckets,
		),
		apiInflight: NewGauge("np_api_inflight_requests", "In-flight API requests."),

		catalogCache: NewCounterVec("np_catalog_cache_total", "Catalog snapshot lookups by result.", []string{"result"}),
		catalogLoad: NewHistogramVec(
			"np_catalog_load_duration_seconds",
			"Catalog resolution time in seconds by status.",
			[]string{"status"},
			latencyBuckets,
		),
		catalogQuality: NewCounterVec("np_catalog_quality_issues_total", "Catalog rows skipped or patched during resolution.", []string{"system", "issue"}),

		rebuildTotal: NewCounterVec("np_profile_rebuilds_total", "Bucket profile rebuilds by status.", []string{"status"}),
		rebuildDuration: NewHistogramVec(
			"np_profile_rebuild_duration_seconds",
			"Bucket profile rebuild time in seconds by status.",
			[]string{"status"},
			[]float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		),

		planTotal: NewCounterVec("np_exchange_plans_total", "Exchange plan generations by status.", []string{"status"}),
		planDuration: NewHistogramVec(
			"np_exchange_plan_duration_seconds",
			"Exchange plan generation time in seconds by status.",
			[]string{"status"},
			latencyBuckets,
		),
		missingProfiles: NewCounterVec("np_missing_profile_warnings_total", "Buckets skipped during plan generation.", []string{"bucket_type"}),

		dbStats:   NewGaugeVec("np_db_pool", "Database connection pool stats.", []string{"stat"}),
		redisUp:   NewGauge("np_redis_up", "Redis reachability (1 up, 0 down)."),
		redisPing: NewGauge("np_redis_ping_seconds", "Last Redis ping latency in seconds."),
	}
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

type promWriter interface {
	WritePrometheus(w io.Writer) error
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	all := []promWriter{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.catalogCache, m.catalogLoad, m.catalogQuality,
		m.rebuildTotal, m.rebuildDuration,
		m.planTotal, m.planDuration, m.missingProfiles,
		m.dbStats, m.redisUp, m.redisPing,
	}
	for _, pw := range all {
		if err := pw.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

// IncCatalogCache counts a snapshot lookup; result is "hit" or "miss".
func (m *Metrics) IncCatalogCache(result string) {
	if m == nil {
		return
	}
	m.catalogCache.Inc(orUnknown(result))
}

func (m *Metrics) ObserveCatalogLoad(status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.catalogLoad.Observe(dur.Seconds(), orUnknown(status))
}

func (m *Metrics) AddCatalogQuality(systemID, issue string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.catalogQuality.Add(float64(n), orUnknown(systemID), orUnknown(issue))
}

func (m *Metrics) ObserveRebuild(status string, dur time.Duration) {
	if m == nil {
		return
	}
	status = orUnknown(status)
	m.rebuildTotal.Inc(status)
	m.rebuildDuration.Observe(dur.Seconds(), status)
}

func (m *Metrics) ObservePlanGeneration(status string, dur time.Duration) {
	if m == nil {
		return
	}
	status = orUnknown(status)
	m.planTotal.Inc(status)
	m.planDuration.Observe(dur.Seconds(), status)
}

func (m *Metrics) IncMissingProfile(bucketType string) {
	if m == nil {
		return
	}
	m.missingProfiles.Inc(orUnknown(bucketType))
}

func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: db stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.dbStats.Set(float64(stats.OpenConnections), "open_connections")
				m.dbStats.Set(float64(stats.InUse), "in_use")
				m.dbStats.Set(float64(stats.Idle), "idle")
				m.dbStats.Set(float64(stats.WaitCount), "wait_count")
				m.dbStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
				m.dbStats.Set(float64(stats.MaxOpenConnections), "max_open_connections")
			}
		}
	}()
}

// StartRedisCollector pings the shared client; it does not own or close it.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb redis.UniversalClient) {
	if m == nil || rdb == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}

func orUnknown(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "unknown"
	}
	return v
}
