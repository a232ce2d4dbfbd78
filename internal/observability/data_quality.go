package observability

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/yungbote/nutriplan-backend/internal/pkg/httpx"
	"github.com/yungbote/nutriplan-backend/internal/platform/ctxutil"
	"github.com/yungbote/nutriplan-backend/internal/platform/envutil"
	"github.com/yungbote/nutriplan-backend/internal/platform/logger"
)

// Catalog data quality issues.
const (
	IssueNoCanonicalValue = "no_canonical_value"
	IssueMalformedTags    = "malformed_tags"
	IssueCodeOverride     = "code_override"
)

type dqAlertState struct {
	mu   sync.Mutex
	last map[string]time.Time
}

var dqAlerts dqAlertState

// ReportCatalogQuality records rows a catalog resolution had to skip or
// patch. Zero counts are ignored.
func ReportCatalogQuality(ctx context.Context, log *logger.Logger, systemID string, issues map[string]int) {
	counts := map[string]int{}
	for issue, n := range issues {
		if n > 0 {
			counts[issue] = n
		}
	}
	if len(counts) == 0 {
		return
	}
	systemID = orUnknown(systemID)
	meta := map[string]any{"system_id": systemID}
	fields := ctxutil.GetTraceData(ctx).Fields()
	for i := 0; i+1 < len(fields); i += 2 {
		meta[fields[i].(string)] = fields[i+1]
	}

	m := Current()
	keys := make([]string, 0, len(counts))
	for issue := range counts {
		keys = append(keys, issue)
	}
	sort.Strings(keys)
	for _, issue := range keys {
		m.AddCatalogQuality(systemID, issue, counts[issue])
	}

	// Overrides are expected curation, not defects.
	if len(counts) == 1 && counts[IssueCodeOverride] > 0 {
		return
	}
	if log != nil {
		log.Warn("catalog data quality issues", "issues", counts, "meta", meta)
	}
	sendDataQualityAlert(systemID, counts, meta, log)
}

func sendDataQualityAlert(systemID string, counts map[string]int, meta map[string]any, log *logger.Logger) {
	if !envutil.Bool("DATA_QUALITY_ALERTS_ENABLED", false) {
		return
	}
	webhook := envutil.String("DATA_QUALITY_ALERT_WEBHOOK_URL", "")
	if webhook == "" {
		return
	}
	dqAlerts.mu.Lock()
	if dqAlerts.last == nil {
		dqAlerts.last = map[string]time.Time{}
	}
	last := dqAlerts.last[systemID]
	minInterval := envutil.Seconds("DATA_QUALITY_ALERT_MIN_INTERVAL_SECONDS", 5*time.Minute)
	if !last.IsZero() && time.Since(last) < minInterval {
		dqAlerts.mu.Unlock()
		return
	}
	dqAlerts.last[systemID] = time.Now()
	dqAlerts.mu.Unlock()

	payload := map[string]any{
		"title":     "Catalog data quality issue",
		"system_id": systemID,
		"issues":    counts,
		"meta":      meta,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		status, err := httpx.PostJSON(ctx, nil, webhook, payload, httpx.RetryPolicy{
			Attempts: envutil.Int("DATA_QUALITY_ALERT_ATTEMPTS", 3),
			Backoff:  time.Second,
			MaxWait:  10 * time.Second,
		})
		if log == nil {
			return
		}
		if err != nil {
			log.Warn("data quality alert post failed", "error", err, "system_id", systemID, "status", status)
			return
		}
		log.Info("data quality alert sent", "system_id", systemID, "status", status)
	}()
}
