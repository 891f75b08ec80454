package metrics

import (
	"strconv"
	"time"
)

// Ingestion run results.
const (
	IngestResultSuccess     = "success"
	IngestResultEmpty       = "empty"
	IngestResultFetchFailed = "fetch_failed"
	IngestResultInvalidFeed = "invalid_feed"
	IngestResultStoreFailed = "store_failed"
)

// RecordIngestRun records the outcome and duration of one ingestion run.
func RecordIngestRun(result string, duration time.Duration) {
	IngestRunsTotal.WithLabelValues(result).Inc()
	IngestRunDuration.Observe(duration.Seconds())
}

// RecordIngestItems records how the feed items of one run were handled.
func RecordIngestItems(fetched, inserted, duplicated int) {
	IngestItemsTotal.WithLabelValues("fetched").Add(float64(fetched))
	IngestItemsTotal.WithLabelValues("inserted").Add(float64(inserted))
	IngestItemsTotal.WithLabelValues("duplicated").Add(float64(duplicated))
}

// RecordUpstreamRequest records one call to the external feed. A zero status
// means the request never produced a response.
func RecordUpstreamRequest(feed string, status int, duration time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status/100) + "xx"
	}
	UpstreamRequestsTotal.WithLabelValues(feed, label).Inc()
	UpstreamRequestDuration.WithLabelValues(feed).Observe(duration.Seconds())
}

// RecordPeriodQuery records a by-period lookup.
func RecordPeriodQuery(period string, fellBack bool) {
	day := "today"
	if fellBack {
		day = "yesterday"
	}
	PeriodQueriesTotal.WithLabelValues(period, day).Inc()
}

// UpdateArticlesTotal updates the stored article gauge.
func UpdateArticlesTotal(count int64) {
	NewsArticlesTotal.Set(float64(count))
}

// RecordDBQuery records the duration of a database query operation.
func RecordDBQuery(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateDBConnectionStats updates database connection pool statistics.
func UpdateDBConnectionStats(active, idle int) {
	DBConnectionsActive.Set(float64(active))
	DBConnectionsIdle.Set(float64(idle))
}
