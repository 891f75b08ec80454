// Package metrics provides the Prometheus collectors shared by the
// application: HTTP request metrics, ingestion metrics and store metrics.
//
// All collectors are registered with the default registry and exposed on
// the /metrics endpoint.
//
//	start := time.Now()
//	saved, err := svc.Run(ctx)
//	metrics.RecordIngestRun(metrics.IngestResultSuccess, time.Since(start))
package metrics
