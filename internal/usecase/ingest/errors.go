// Package ingest implements the ingestion pipeline: fetch the top headlines
// from the external feed, drop the ones whose headline is already stored and
// persist the rest.
package ingest

import "errors"

// Sentinel errors for ingestion.
var (
	// ErrTransport indicates the feed could not be reached or its body could
	// not be decoded (network failure, timeout, malformed JSON).
	ErrTransport = errors.New("feed transport error")

	// ErrUpstreamUnavailable indicates the feed answered with a non-success status.
	ErrUpstreamUnavailable = errors.New("feed upstream unavailable")

	// ErrIngestionFailed wraps every failure that aborts a run.
	ErrIngestionFailed = errors.New("ingestion failed")

	// ErrMalformedTimestamp indicates a feed item whose publishedAt is not RFC 3339.
	ErrMalformedTimestamp = errors.New("malformed publishedAt timestamp")

	// ErrInvalidFeedItem indicates a feed item that cannot become an article,
	// e.g. one without a title.
	ErrInvalidFeedItem = errors.New("invalid feed item")
)
