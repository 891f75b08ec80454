package ingest

import "context"

// FeedClient fetches the current top headlines from the external feed.
// Implementations wrap failures with ErrTransport or ErrUpstreamUnavailable.
type FeedClient interface {
	FetchTopHeadlines(ctx context.Context) (*FeedResult, error)
}

// FeedResult is the decoded feed payload.
type FeedResult struct {
	Status       string
	TotalResults int
	Items        []FeedItem
}

// FeedItem is one headline as delivered by the feed. PublishedAt is an
// RFC 3339 timestamp with offset.
type FeedItem struct {
	Title       string
	Description string
	PublishedAt string
}
