package news

import (
	"errors"
	"log/slog"
	"net/http"

	"newsparser/internal/handler/http/respond"
	"newsparser/internal/usecase/ingest"
)

// ExternalHandler serves GET|POST /news/external: one ingestion pass run
// inline, answering with the articles it persisted.
type ExternalHandler struct {
	// Ingest is nil when no feed is configured; the route then answers 503.
	Ingest Ingester
	Logger *slog.Logger
}

func (h ExternalHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Ingest == nil {
		respond.Error(w, http.StatusServiceUnavailable, errors.New("news feed is not configured"))
		return
	}

	logger := requestLogger(r, h.Logger)
	saved, stats, err := h.Ingest.RunWithStats(r.Context())
	if err != nil {
		logger.Error("on-demand ingestion failed", slog.String("error", respond.SanitizeError(err)))
		respond.SafeError(w, http.StatusInternalServerError, classify(err))
		return
	}

	logger.Info("on-demand ingestion finished",
		slog.Int("feed_items", stats.FeedItems),
		slog.Int("inserted", stats.Inserted))
	respond.JSON(w, http.StatusOK, toDTOs(saved))
}

// classify maps feed-side failures to 502 and leaves store failures as 500.
func classify(err error) error {
	switch {
	case errors.Is(err, ingest.ErrUpstreamUnavailable), errors.Is(err, ingest.ErrTransport):
		return respond.NewAppError(http.StatusBadGateway, "news feed unavailable", err)
	case errors.Is(err, ingest.ErrMalformedTimestamp), errors.Is(err, ingest.ErrInvalidFeedItem):
		return respond.NewAppError(http.StatusBadGateway, "news feed returned invalid data", err)
	default:
		return err
	}
}
