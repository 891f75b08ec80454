package news

import (
	"log/slog"
	"net/http"
	"time"
)

// Deps are the collaborators of the /news routes.
type Deps struct {
	Articles ArticleService
	Periods  PeriodResolver
	// Ingest may be nil, see ExternalHandler.
	Ingest Ingester
	Logger *slog.Logger
	Now    func() time.Time
}

// Register mounts the /news routes on mux. requireAdmin wraps the routes
// that write to the store, on-demand ingestion included.
func Register(mux *http.ServeMux, d Deps, requireAdmin func(http.Handler) http.Handler) {
	external := requireAdmin(ExternalHandler{Ingest: d.Ingest, Logger: d.Logger})

	mux.Handle("GET /news", ListHandler{Svc: d.Articles, Logger: d.Logger})
	mux.Handle("POST /news", requireAdmin(CreateHandler{Svc: d.Articles, Now: d.Now}))
	mux.Handle("GET /news/by-period", ByPeriodHandler{Resolver: d.Periods, Now: d.Now})
	mux.Handle("GET /news/external", external)
	mux.Handle("POST /news/external", external)
	mux.Handle("GET /news/{id}", GetHandler{Svc: d.Articles})
	mux.Handle("DELETE /news/{id}", requireAdmin(DeleteHandler{Svc: d.Articles}))
}
