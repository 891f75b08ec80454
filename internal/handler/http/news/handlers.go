package news

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"newsparser/internal/domain/entity"
	"newsparser/internal/observability/logging"
	artUC "newsparser/internal/usecase/article"
	"newsparser/internal/usecase/ingest"
	"newsparser/internal/usecase/period"
)

// ArticleService is the article use case consumed by the handlers.
type ArticleService interface {
	List(ctx context.Context) ([]*entity.Article, error)
	Get(ctx context.Context, id int64) (*entity.Article, error)
	Create(ctx context.Context, in artUC.CreateInput) (*entity.Article, error)
	Delete(ctx context.Context, id int64) error
}

// PeriodResolver answers by-period lookups.
type PeriodResolver interface {
	ResolveDetailed(ctx context.Context, name string, now time.Time) (*period.Result, error)
}

// Ingester runs one ingestion pass.
type Ingester interface {
	RunWithStats(ctx context.Context) ([]*entity.Article, *ingest.RunStats, error)
}

var (
	_ ArticleService = (*artUC.Service)(nil)
	_ PeriodResolver = (*period.Resolver)(nil)
	_ Ingester       = (*ingest.Service)(nil)
)

// requestLogger tags l with the request's IDs. A nil l falls back to the
// logger the access log middleware stored in the context.
func requestLogger(r *http.Request, l *slog.Logger) *slog.Logger {
	if l == nil {
		return logging.FromContext(r.Context())
	}
	return logging.WithTrace(r.Context(), l)
}
