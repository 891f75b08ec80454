package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"newsparser/internal/domain/entity"
	"newsparser/internal/observability/metrics"
	"newsparser/internal/repository"
)

// DefaultProbeParallelism bounds the concurrent headline lookups of one run.
const DefaultProbeParallelism = 8

// Service runs the ingestion pipeline.
type Service struct {
	Repo repository.ArticleRepository
	Feed FeedClient

	// ProbeParallelism bounds concurrent GetByHeadline calls; zero means DefaultProbeParallelism.
	ProbeParallelism int
}

// NewService creates an ingestion Service.
func NewService(repo repository.ArticleRepository, feed FeedClient) *Service {
	return &Service{Repo: repo, Feed: feed, ProbeParallelism: DefaultProbeParallelism}
}

// RunStats summarises one ingestion run.
type RunStats struct {
	FeedItems  int
	Inserted   int
	Duplicated int
	Duration   time.Duration
}

// Run fetches the top headlines, skips the ones whose headline is already
// stored and saves the rest. It returns exactly the articles that were
// persisted, in feed order.
//
// Any failure aborts the run with an error wrapping ErrIngestionFailed. Items
// are validated before anything is written, so a malformed feed leaves the
// store untouched.
func (s *Service) Run(ctx context.Context) ([]*entity.Article, error) {
	saved, _, err := s.RunWithStats(ctx)
	return saved, err
}

// RunWithStats is Run and also reports the run statistics.
func (s *Service) RunWithStats(ctx context.Context) ([]*entity.Article, *RunStats, error) {
	start := time.Now()
	stats := &RunStats{}
	logger := slog.Default()

	result, err := s.Feed.FetchTopHeadlines(ctx)
	if err != nil {
		metrics.RecordIngestRun(metrics.IngestResultFetchFailed, time.Since(start))
		return nil, stats, fmt.Errorf("%w: fetch top headlines: %w", ErrIngestionFailed, err)
	}
	if result == nil || len(result.Items) == 0 {
		stats.Duration = time.Since(start)
		metrics.RecordIngestRun(metrics.IngestResultEmpty, stats.Duration)
		logger.Info("feed is empty")
		return []*entity.Article{}, stats, nil
	}
	stats.FeedItems = len(result.Items)

	candidates, err := toArticles(result.Items)
	if err != nil {
		metrics.RecordIngestRun(metrics.IngestResultInvalidFeed, time.Since(start))
		return nil, stats, fmt.Errorf("%w: %w", ErrIngestionFailed, err)
	}

	fresh, err := s.filterStored(ctx, candidates)
	if err != nil {
		metrics.RecordIngestRun(metrics.IngestResultStoreFailed, time.Since(start))
		return nil, stats, fmt.Errorf("%w: %w", ErrIngestionFailed, err)
	}

	saved := []*entity.Article{}
	if len(fresh) > 0 {
		saved, err = s.Repo.SaveAll(ctx, fresh)
		if err != nil {
			metrics.RecordIngestRun(metrics.IngestResultStoreFailed, time.Since(start))
			return nil, stats, fmt.Errorf("%w: save articles: %w", ErrIngestionFailed, err)
		}
	}

	stats.Inserted = len(saved)
	stats.Duplicated = stats.FeedItems - stats.Inserted
	stats.Duration = time.Since(start)

	metrics.RecordIngestRun(metrics.IngestResultSuccess, stats.Duration)
	metrics.RecordIngestItems(stats.FeedItems, stats.Inserted, stats.Duplicated)
	s.refreshTotal(ctx)

	logger.Info("ingestion completed",
		slog.Int("feed_items", stats.FeedItems),
		slog.Int("inserted", stats.Inserted),
		slog.Int("duplicated", stats.Duplicated),
		slog.Duration("duration", stats.Duration),
	)
	return saved, stats, nil
}

// toArticles converts every feed item or fails on the first invalid one.
func toArticles(items []FeedItem) ([]*entity.Article, error) {
	articles := make([]*entity.Article, 0, len(items))
	for i, item := range items {
		pub, err := ParsePublishedAt(item.PublishedAt)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		if err := entity.ValidateHeadline(item.Title); err != nil {
			return nil, fmt.Errorf("item %d: %w: %w", i, ErrInvalidFeedItem, err)
		}
		articles = append(articles, &entity.Article{
			Headline:        item.Title,
			Description:     item.Description,
			PublicationTime: pub,
		})
	}
	return articles, nil
}

// ParsePublishedAt parses an RFC 3339 timestamp and returns the instant as a
// UTC wall clock.
func ParsePublishedAt(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %w", ErrMalformedTimestamp, s, err)
	}
	return entity.NormalizePublicationTime(t), nil
}

// filterStored drops candidates whose headline is already in the store.
// Lookups run concurrently and the survivors keep their feed order.
// Two candidates sharing a headline both survive; the store keeps one.
func (s *Service) filterStored(ctx context.Context, candidates []*entity.Article) ([]*entity.Article, error) {
	parallelism := s.ProbeParallelism
	if parallelism <= 0 {
		parallelism = DefaultProbeParallelism
	}

	stored := make([]bool, len(candidates))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(parallelism)

	for i, c := range candidates {
		eg.Go(func() error {
			existing, err := s.Repo.GetByHeadline(egCtx, c.Headline)
			if err != nil {
				return fmt.Errorf("lookup headline %q: %w", c.Headline, err)
			}
			stored[i] = existing != nil
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	fresh := make([]*entity.Article, 0, len(candidates))
	for i, c := range candidates {
		if !stored[i] {
			fresh = append(fresh, c)
		}
	}
	return fresh, nil
}

func (s *Service) refreshTotal(ctx context.Context) {
	n, err := s.Repo.Count(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.Warn("failed to count articles", slog.Any("error", err))
		}
		return
	}
	metrics.UpdateArticlesTotal(n)
}
