// Package period resolves a coarse time-of-day name into the stored articles
// published in that window, today or, when nothing has been ingested yet
// today, yesterday.
package period

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"newsparser/internal/domain/entity"
	"newsparser/internal/observability/metrics"
	"newsparser/internal/repository"
)

// ErrInvalidPeriod indicates a period name other than morning, day or evening.
var ErrInvalidPeriod = errors.New("invalid period: must be one of morning, day, evening")

// Period names.
const (
	Morning = "morning"
	Day     = "day"
	Evening = "evening"
)

// span is a window as offsets from midnight.
type span struct {
	start, end time.Duration
}

// Evening ends at 23:59, so the last minute of the day belongs to no period.
var spans = map[string]span{
	Morning: {1 * time.Hour, 12 * time.Hour},
	Day:     {12 * time.Hour, 18 * time.Hour},
	Evening: {18 * time.Hour, 23*time.Hour + 59*time.Minute},
}

// Names returns the accepted period names in sorted order.
func Names() []string {
	names := make([]string, 0, len(spans))
	for n := range spans {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Window is the half-open interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// WindowFor returns the window of the named period on the calendar date of
// day, in day's location. Names are case-insensitive.
func WindowFor(name string, day time.Time) (Window, error) {
	sp, ok := spans[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Window{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, name)
	}
	midnight := startOfDay(day)
	return Window{Start: midnight.Add(sp.start), End: midnight.Add(sp.end)}, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Resolver answers by-period queries against the article store.
type Resolver struct {
	Repo repository.ArticleRepository
	// Location defines "today"; nil means UTC.
	Location *time.Location
}

// NewResolver creates a Resolver using loc as the reference time zone.
func NewResolver(repo repository.ArticleRepository, loc *time.Location) *Resolver {
	return &Resolver{Repo: repo, Location: loc}
}

// Result is a resolved period query.
type Result struct {
	Period string
	Window Window
	// FellBack is true when nothing was ingested today and yesterday was used.
	FellBack bool
	Articles []*entity.Article
}

// Resolve returns the articles published in the named period of today, or of
// yesterday when the store holds nothing published between today's midnight
// and now. The probe looks at the whole day so far, not at the period.
func (r *Resolver) Resolve(ctx context.Context, name string, now time.Time) ([]*entity.Article, error) {
	res, err := r.ResolveDetailed(ctx, name, now)
	if err != nil {
		return nil, err
	}
	return res.Articles, nil
}

// ResolveDetailed is Resolve and also reports the window that was queried.
func (r *Resolver) ResolveDetailed(ctx context.Context, name string, now time.Time) (*Result, error) {
	loc := r.Location
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)
	key := strings.ToLower(strings.TrimSpace(name))

	// 名前の検証はストアに触れる前に行う
	if _, err := WindowFor(key, now); err != nil {
		return nil, err
	}

	today := startOfDay(now)
	ingestedToday, err := r.Repo.ListByPublicationTimeBetween(ctx, today, now)
	if err != nil {
		return nil, fmt.Errorf("probe today's articles: %w", err)
	}

	queryDay := today
	fellBack := len(ingestedToday) == 0
	if fellBack {
		queryDay = today.AddDate(0, 0, -1)
	}

	w, err := WindowFor(key, queryDay)
	if err != nil {
		return nil, err
	}
	articles, err := r.Repo.ListByPublicationTimeBetween(ctx, w.Start, w.End)
	if err != nil {
		return nil, fmt.Errorf("list articles for %s: %w", key, err)
	}

	metrics.RecordPeriodQuery(key, fellBack)
	slog.Debug("period resolved",
		slog.String("period", key),
		slog.Time("start", w.Start),
		slog.Time("end", w.End),
		slog.Bool("fell_back", fellBack),
		slog.Int("articles", len(articles)))

	return &Result{Period: key, Window: w, FellBack: fellBack, Articles: articles}, nil
}
