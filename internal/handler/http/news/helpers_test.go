package news_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"newsparser/internal/domain/entity"
	"newsparser/internal/handler/http/news"
	"newsparser/internal/repository"
	artUC "newsparser/internal/usecase/article"
	"newsparser/internal/usecase/ingest"
	"newsparser/internal/usecase/period"
)

/* ───────── ヘルパ ───────── */

var errStore = errors.New("connection reset")

// memRepo is an in-memory ArticleRepository.
type memRepo struct {
	mu     sync.Mutex
	rows   map[int64]*entity.Article
	nextID int64
	err    error
}

func newMemRepo(articles ...*entity.Article) *memRepo {
	r := &memRepo{rows: map[int64]*entity.Article{}}
	for _, a := range articles {
		_, _ = r.Save(context.Background(), a)
	}
	return r
}

func (r *memRepo) Save(_ context.Context, a *entity.Article) (*entity.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for id, row := range r.rows {
		if row.Headline == a.Headline && id != a.ID {
			return nil, repository.ErrDuplicateHeadline
		}
	}
	cp := *a
	if _, ok := r.rows[cp.ID]; !ok {
		r.nextID++
		cp.ID = r.nextID
	}
	r.rows[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *memRepo) SaveAll(ctx context.Context, as []*entity.Article) ([]*entity.Article, error) {
	out := make([]*entity.Article, 0, len(as))
	for _, a := range as {
		saved, err := r.Save(ctx, a)
		if errors.Is(err, repository.ErrDuplicateHeadline) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, saved)
	}
	return out, nil
}

func (r *memRepo) List(context.Context) ([]*entity.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := make([]*entity.Article, 0, len(r.rows))
	for _, a := range r.rows {
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PublicationTime.After(out[j].PublicationTime) })
	return out, nil
}

func (r *memRepo) Get(_ context.Context, id int64) (*entity.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	a, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *memRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	delete(r.rows, id)
	return nil
}

func (r *memRepo) ListByPublicationTimeBetween(_ context.Context, start, end time.Time) ([]*entity.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []*entity.Article
	for _, a := range r.rows {
		if !a.PublicationTime.Before(start) && a.PublicationTime.Before(end) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memRepo) GetByHeadline(_ context.Context, h string) (*entity.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, a := range r.rows {
		if a.Headline == h {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memRepo) Count(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.rows)), r.err
}

type stubIngester struct {
	saved []*entity.Article
	err   error
	calls int
}

func (s *stubIngester) RunWithStats(context.Context) ([]*entity.Article, *ingest.RunStats, error) {
	s.calls++
	if s.err != nil {
		return nil, &ingest.RunStats{}, s.err
	}
	return s.saved, &ingest.RunStats{FeedItems: len(s.saved), Inserted: len(s.saved)}, nil
}

func art(headline string, pub time.Time) *entity.Article {
	return &entity.Article{Headline: headline, Description: headline + " body", PublicationTime: pub}
}

func passThrough(h http.Handler) http.Handler { return h }

type server struct {
	mux    *http.ServeMux
	repo   *memRepo
	ingest *stubIngester
}

func newServer(t *testing.T, now time.Time, articles ...*entity.Article) *server {
	t.Helper()
	repo := newMemRepo(articles...)
	ing := &stubIngester{}
	mux := http.NewServeMux()
	news.Register(mux, news.Deps{
		Articles: newArticleService(repo),
		Periods:  newResolver(repo),
		Ingest:   ing,
		Logger:   slog.New(slog.NewJSONHandler(io.Discard, nil)),
		Now:      func() time.Time { return now },
	}, passThrough)
	return &server{mux: mux, repo: repo, ingest: ing}
}

func newArticleService(repo *memRepo) *artUC.Service { return &artUC.Service{Repo: repo} }

func newResolver(repo *memRepo) *period.Resolver { return period.NewResolver(repo, time.UTC) }

func (s *server) do(method, target, body string) *httptest.ResponseRecorder {
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}

func httpDo(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return v
}

func headlines(dtos []news.DTO) []string {
	out := make([]string, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.Headline)
	}
	return out
}
