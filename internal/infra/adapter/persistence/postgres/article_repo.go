// Package postgres provides PostgreSQL implementations of repository interfaces.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"newsparser/internal/domain/entity"
	"newsparser/internal/observability/metrics"
	"newsparser/internal/repository"
)

const (
	// uniqueViolation is the SQLSTATE reported for a unique index conflict.
	uniqueViolation = "23505"
	headlineIndex   = "idx_news_headline"
)

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type ArticleRepo struct {
	db *sql.DB
}

func NewArticleRepo(db *sql.DB) repository.ArticleRepository {
	return &ArticleRepo{db: db}
}

func (repo *ArticleRepo) Save(ctx context.Context, article *entity.Article) (*entity.Article, error) {
	saved, err := saveArticle(ctx, repo.db, article)
	if err != nil {
		return nil, fmt.Errorf("Save: %w", err)
	}
	if saved == nil {
		return nil, fmt.Errorf("Save: %w", repository.ErrDuplicateHeadline)
	}
	return saved, nil
}

func (repo *ArticleRepo) SaveAll(ctx context.Context, articles []*entity.Article) ([]*entity.Article, error) {
	if len(articles) == 0 {
		return []*entity.Article{}, nil
	}

	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("SaveAll: BeginTx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	saved := make([]*entity.Article, 0, len(articles))
	for _, a := range articles {
		s, err := saveArticle(ctx, tx, a)
		if err != nil {
			return nil, fmt.Errorf("SaveAll: %w", err)
		}
		// skipped by the headline index
		if s == nil {
			continue
		}
		saved = append(saved, s)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("SaveAll: Commit: %w", err)
	}
	return saved, nil
}

// saveArticle returns (nil, nil) when an insert was dropped because the
// headline is already stored. An id that matches no row is ignored and the
// article is inserted under a generated id, so the identity sequence never
// falls behind an explicit value.
func saveArticle(ctx context.Context, q rowQuerier, a *entity.Article) (*entity.Article, error) {
	const insertQuery = `
INSERT INTO news (headline, description, publication_time)
VALUES ($1, $2, $3)
ON CONFLICT (headline) DO NOTHING
RETURNING id, headline, description, publication_time`
	const updateQuery = `
UPDATE news
SET headline = $2, description = $3, publication_time = $4
WHERE id = $1
RETURNING id, headline, description, publication_time`

	pubTime := entity.NormalizePublicationTime(a.PublicationTime)

	if a.ID != 0 {
		saved, err := scanArticle(q.QueryRowContext(ctx, updateQuery, a.ID, a.Headline, a.Description, pubTime))
		switch {
		case err == nil:
			return saved, nil
		case !errors.Is(err, sql.ErrNoRows):
			return nil, mapWriteError(err)
		}
	}

	saved, err := scanArticle(q.QueryRowContext(ctx, insertQuery, a.Headline, a.Description, pubTime))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapWriteError(err)
	}
	return saved, nil
}

// mapWriteError reports a violation of the headline index as
// ErrDuplicateHeadline. Other unique violations, such as a primary key
// collision, are passed through.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == headlineIndex {
		return repository.ErrDuplicateHeadline
	}
	return err
}

func (repo *ArticleRepo) List(ctx context.Context) ([]*entity.Article, error) {
	defer observe("list_news", time.Now())
	const query = `
SELECT id, headline, description, publication_time
FROM news
ORDER BY publication_time DESC, id DESC`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	return collectArticles(rows, "List")
}

func (repo *ArticleRepo) Get(ctx context.Context, id int64) (*entity.Article, error) {
	const query = `
SELECT id, headline, description, publication_time
FROM news
WHERE id = $1
LIMIT 1`
	article, err := scanArticle(repo.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return article, nil
}

func (repo *ArticleRepo) GetByHeadline(ctx context.Context, headline string) (*entity.Article, error) {
	const query = `
SELECT id, headline, description, publication_time
FROM news
WHERE headline = $1
LIMIT 1`
	article, err := scanArticle(repo.db.QueryRowContext(ctx, query, headline))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetByHeadline: %w", err)
	}
	return article, nil
}

func (repo *ArticleRepo) ListByPublicationTimeBetween(ctx context.Context, start, end time.Time) ([]*entity.Article, error) {
	defer observe("list_news_by_period", time.Now())
	const query = `
SELECT id, headline, description, publication_time
FROM news
WHERE publication_time >= $1
  AND publication_time <  $2
ORDER BY publication_time DESC, id DESC`
	rows, err := repo.db.QueryContext(ctx, query,
		entity.NormalizePublicationTime(start), entity.NormalizePublicationTime(end))
	if err != nil {
		return nil, fmt.Errorf("ListByPublicationTimeBetween: %w", err)
	}
	return collectArticles(rows, "ListByPublicationTimeBetween")
}

func (repo *ArticleRepo) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM news WHERE id = $1`
	if _, err := repo.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	return nil
}

func (repo *ArticleRepo) Count(ctx context.Context) (int64, error) {
	const query = `SELECT COUNT(*) FROM news`
	var count int64
	if err := repo.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return count, nil
}

func observe(operation string, start time.Time) {
	metrics.RecordDBQuery(operation, time.Since(start))
}

func scanArticle(row *sql.Row) (*entity.Article, error) {
	var (
		article     entity.Article
		description sql.NullString
	)
	if err := row.Scan(&article.ID, &article.Headline, &description, &article.PublicationTime); err != nil {
		return nil, err
	}
	article.Description = description.String
	article.PublicationTime = entity.NormalizePublicationTime(article.PublicationTime)
	return &article, nil
}

func collectArticles(rows *sql.Rows, op string) ([]*entity.Article, error) {
	defer func() { _ = rows.Close() }()

	articles := make([]*entity.Article, 0, 64)
	for rows.Next() {
		var (
			article     entity.Article
			description sql.NullString
		)
		if err := rows.Scan(&article.ID, &article.Headline, &description, &article.PublicationTime); err != nil {
			return nil, fmt.Errorf("%s: Scan: %w", op, err)
		}
		article.Description = description.String
		article.PublicationTime = entity.NormalizePublicationTime(article.PublicationTime)
		articles = append(articles, &article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows.Err: %w", op, err)
	}
	return articles, nil
}
