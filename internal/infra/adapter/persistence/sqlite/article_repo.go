// Package sqlite provides SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"newsparser/internal/domain/entity"
	"newsparser/internal/repository"
)

// timeLayout is fixed width so that text comparison orders like time.
const timeLayout = "2006-01-02 15:04:05.000000"

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ArticleRepo implements the ArticleRepository interface using SQLite.
type ArticleRepo struct{ db *sql.DB }

// NewArticleRepo creates a new SQLite-backed article repository.
func NewArticleRepo(db *sql.DB) repository.ArticleRepository {
	return &ArticleRepo{db: db}
}

// Save inserts or overwrites a single article.
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

// SaveAll writes the batch in a single transaction, skipping inserts whose
// headline is already present.
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
		if s != nil {
			saved = append(saved, s)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("SaveAll: Commit: %w", err)
	}
	return saved, nil
}

func saveArticle(ctx context.Context, q rowQuerier, a *entity.Article) (*entity.Article, error) {
	const insertQuery = `
INSERT INTO news (headline, description, publication_time)
VALUES (?, ?, ?)
ON CONFLICT (headline) DO NOTHING
RETURNING id, headline, description, publication_time
`
	const updateQuery = `
UPDATE news
SET headline = ?, description = ?, publication_time = ?
WHERE id = ?
RETURNING id, headline, description, publication_time
`
	pubTime := formatTime(a.PublicationTime)

	// 存在しない ID は無視して新規採番で挿入する
	if a.ID != 0 {
		saved, err := scanArticle(q.QueryRowContext(ctx, updateQuery, a.Headline, a.Description, pubTime, a.ID))
		if err == nil {
			return saved, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, mapWriteError(err)
		}
	}

	saved, err := scanArticle(q.QueryRowContext(ctx, insertQuery, a.Headline, a.Description, pubTime))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // 既存の見出し
	}
	if err != nil {
		return nil, mapWriteError(err)
	}
	return saved, nil
}

func mapWriteError(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return repository.ErrDuplicateHeadline
	}
	return err
}

// List retrieves all articles ordered by publication time (newest first).
func (repo *ArticleRepo) List(ctx context.Context) ([]*entity.Article, error) {
	const query = `
SELECT id, headline, description, publication_time
FROM news
ORDER BY publication_time DESC, id DESC
`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("List: QueryContext: %w", err)
	}
	return collectArticles(rows, "List")
}

// Get returns (nil, nil) when the id is unknown.
func (repo *ArticleRepo) Get(ctx context.Context, id int64) (*entity.Article, error) {
	const query = `
SELECT id, headline, description, publication_time
FROM news
WHERE id = ?
LIMIT 1
`
	article, err := scanArticle(repo.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return article, nil
}

// GetByHeadline looks up an article by exact headline.
func (repo *ArticleRepo) GetByHeadline(ctx context.Context, headline string) (*entity.Article, error) {
	const query = `
SELECT id, headline, description, publication_time
FROM news
WHERE headline = ?
LIMIT 1
`
	article, err := scanArticle(repo.db.QueryRowContext(ctx, query, headline))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetByHeadline: %w", err)
	}
	return article, nil
}

// ListByPublicationTimeBetween returns articles in [start, end).
func (repo *ArticleRepo) ListByPublicationTimeBetween(ctx context.Context, start, end time.Time) ([]*entity.Article, error) {
	const query = `
SELECT id, headline, description, publication_time
FROM news
WHERE publication_time >= ?
  AND publication_time <  ?
ORDER BY publication_time DESC, id DESC
`
	rows, err := repo.db.QueryContext(ctx, query, formatTime(start), formatTime(end))
	if err != nil {
		return nil, fmt.Errorf("ListByPublicationTimeBetween: QueryContext: %w", err)
	}
	return collectArticles(rows, "ListByPublicationTimeBetween")
}

func (repo *ArticleRepo) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM news WHERE id = ?`
	if _, err := repo.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("Delete: ExecContext: %w", err)
	}
	return nil
}

func (repo *ArticleRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := repo.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM news`).Scan(&count); err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return count, nil
}

func formatTime(t time.Time) string {
	return entity.NormalizePublicationTime(t).Format(timeLayout)
}

// storedTime accepts both the driver-parsed time.Time and the raw text.
type storedTime struct{ t time.Time }

func (s *storedTime) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		s.t = v
	case string:
		return s.parse(v)
	case []byte:
		return s.parse(string(v))
	default:
		return fmt.Errorf("unsupported publication_time type %T", src)
	}
	return nil
}

func (s *storedTime) parse(v string) error {
	t, err := time.ParseInLocation("2006-01-02 15:04:05.999999999", v, time.UTC)
	if err != nil {
		return fmt.Errorf("parse publication_time %q: %w", v, err)
	}
	s.t = t
	return nil
}

func scanArticle(row *sql.Row) (*entity.Article, error) {
	var (
		article     entity.Article
		description sql.NullString
		pubTime     storedTime
	)
	if err := row.Scan(&article.ID, &article.Headline, &description, &pubTime); err != nil {
		return nil, err
	}
	article.Description = description.String
	article.PublicationTime = entity.NormalizePublicationTime(pubTime.t)
	return &article, nil
}

func collectArticles(rows *sql.Rows, op string) ([]*entity.Article, error) {
	defer func() { _ = rows.Close() }()

	articles := make([]*entity.Article, 0, 64)
	for rows.Next() {
		var (
			article     entity.Article
			description sql.NullString
			pubTime     storedTime
		)
		if err := rows.Scan(&article.ID, &article.Headline, &description, &pubTime); err != nil {
			return nil, fmt.Errorf("%s: Scan: %w", op, err)
		}
		article.Description = description.String
		article.PublicationTime = entity.NormalizePublicationTime(pubTime.t)
		articles = append(articles, &article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows.Err: %w", op, err)
	}
	return articles, nil
}
