// Package repository declares the storage contracts used by the use cases.
package repository

import (
	"context"
	"errors"
	"time"

	"newsparser/internal/domain/entity"
)

// ErrDuplicateHeadline is returned by a store when a write would give two
// articles the same headline.
var ErrDuplicateHeadline = errors.New("duplicate headline")

type ArticleRepository interface {
	// Save overwrites the row with the article's ID when one exists and
	// inserts under a store-assigned ID otherwise, including when a non-zero
	// ID matches no row. The returned copy carries the stored ID.
	Save(ctx context.Context, article *entity.Article) (*entity.Article, error)
	// SaveAll saves every article in one transaction and returns the rows
	// that were actually written. Inserts whose headline already exists are
	// skipped rather than failing the batch.
	SaveAll(ctx context.Context, articles []*entity.Article) ([]*entity.Article, error)
	// List returns every article, newest publication first.
	List(ctx context.Context) ([]*entity.Article, error)
	// Get returns (nil, nil) when no article has the id.
	Get(ctx context.Context, id int64) (*entity.Article, error)
	// Delete is a no-op for unknown ids.
	Delete(ctx context.Context, id int64) error
	// ListByPublicationTimeBetween returns articles with start <= publication_time < end.
	ListByPublicationTimeBetween(ctx context.Context, start, end time.Time) ([]*entity.Article, error)
	// GetByHeadline returns (nil, nil) when no article has the headline.
	GetByHeadline(ctx context.Context, headline string) (*entity.Article, error)
	Count(ctx context.Context) (int64, error)
}
