package article

import (
	"context"
	"errors"
	"fmt"
	"time"

	"newsparser/internal/domain/entity"
	"newsparser/internal/repository"
)

// CreateInput represents a single article submitted by a client.
// A non-zero ID overwrites the article with that ID.
type CreateInput struct {
	ID              int64
	Headline        string
	Description     string
	PublicationTime time.Time
}

// Service provides article management use cases.
type Service struct {
	Repo repository.ArticleRepository
}

// List retrieves all articles, newest publication first.
func (s *Service) List(ctx context.Context) ([]*entity.Article, error) {
	articles, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return articles, nil
}

// Get retrieves a single article by its ID.
// Returns ErrInvalidArticleID if the ID is not positive.
// Returns ErrArticleNotFound if the article does not exist.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Article, error) {
	if id <= 0 {
		return nil, ErrInvalidArticleID
	}

	article, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get article: %w", err)
	}
	if article == nil {
		return nil, ErrArticleNotFound
	}
	return article, nil
}

// Create saves one article unless its headline is already used by a
// different article, in which case ErrDuplicateHeadline is returned and
// nothing is written.
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.Article, error) {
	if in.ID < 0 {
		return nil, ErrInvalidArticleID
	}

	art := &entity.Article{
		ID:              in.ID,
		Headline:        in.Headline,
		Description:     in.Description,
		PublicationTime: entity.NormalizePublicationTime(in.PublicationTime),
	}
	if err := art.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.Repo.GetByHeadline(ctx, art.Headline)
	if err != nil {
		return nil, fmt.Errorf("find article by headline: %w", err)
	}
	if existing != nil && existing.ID != art.ID {
		return nil, ErrDuplicateHeadline
	}

	saved, err := s.Repo.Save(ctx, art)
	if errors.Is(err, repository.ErrDuplicateHeadline) {
		// 同時書き込みで先を越された
		return nil, ErrDuplicateHeadline
	}
	if err != nil {
		return nil, fmt.Errorf("save article: %w", err)
	}
	return saved, nil
}

// Delete removes an article by its ID. Deleting an unknown ID succeeds.
// Returns ErrInvalidArticleID if the ID is not positive.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidArticleID
	}

	if err := s.Repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	return nil
}
