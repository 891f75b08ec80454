// Package article provides use cases for managing stored news articles:
// listing, lookup, deletion and the single-article save that rejects a
// headline which is already taken.
package article

import "errors"

// Sentinel errors for article use case operations.
var (
	// ErrArticleNotFound indicates that the requested article was not found.
	ErrArticleNotFound = errors.New("article not found")

	// ErrInvalidArticleID indicates that the provided article ID is invalid.
	// Article IDs must be positive integers.
	ErrInvalidArticleID = errors.New("invalid article ID")

	// ErrDuplicateHeadline indicates that another article already uses the headline.
	ErrDuplicateHeadline = errors.New("article with this headline already exists")
)
