package entity

import (
	"errors"
	"fmt"
)

// ErrInvalidArticle matches every *ValidationError under errors.Is.
var ErrInvalidArticle = errors.New("invalid article")

// ValidationError reports the field of an Article that broke an invariant.
// Message is safe to return to clients.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid article %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidArticle
}
