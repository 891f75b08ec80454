package entity

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxHeadlineLength mirrors the width of the headline column.
const MaxHeadlineLength = 255

// ValidateHeadline checks that a headline is present and fits the column.
func ValidateHeadline(headline string) error {
	if strings.TrimSpace(headline) == "" {
		return &ValidationError{Field: "headline", Message: "headline is required"}
	}
	if utf8.RuneCountInString(headline) > MaxHeadlineLength {
		return &ValidationError{
			Field:   "headline",
			Message: fmt.Sprintf("headline must not exceed %d characters", MaxHeadlineLength),
		}
	}
	return nil
}

// Validate checks the invariants every stored article must satisfy.
func (a *Article) Validate() error {
	if err := ValidateHeadline(a.Headline); err != nil {
		return err
	}
	if a.PublicationTime.IsZero() {
		return &ValidationError{Field: "publicationTime", Message: "publicationTime is required"}
	}
	return nil
}
