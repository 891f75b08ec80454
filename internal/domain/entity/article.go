// Package entity defines the core domain entities and validation logic for the application.
// It contains the Article news item along with its validation rules and domain-specific errors.
package entity

import "time"

// Article represents a single news item persisted by the application.
//
// PublicationTime is a naive timestamp: it is always carried as a UTC wall
// clock and stored without zone information.
type Article struct {
	ID              int64
	Headline        string
	Description     string
	PublicationTime time.Time
}

// NormalizePublicationTime converts t to the UTC wall clock used for storage.
// Sub-microsecond precision is dropped since neither backend keeps it.
func NormalizePublicationTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
