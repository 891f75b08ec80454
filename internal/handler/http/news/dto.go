// Package news serves the /news REST resource: article CRUD, period lookup
// and on-demand ingestion.
package news

import (
	"errors"
	"strings"
	"time"

	"newsparser/internal/domain/entity"
)

// TimeLayout is the wire format of publicationTime: a zone-less wall clock
// that is always UTC.
const TimeLayout = "2006-01-02T15:04:05"

// DTO is the JSON form of an article.
type DTO struct {
	ID              int64  `json:"id"`
	Headline        string `json:"headline"`
	Description     string `json:"description"`
	PublicationTime string `json:"publicationTime"`
}

func toDTO(a *entity.Article) DTO {
	return DTO{
		ID:              a.ID,
		Headline:        a.Headline,
		Description:     a.Description,
		PublicationTime: a.PublicationTime.UTC().Format(TimeLayout),
	}
}

func toDTOs(articles []*entity.Article) []DTO {
	out := make([]DTO, 0, len(articles))
	for _, a := range articles {
		out = append(out, toDTO(a))
	}
	return out
}

var errInvalidPublicationTime = errors.New("publicationTime must be RFC 3339 or YYYY-MM-DDTHH:MM:SS")

// parsePublicationTime accepts RFC 3339 (converted to UTC) or a zone-less
// timestamp taken as UTC. Fractional seconds are allowed in both.
func parsePublicationTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05.999999999", s, time.UTC); err == nil {
		return t, nil
	}
	return time.Time{}, errInvalidPublicationTime
}
