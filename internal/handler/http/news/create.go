package news

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"newsparser/internal/domain/entity"
	"newsparser/internal/handler/http/respond"
	artUC "newsparser/internal/usecase/article"
)

type createRequest struct {
	ID              int64   `json:"id"`
	Headline        string  `json:"headline"`
	Description     *string `json:"description"`
	PublicationTime string  `json:"publicationTime"`
}

// CreateHandler serves POST /news. A body carrying an id overwrites that
// article; a headline already used by another article is a 409.
type CreateHandler struct {
	Svc ArticleService
	// Now stamps articles sent without publicationTime; nil means time.Now.
	Now func() time.Time
}

func (h CreateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	in := artUC.CreateInput{ID: req.ID, Headline: req.Headline}
	if req.Description != nil {
		in.Description = *req.Description
	}
	if req.PublicationTime == "" {
		in.PublicationTime = h.now()
	} else {
		t, err := parsePublicationTime(req.PublicationTime)
		if err != nil {
			respond.SafeError(w, http.StatusBadRequest, err)
			return
		}
		in.PublicationTime = t
	}

	saved, err := h.Svc.Create(r.Context(), in)
	if err != nil {
		var ve *entity.ValidationError
		switch {
		case errors.As(err, &ve):
			respond.Error(w, http.StatusBadRequest, errors.New(ve.Message))
		case errors.Is(err, artUC.ErrInvalidArticleID):
			respond.SafeError(w, http.StatusBadRequest, err)
		case errors.Is(err, artUC.ErrDuplicateHeadline):
			respond.SafeError(w, http.StatusConflict, err)
		default:
			respond.SafeError(w, http.StatusInternalServerError, err)
		}
		return
	}
	respond.JSON(w, http.StatusCreated, toDTO(saved))
}

func (h CreateHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}
