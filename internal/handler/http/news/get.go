package news

import (
	"errors"
	"net/http"

	"newsparser/internal/handler/http/pathutil"
	"newsparser/internal/handler/http/respond"
	artUC "newsparser/internal/usecase/article"
)

// GetHandler serves GET /news/{id}.
type GetHandler struct{ Svc ArticleService }

func (h GetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ParseID(r.PathValue("id"))
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	article, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		code := http.StatusInternalServerError
		switch {
		case errors.Is(err, artUC.ErrInvalidArticleID):
			code = http.StatusBadRequest
		case errors.Is(err, artUC.ErrArticleNotFound):
			code = http.StatusNotFound
		}
		respond.SafeError(w, code, err)
		return
	}
	respond.JSON(w, http.StatusOK, toDTO(article))
}
