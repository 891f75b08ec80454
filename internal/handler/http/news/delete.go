package news

import (
	"errors"
	"net/http"

	"newsparser/internal/handler/http/pathutil"
	"newsparser/internal/handler/http/respond"
	artUC "newsparser/internal/usecase/article"
)

// DeleteHandler serves DELETE /news/{id}. Unknown ids are still 204.
type DeleteHandler struct{ Svc ArticleService }

func (h DeleteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ParseID(r.PathValue("id"))
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.Svc.Delete(r.Context(), id); err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, artUC.ErrInvalidArticleID) {
			code = http.StatusBadRequest
		}
		respond.SafeError(w, code, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
