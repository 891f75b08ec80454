package news

import (
	"log/slog"
	"net/http"

	"newsparser/internal/handler/http/respond"
)

// ListHandler serves GET /news, newest first.
type ListHandler struct {
	Svc    ArticleService
	Logger *slog.Logger
}

func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	articles, err := h.Svc.List(r.Context())
	if err != nil {
		requestLogger(r, h.Logger).Error("list news failed", slog.String("error", respond.SanitizeError(err)))
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	respond.JSON(w, http.StatusOK, toDTOs(articles))
}
