package news

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"newsparser/internal/handler/http/respond"
	"newsparser/internal/usecase/period"
)

// Response headers describing which window answered a by-period query.
const (
	HeaderQueryDate   = "X-News-Query-Date"
	HeaderFellBack    = "X-News-Fallback"
	HeaderWindowStart = "X-News-Window-Start"
	HeaderWindowEnd   = "X-News-Window-End"
)

// ByPeriodHandler serves GET /news/by-period?period=morning|day|evening.
type ByPeriodHandler struct {
	Resolver PeriodResolver
	Now      func() time.Time
}

func (h ByPeriodHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("period")
	if strings.TrimSpace(name) == "" {
		respond.Error(w, http.StatusBadRequest, errors.New("period is required: one of "+strings.Join(period.Names(), ", ")))
		return
	}

	now := time.Now()
	if h.Now != nil {
		now = h.Now()
	}

	res, err := h.Resolver.ResolveDetailed(r.Context(), name, now)
	if err != nil {
		if errors.Is(err, period.ErrInvalidPeriod) {
			respond.Error(w, http.StatusBadRequest, period.ErrInvalidPeriod)
			return
		}
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set(HeaderQueryDate, res.Window.Start.Format(time.DateOnly))
	w.Header().Set(HeaderWindowStart, res.Window.Start.Format(TimeLayout))
	w.Header().Set(HeaderWindowEnd, res.Window.End.Format(TimeLayout))
	if res.FellBack {
		w.Header().Set(HeaderFellBack, "true")
	} else {
		w.Header().Set(HeaderFellBack, "false")
	}
	respond.JSON(w, http.StatusOK, toDTOs(res.Articles))
}
