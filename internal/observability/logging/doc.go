// Package logging wraps log/slog for the API server and the worker.
//
//	logger := logging.NewLogger()
//	slog.SetDefault(logger)
//
//	func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
//	    logger := logging.WithTrace(r.Context(), h.Logger)
//	    logger.Info("listing news")
//	}
package logging
