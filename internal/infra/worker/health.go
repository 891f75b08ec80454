package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

// HealthServer is the worker's only HTTP surface: liveness, readiness and
// /metrics. It reports not ready until SetReady(true).
type HealthServer struct {
	addr   string
	logger *slog.Logger
	ready  atomic.Bool

	// ReadyCheck is an extra readiness probe, typically a database ping.
	ReadyCheck func(ctx context.Context) error
}

type healthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func NewHealthServer(addr string, logger *slog.Logger) *HealthServer {
	return &HealthServer{addr: addr, logger: logger}
}

func (h *HealthServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		h.reply(w, http.StatusOK, healthResponse{Status: "ok"})
	})
	mux.HandleFunc("GET /health/ready", h.readiness)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// Start blocks until ctx is canceled or the listener fails. After a clean
// shutdown it returns http.ErrServerClosed.
func (h *HealthServer) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              h.addr,
		Handler:           h.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		h.logger.Info("health server listening", slog.String("addr", h.addr))
		return srv.ListenAndServe()
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	h.logger.Info("health server stopped", slog.Any("reason", err))
	return err
}

func (h *HealthServer) SetReady(ready bool) {
	if h.ready.Swap(ready) != ready {
		h.logger.Info("worker readiness changed", slog.Bool("ready", ready))
	}
}

func (h *HealthServer) readiness(w http.ResponseWriter, r *http.Request) {
	if !h.ready.Load() {
		h.reply(w, http.StatusServiceUnavailable, healthResponse{Status: "not ready"})
		return
	}
	if h.ReadyCheck != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.ReadyCheck(ctx); err != nil {
			// 内部エラーの詳細は返さない
			h.logger.Warn("readiness probe failed", slog.Any("error", err))
			h.reply(w, http.StatusServiceUnavailable, healthResponse{Status: "not ready", Error: "dependency unavailable"})
			return
		}
	}
	h.reply(w, http.StatusOK, healthResponse{Status: "ok"})
}

func (h *HealthServer) reply(w http.ResponseWriter, code int, body healthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
