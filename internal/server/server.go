package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"CandleKeeper/internal/model"
)

// CandleReader reads stored candlesticks back.
type CandleReader interface {
	GetAllRowsByName(ctx context.Context, symbol string) ([]model.Candlestick, error)
}

// Deps are the components the admin surface reads from.
type Deps struct {
	Candles  CandleReader
	Gatherer prometheus.Gatherer
	Status   func() *model.RunReport // optional
}

// response is the JSON envelope of every non-metrics endpoint.
type response struct {
	Data  any    `json:"data"`
	Error string `json:"error,omitempty"`
}

// Server runs the admin HTTP surface.
type Server struct {
	addr string
	srv  *http.Server
}

// NewServer creates the admin server. Nothing listens until Start.
func NewServer(addr string, deps Deps) *Server {
	return &Server{
		addr: addr,
		srv: &http.Server{
			Addr:           addr,
			Handler:        NewRouter(deps),
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   10 * time.Second,
			MaxHeaderBytes: 1 << 20,
		},
	}
}

// NewRouter builds the route table.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, response{Data: map[string]string{"status": "ok"}})
	})
	r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	r.Get("/status", func(w http.ResponseWriter, _ *http.Request) {
		var last *model.RunReport
		if deps.Status != nil {
			last = deps.Status()
		}
		if last == nil {
			writeJSON(w, http.StatusNotFound, response{Error: "no ingest run recorded yet"})
			return
		}
		writeJSON(w, http.StatusOK, response{Data: last})
	})
	r.Get("/candles/{symbol}", func(w http.ResponseWriter, req *http.Request) {
		symbol := strings.ToUpper(chi.URLParam(req, "symbol"))
		rows, err := deps.Candles.GetAllRowsByName(req.Context(), symbol)
		if err != nil {
			log.Printf("[ERROR] read candles %s: %v", symbol, err)
			writeJSON(w, http.StatusInternalServerError, response{Error: err.Error()})
			return
		}
		if rows == nil {
			rows = []model.Candlestick{}
		}
		writeJSON(w, http.StatusOK, response{Data: rows})
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, body response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("[WARN] write response: %v", err)
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[INFO] admin server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[ERROR] admin server: %v", err)
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
