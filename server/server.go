// Package server serves the Summary card over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ansel1/tally/config"
	"github.com/ansel1/tally/output"
	"github.com/ansel1/tally/output/html"
	"github.com/ansel1/tally/results"
	"github.com/ansel1/tally/summary"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

// Server renders the collector's latest statistics as a card.
type Server struct {
	router    *chi.Mux
	collector *results.Collector
	chart     summary.ChartConfig
	log       logrus.FieldLogger
	metrics   *Metrics
	gatherer  prometheus.Gatherer
}

// New wires the routes. reg may be nil, in which case /metrics serves a
// private registry.
func New(collector *results.Collector, chart summary.ChartConfig, log logrus.FieldLogger, reg *prometheus.Registry) *Server {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	s := &Server{
		router:    chi.NewRouter(),
		collector: collector,
		chart:     chart,
		log:       log,
		metrics:   NewMetrics(reg),
		gatherer:  reg,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Get("/summary", s.handleHTML)
	r.Get("/summary.svg", s.handleSVG)
	r.Get("/summary.json", s.handleJSON)
	r.Put("/statistics", s.handlePutStatistics)
	r.Handle("/metrics", s.metricsHandler())
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, cfg config.ServerConfig) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           s,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", cfg.Addr).Info("serving summary card")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) card() summary.Card {
	return summary.Render(s.collector.Latest(), s.chart)
}

func (s *Server) handleHTML(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := html.RenderHTML(s.card(), &buf); err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

func (s *Server) handleSVG(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := html.RenderSVG(s.card(), &buf); err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	buf.WriteTo(w)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(output.NewCardJSON(s.collector.Latest(), s.chart)); err != nil {
		s.log.WithError(err).Warn("encode summary")
	}
}

// handlePutStatistics accepts a statistics document or a JSON array of results.
func (s *Server) handlePutStatistics(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	stats, err := results.Decode(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.collector.Replace(stats)
	s.metrics.Updates.Inc()
	s.log.WithFields(logrus.Fields{
		"success": stats.Success,
		"failed":  stats.Failed,
		"skipped": stats.Skipped,
	}).Debug("statistics replaced")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) metricsHandler() http.Handler {
	h := promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.metrics.Observe(s.collector.Latest())
		h.ServeHTTP(w, r)
	})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	s.log.WithError(err).WithField("path", r.URL.Path).Error("render failed")
	http.Error(w, "failed to render summary", http.StatusInternalServerError)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"duration":   time.Since(start),
			"request_id": middleware.GetReqID(r.Context()),
		}).Debug("request")
	})
}
