// Package server exposes the scheduling engine over HTTP for the Gantt
// dashboard. Every request carries its own snapshot; nothing is shared
// between requests.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/joshharrison/ganttcpm/internal/config"
	"github.com/joshharrison/ganttcpm/internal/cpm"
	"github.com/joshharrison/ganttcpm/internal/graph"
	"github.com/joshharrison/ganttcpm/internal/logging"
	"github.com/joshharrison/ganttcpm/internal/reporter"
	"github.com/joshharrison/ganttcpm/internal/snapshot"
)

// CheckResponse answers an edge admission query.
type CheckResponse struct {
	WouldCreateCycle bool   `json:"would_create_cycle"`
	Admitted         bool   `json:"admitted"`
	Reason           string `json:"reason,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server handles schedule and admission requests.
type Server struct {
	cfg    config.ServerConfig
	opts   cpm.Options
	logger *slog.Logger
}

// New creates a Server.
func New(cfg config.ServerConfig, opts cpm.Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{cfg: cfg, opts: opts, logger: logger}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/schedule", s.handleSchedule)
	mux.HandleFunc("/api/dependencies/check", s.handleCheck)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return mux
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	snap, err := snapshot.ParseJSON(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	g, warnings := graph.Build(snap.Tasks, snap.Dependencies)
	result := cpm.Analyze(g, warnings, s.opts)
	logging.Warnings(s.logger, result.Diagnostics())
	s.logger.Info("scheduled snapshot",
		"tasks", g.TaskCount(),
		"dependencies", len(g.Edges),
		"degraded", result.IsDegraded())

	writeJSON(w, http.StatusOK, reporter.New(g, result).Document())
}

// handleCheck answers whether a candidate dependency may be added. The body
// carries the existing dependencies plus predecessor_id, successor_id and an
// optional relation.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	snap, err := snapshot.ParseJSON(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	root := gjson.ParseBytes(body)
	candidate := graph.Dependency{
		PredecessorID: root.Get("predecessor_id").String(),
		SuccessorID:   root.Get("successor_id").String(),
		Relation:      graph.ParseRelation(root.Get("relation").String()),
	}
	if candidate.PredecessorID == "" || candidate.SuccessorID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "predecessor_id and successor_id are required"})
		return
	}

	resp := CheckResponse{
		WouldCreateCycle: graph.WouldCreateCycle(snap.Dependencies, candidate.PredecessorID, candidate.SuccessorID),
	}
	if err := graph.Admit(snap.Dependencies, candidate); err != nil {
		resp.Reason = err.Error()
	} else {
		resp.Admitted = true
	}

	s.logger.Debug("checked dependency",
		"predecessor", candidate.PredecessorID,
		"successor", candidate.SuccessorID,
		"admitted", resp.Admitted)

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	limit := s.cfg.MaxBodyBytes
	if limit <= 0 {
		limit = config.DefaultConfig().Server.MaxBodyBytes
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: fmt.Sprintf("snapshot exceeds %d bytes", limit)})
			return nil, false
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "read body: " + err.Error()})
		return nil, false
	}
	return body, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		ReadTimeout:       s.cfg.ReadTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}
