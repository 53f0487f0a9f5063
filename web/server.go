// ABOUTME: JSON HTTP API over the bulk processor and health engine
// ABOUTME: Exposes bulk runs, health history and Prometheus metrics
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/harperreed/crmpulse/bulk"
	"github.com/harperreed/crmpulse/db"
	"github.com/harperreed/crmpulse/health"
	"github.com/harperreed/crmpulse/models"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Server struct {
	store     *db.Store
	engine    *health.Engine
	processor *bulk.Processor
	logger    *zap.Logger
}

func NewServer(store *db.Store, engine *health.Engine, processor *bulk.Processor, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{store: store, engine: engine, processor: processor, logger: logger}
}

// Handler returns the routed mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/bulk-operations", s.handleBulkOperation)
	mux.HandleFunc("GET /api/bulk-operations", s.handleListBulkOperations)
	mux.HandleFunc("GET /api/bulk-operations/{id}", s.handleGetBulkOperation)
	mux.HandleFunc("GET /api/companies/{id}/health", s.handleHealthHistory)
	mux.HandleFunc("POST /api/companies/{id}/health", s.handleRecalculateHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// Start serves until ctx is canceled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting web server", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
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
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleBulkOperation(w http.ResponseWriter, r *http.Request) {
	var req bulk.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	resp, err := s.processor.Execute(r.Context(), req)
	if err != nil {
		if errors.Is(err, bulk.ErrInvalidRequest) {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("bulk operation failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "bulk operation failed")
		return
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListBulkOperations(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	logs, err := s.processor.ListLogs(r.Context(), limit)
	if err != nil {
		s.logger.Error("list bulk operations failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to list bulk operations")
		return
	}
	if logs == nil {
		logs = []models.BulkOperationLog{}
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"operations": logs})
}

func (s *Server) handleGetBulkOperation(w http.ResponseWriter, r *http.Request) {
	log, err := s.processor.GetLog(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, err, "bulk operation not found")
		return
	}
	s.writeJSON(w, http.StatusOK, log)
}

func (s *Server) handleHealthHistory(w http.ResponseWriter, r *http.Request) {
	companyID := r.PathValue("id")
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	for _, d := range []string{from, to} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(models.SnapshotDateFormat, d); err != nil {
			s.writeError(w, http.StatusBadRequest, "dates must be YYYY-MM-DD")
			return
		}
	}

	if _, err := s.store.GetCompany(r.Context(), companyID); err != nil {
		s.writeStoreError(w, err, "company not found")
		return
	}

	snaps, err := s.store.ListSnapshots(r.Context(), companyID, from, to)
	if err != nil {
		s.logger.Error("list snapshots failed", zap.String("company_id", companyID), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to list snapshots")
		return
	}
	if snaps == nil {
		snaps = []models.HealthScoreSnapshot{}
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"snapshots": snaps})
}

func (s *Server) handleRecalculateHealth(w http.ResponseWriter, r *http.Request) {
	companyID := r.PathValue("id")
	if _, err := s.store.GetCompany(r.Context(), companyID); err != nil {
		s.writeStoreError(w, err, "company not found")
		return
	}

	snap, err := s.engine.Recalculate(r.Context(), companyID, s.store)
	if err != nil {
		s.logger.Error("recalculate health failed", zap.String("company_id", companyID), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to calculate health score")
		return
	}

	s.writeJSON(w, http.StatusOK, snap)
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error, notFound string) {
	if errors.Is(err, db.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, notFound)
		return
	}
	s.logger.Error("store error", zap.Error(err))
	s.writeError(w, http.StatusInternalServerError, "internal error")
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to encode response", zap.Error(err))
	}
}
