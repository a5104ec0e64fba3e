// Package main implements armadad, the Armada admin API daemon. It exposes
// the node registry and fleet health monitoring over HTTP for an
// authenticated admin caller.
//
// Endpoints:
//
//	POST   /api/nodes                create node, returns probed record
//	GET    /api/nodes                list all nodes, each freshly probed
//	GET    /api/nodes/{id}           fetch one record, no probe
//	PUT    /api/nodes/{id}           update node, returns probed record
//	DELETE /api/nodes/{id}           delete node (idempotent)
//	GET    /api/nodes/{id}/debug     force one probe of one node
//	GET    /api/instances/counts     per-node instance counts
//	GET    /health                   liveness
//
// Configuration:
//   - ARMADA_ADDR: listen address (default ":8080")
//   - ARMADA_STORE: "memory" or "etcd" (default "memory")
//   - ARMADA_ETCD_ENDPOINTS: comma-separated etcd endpoints (etcd store)
//   - ARMADA_ETCD_PREFIX: key prefix in etcd (default "/armada/")
//   - ARMADA_ADMIN_TOKEN: bearer token for /api; unset disables the check
//     (development only)
//   - ARMADA_PROBE_TIMEOUT: per-probe timeout (default "4s")
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi"

	"github.com/harborline/armada/internal/fleet"
	"github.com/harborline/armada/internal/monitor"
	"github.com/harborline/armada/internal/registry"
	"github.com/harborline/armada/internal/storage"
)

// logFatal is a variable to allow mocking log.Fatal in tests.
var logFatal = func(msg string, args ...any) {
	slog.Error(msg, args...)
	os.Exit(1)
}

func main() {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(log)

	addr := getenv("ARMADA_ADDR", ":8080")

	kv, err := openStore(log)
	if err != nil {
		logFatal("open store", "err", err)
	}

	srv := newServer(kv, log)
	srv.adminToken = os.Getenv("ARMADA_ADMIN_TOKEN")
	if srv.adminToken == "" {
		log.Warn("ARMADA_ADMIN_TOKEN not set, admin API is unauthenticated")
	}

	if raw := os.Getenv("ARMADA_PROBE_TIMEOUT"); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil {
			logFatal("parse ARMADA_PROBE_TIMEOUT", "err", err)
		}
		srv.prober.SetHTTPClient(&http.Client{Timeout: timeout})
	}

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("armadad listening", "addr", addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logFatal("listen", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(ctx)
	log.Info("armadad stopped")
}

// openStore selects the persistence backend from the environment.
func openStore(log *slog.Logger) (storage.Store, error) {
	backend := getenv("ARMADA_STORE", "memory")
	switch backend {
	case "memory":
		log.Warn("using in-memory store, registry will not survive restarts")
		return storage.NewMemoryStore(), nil
	case "etcd":
		endpoints := strings.Split(getenv("ARMADA_ETCD_ENDPOINTS", "127.0.0.1:2379"), ",")
		prefix := getenv("ARMADA_ETCD_PREFIX", "/armada/")
		return storage.NewEtcdStore(endpoints, prefix)
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

// server bundles the registry stack behind the HTTP handlers.
type server struct {
	registry   *registry.Registry
	monitor    *monitor.Monitor
	prober     *monitor.Prober
	log        *slog.Logger
	adminToken string
}

func newServer(kv storage.Store, log *slog.Logger) *server {
	store := registry.NewStore(kv)
	prober := monitor.NewProber(store, log)
	return &server{
		registry: registry.New(store, prober, log),
		monitor:  monitor.New(store, prober, log),
		prober:   prober,
		log:      log,
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Route("/api", func(r chi.Router) {
		r.Use(s.requireAdmin)
		r.Post("/nodes", s.handleCreateNode)
		r.Get("/nodes", s.handleListNodes)
		r.Get("/nodes/{nodeID}", s.handleGetNode)
		r.Put("/nodes/{nodeID}", s.handleUpdateNode)
		r.Delete("/nodes/{nodeID}", s.handleDeleteNode)
		r.Get("/nodes/{nodeID}/debug", s.handleDebugNode)
		r.Get("/instances/counts", s.handleInstanceCounts)
	})
	return r
}

// requireAdmin is the binary admin gate. Session and user management live
// elsewhere in the panel; armadad only checks the shared bearer token.
func (s *server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.adminToken != "" {
			got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if got != s.adminToken {
				writeError(w, http.StatusForbidden, "admin token required")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *server) handleCreateNode(w http.ResponseWriter, r *http.Request) {
	var params fleet.NodeParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	rec, err := s.registry.Create(r.Context(), params)
	if err != nil {
		s.writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *server) handleListNodes(w http.ResponseWriter, r *http.Request) {
	records, err := s.monitor.RefreshAll(r.Context())
	if err != nil {
		s.log.Error("refresh fleet", "err", err)
		writeError(w, http.StatusInternalServerError, "registry read failed")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *server) handleGetNode(w http.ResponseWriter, r *http.Request) {
	rec, err := s.registry.Get(r.Context(), chi.URLParam(r, "nodeID"))
	if errors.Is(err, fleet.ErrNotFound) {
		writeError(w, http.StatusNotFound, "node not found")
		return
	}
	if err != nil {
		s.log.Error("get node", "err", err)
		writeError(w, http.StatusInternalServerError, "registry read failed")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *server) handleUpdateNode(w http.ResponseWriter, r *http.Request) {
	var params fleet.NodeParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	rec, err := s.registry.Update(r.Context(), chi.URLParam(r, "nodeID"), params)
	if err != nil {
		s.writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *server) handleDeleteNode(w http.ResponseWriter, r *http.Request) {
	if err := s.registry.Delete(r.Context(), chi.URLParam(r, "nodeID")); err != nil {
		s.writeOpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleDebugNode(w http.ResponseWriter, r *http.Request) {
	rec, err := s.monitor.RefreshOne(r.Context(), chi.URLParam(r, "nodeID"))
	if err != nil {
		s.writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *server) handleInstanceCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := s.registry.InstanceCounts(r.Context())
	if err != nil {
		s.log.Error("instance counts", "err", err)
		writeError(w, http.StatusInternalServerError, "registry read failed")
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

// writeOpError maps registry operation errors onto admin API responses.
// ValidationError, NotFound, and InvalidArgument are the caller's fault;
// anything else is an internal failure.
func (s *server) writeOpError(w http.ResponseWriter, err error) {
	var verr *fleet.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, fleet.ErrNotFound):
		writeError(w, http.StatusBadRequest, "node not found")
	case errors.Is(err, fleet.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, "node id required")
	default:
		s.log.Error("registry operation failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
