// Package main implements nodesim, a development stand-in for a fleet node
// daemon. It serves the status protocol armadad probes — a basic-auth GET
// on the root path returning the daemon's capability JSON — so the panel
// can be exercised without real fleet hardware.
//
// Configuration:
//   - NODESIM_LISTEN: listen address (default ":8081")
//   - NODESIM_KEY: apiKey the panel must present (required)
//   - NODESIM_RELEASE: reported versionRelease (default "nodesim 1.0.0")
//   - NODESIM_OFFLINE: "1" makes the daemon report online=false
//
// Example usage:
//
//	# Start a fake node
//	NODESIM_LISTEN=:8081 NODESIM_KEY=secret ./nodesim
//
//	# Probe it the way armadad does
//	curl -u Armada:secret http://localhost:8081/
package main

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/harborline/armada/internal/fleet"
)

// probeUsername mirrors the fixed service identifier armadad authenticates
// with.
const probeUsername = "Armada"

// versionFamily is the protocol generation this simulator speaks.
const versionFamily = 1

func main() {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	addr := getenv("NODESIM_LISTEN", ":8081")
	apiKey := os.Getenv("NODESIM_KEY")
	if apiKey == "" {
		log.Error("NODESIM_KEY is required")
		os.Exit(1)
	}

	status := fleet.DaemonStatus{
		VersionFamily:  versionFamily,
		VersionRelease: getenv("NODESIM_RELEASE", "nodesim 1.0.0"),
		Online:         os.Getenv("NODESIM_OFFLINE") != "1",
		Remote:         addr,
		Docker:         false,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", newStatusHandler(apiKey, status, log))

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("nodesim listening", "addr", addr, "online", status.Online)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("listen", "err", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(ctx)
	log.Info("nodesim stopped")
}

// newStatusHandler serves the node status document to callers presenting
// the shared apiKey as the basic-auth password.
func newStatusHandler(apiKey string, status fleet.DaemonStatus, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" || r.Method != http.MethodGet {
			http.NotFound(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != probeUsername ||
			subtle.ConstantTimeCompare([]byte(pass), []byte(apiKey)) != 1 {
			log.Warn("rejected probe", "remote", r.RemoteAddr)
			w.Header().Set("WWW-Authenticate", `Basic realm="nodesim"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(status)
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
