package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborline/armada/internal/fleet"
)

func testHandler(online bool) http.HandlerFunc {
	status := fleet.DaemonStatus{
		VersionFamily:  versionFamily,
		VersionRelease: "nodesim test",
		Online:         online,
		Remote:         ":8081",
	}
	return newStatusHandler("s3cret", status, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// TestStatusHandler verifies the simulated daemon speaks the probe protocol
// the panel expects.
func TestStatusHandler(t *testing.T) {
	t.Run("authenticated probe", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.SetBasicAuth("Armada", "s3cret")
		w := httptest.NewRecorder()
		testHandler(true)(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var status fleet.DaemonStatus
		require.NoError(t, json.NewDecoder(w.Body).Decode(&status))
		assert.Equal(t, versionFamily, status.VersionFamily)
		assert.True(t, status.Online)
	})

	t.Run("offline flag is reported", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.SetBasicAuth("Armada", "s3cret")
		w := httptest.NewRecorder()
		testHandler(false)(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var status fleet.DaemonStatus
		require.NoError(t, json.NewDecoder(w.Body).Decode(&status))
		assert.False(t, status.Online)
	})

	t.Run("wrong key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.SetBasicAuth("Armada", "wrong")
		w := httptest.NewRecorder()
		testHandler(true)(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong username", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.SetBasicAuth("intruder", "s3cret")
		w := httptest.NewRecorder()
		testHandler(true)(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("no credentials", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()
		testHandler(true)(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.NotEmpty(t, w.Header().Get("WWW-Authenticate"))
	})

	t.Run("other paths 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/other", nil)
		req.SetBasicAuth("Armada", "s3cret")
		w := httptest.NewRecorder()
		testHandler(true)(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
