// Package main implements armada, the operator CLI for the Armada panel.
// It speaks to armadad's admin API; every command is a thin wrapper over an
// HTTP call.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "armada",
	Short: "administer an Armada node fleet",
	Long:  "Armada is the admin control plane for a fleet of remote compute nodes. This CLI talks to a running armadad.",
}

var apiBase string

func init() {
	rootCmd.PersistentFlags().StringVar(&apiBase, "api", "",
		"armadad base URL (default $ARMADA_API or http://localhost:8080)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// client is the minimal admin API client the commands share.
type client struct {
	base  string
	token string
	http  *http.Client
}

func newClient() *client {
	base := apiBase
	if base == "" {
		base = os.Getenv("ARMADA_API")
	}
	if base == "" {
		base = "http://localhost:8080"
	}
	return &client{
		base:  base,
		token: os.Getenv("ARMADA_ADMIN_TOKEN"),
		http:  &http.Client{Timeout: 60 * time.Second},
	}
}

// do issues one API call. A nil body sends no payload; a non-nil out decodes
// the response JSON into it.
func (c *client) do(method, path string, body, out any) error {
	var payload *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(raw)
	} else {
		payload = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, c.base+path, payload)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s (http %d)", method, path, apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: http %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
