// Package worker models the background delivery worker: it fetches its own
// push configuration from the server, renders data-only messages into OS
// notifications with tag-based collapsing, and routes notification clicks to
// safe in-app URLs.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Config is everything the worker needs from the server. The worker never
// embeds the VAPID key; it always fetches a fresh copy because it outlives
// page deploys.
type Config struct {
	VapidPublicKey string `json:"vapidPublicKey"`
}

// ConfigClient fetches worker configuration from the public config endpoint.
type ConfigClient struct {
	baseURL    string
	httpClient *http.Client

	cached *Config
}

func NewConfigClient(baseURL string) *ConfigClient {
	return &ConfigClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Fetch returns the worker configuration, reusing the copy from a previous
// successful fetch. The endpoint is public; the worker has no session.
func (c *ConfigClient) Fetch(ctx context.Context) (Config, error) {
	if c.cached != nil {
		return *c.cached, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/push/config", nil)
	if err != nil {
		return Config{}, fmt.Errorf("worker: build config request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Config{}, fmt.Errorf("worker: fetch config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Config{}, fmt.Errorf("worker: fetch config: status %d", resp.StatusCode)
	}

	var config Config
	if err := json.NewDecoder(resp.Body).Decode(&config); err != nil {
		return Config{}, fmt.Errorf("worker: decode config: %w", err)
	}
	if config.VapidPublicKey == "" {
		return Config{}, fmt.Errorf("worker: config has no vapid key")
	}

	c.cached = &config
	return config, nil
}
