package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// API is the HTTP RegistrationSink against the dispatch server. The session
// token is read per request so rotation on the host side just works.
type API struct {
	baseURL    string
	token      func() string
	httpClient *http.Client
}

func NewAPI(baseURL string, token func() string) *API {
	return &API{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (a *API) VapidPublicKey(ctx context.Context) (string, error) {
	var result struct {
		VapidPublicKey string `json:"vapidPublicKey"`
	}
	if err := a.do(ctx, http.MethodGet, "/api/push/vapid-public-key", nil, &result); err != nil {
		return "", err
	}
	if result.VapidPublicKey == "" {
		return "", fmt.Errorf("client: server returned empty vapid key")
	}
	return result.VapidPublicKey, nil
}

func (a *API) SaveRegistration(ctx context.Context, channelHandle string, role string) error {
	body := map[string]string{
		"channelHandle": channelHandle,
		"role":          role,
	}
	return a.do(ctx, http.MethodPost, "/api/push/register", body, nil)
}

func (a *API) RemoveRegistration(ctx context.Context) error {
	return a.do(ctx, http.MethodDelete, "/api/push/register", nil, nil)
}

func (a *API) do(ctx context.Context, method string, path string, body any, dest any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("client: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := a.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var failure struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&failure)
		if failure.Error != "" {
			return fmt.Errorf("client: %s %s: %d %s", method, path, resp.StatusCode, failure.Error)
		}
		return fmt.Errorf("client: %s %s: status %d", method, path, resp.StatusCode)
	}

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("client: decode response: %w", err)
	}
	return nil
}
