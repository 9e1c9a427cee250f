// Package httpadapter talks JSON over HTTP to the external journal-management
// platform. It is the only production implementation of journalsync.Adapter;
// test doubles live in test code.
package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	journalsync "github.com/c0deZ3R0/journal-sync"
	"github.com/c0deZ3R0/journal-sync/payload"
)

// Adapter implements journalsync.Adapter against these routes:
//
//	GET /entities/{type}/{id}   -> entity payload (404: no such entity)
//	PUT /entities/{type}/{id}   <- entity payload
//	GET /status                 -> platform status document
type Adapter struct {
	baseURL      string
	http         *http.Client
	maxBodyBytes int64
	authToken    string
}

var _ journalsync.Adapter = (*Adapter)(nil)

// Option configures an Adapter using the functional options pattern
type Option func(*Adapter)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(cl *http.Client) Option {
	return func(a *Adapter) {
		a.http = cl
	}
}

// WithMaxBodyBytes bounds how much of a response body is read
func WithMaxBodyBytes(n int64) Option {
	return func(a *Adapter) {
		a.maxBodyBytes = n
	}
}

// WithAuthToken sets a bearer token sent on every request
func WithAuthToken(token string) Option {
	return func(a *Adapter) {
		a.authToken = token
	}
}

// New creates an Adapter for the platform at baseURL.
func New(baseURL string, opts ...Option) *Adapter {
	a := &Adapter{
		baseURL:      baseURL,
		http:         &http.Client{Timeout: 30 * time.Second},
		maxBodyBytes: 8 << 20, // 8MB
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// BaseURL returns the base URL for the adapter
func (a *Adapter) BaseURL() string {
	return a.baseURL
}

func (a *Adapter) entityURL(entityType, entityID string) string {
	return fmt.Sprintf("%s/entities/%s/%s",
		a.baseURL, url.PathEscape(entityType), url.PathEscape(entityID))
}

func (a *Adapter) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Accept", "application/json")
	if a.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+a.authToken)
	}
	return a.http.Do(req)
}

// GetEntity fetches the external copy of an entity. A 404 means the platform
// has no such entity yet and returns (nil, nil).
func (a *Adapter) GetEntity(ctx context.Context, entityType, entityID string) (payload.Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.entityURL(entityType, entityID), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := a.do(req)
	if err != nil {
		return nil, fmt.Errorf("get entity %s/%s: %w", entityType, entityID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, io.LimitReader(resp.Body, a.maxBodyBytes))
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get entity %s/%s: unexpected status %d", entityType, entityID, resp.StatusCode)
	}

	var p payload.Payload
	if err := json.NewDecoder(io.LimitReader(resp.Body, a.maxBodyBytes)).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode entity %s/%s: %w", entityType, entityID, err)
	}
	return p, nil
}

// PushEntity writes the payload to the external platform.
func (a *Adapter) PushEntity(ctx context.Context, entityType, entityID string, p payload.Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode entity %s/%s: %w", entityType, entityID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, a.entityURL(entityType, entityID), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.do(req)
	if err != nil {
		return fmt.Errorf("push entity %s/%s: %w", entityType, entityID, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, a.maxBodyBytes))

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("push entity %s/%s: unexpected status %d", entityType, entityID, resp.StatusCode)
	}
	return nil
}

// GetSystemStatus probes the platform status endpoint.
func (a *Adapter) GetSystemStatus(ctx context.Context) (payload.Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/status", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := a.do(req)
	if err != nil {
		return nil, fmt.Errorf("get system status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get system status: unexpected status %d", resp.StatusCode)
	}

	var p payload.Payload
	if err := json.NewDecoder(io.LimitReader(resp.Body, a.maxBodyBytes)).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode system status: %w", err)
	}
	return p, nil
}
