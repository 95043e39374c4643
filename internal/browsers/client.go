// Package browsers is the consumer-facing client for the shared virtual
// browser pool. The allocator service owns container provisioning and
// queueing; rooms only request, poll, and release browsers through it.
package browsers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ZiadHesham225/StreamSync-sub001/internal/errs"
)

// Browser describes an allocated (or queued) virtual browser.
type Browser struct {
	ID        string `json:"id"`
	RoomID    string `json:"room_id"`
	Status    string `json:"status"` // queued, provisioning, ready, released
	StreamURL string `json:"stream_url,omitempty"`
	QueuePos  int    `json:"queue_position,omitempty"`
}

// Pool is the allocator contract rooms consume.
type Pool interface {
	Acquire(ctx context.Context, roomID string) (*Browser, error)
	Status(ctx context.Context, roomID string) (*Browser, error)
	Release(ctx context.Context, roomID string) error
}

// Client implements Pool over the allocator's HTTP JSON API. A nil *Client
// is valid and reports the pool as unavailable, so the feature degrades
// gracefully when no allocator is configured.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

// NewClient creates a pool client for the given allocator base URL.
func NewClient(baseURL string, log *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		log:     log,
	}
}

var _ Pool = (*Client)(nil)

func (c *Client) Acquire(ctx context.Context, roomID string) (*Browser, error) {
	return c.do(ctx, http.MethodPost, "/browsers", map[string]string{"room_id": roomID})
}

func (c *Client) Status(ctx context.Context, roomID string) (*Browser, error) {
	return c.do(ctx, http.MethodGet, "/browsers/"+roomID, nil)
}

func (c *Client) Release(ctx context.Context, roomID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/browsers/"+roomID, nil)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*Browser, error) {
	if c == nil {
		return nil, errs.ErrPoolUnavailable
	}
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("browser pool: %w", err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return nil, errs.ErrRoomNotFound
	case res.StatusCode >= 400:
		c.log.Warn("browser pool request failed",
			zap.String("path", path),
			zap.Int("status", res.StatusCode))
		return nil, fmt.Errorf("browser pool: status %d", res.StatusCode)
	case res.StatusCode == http.StatusNoContent:
		return nil, nil
	}
	var b Browser
	if err := json.NewDecoder(res.Body).Decode(&b); err != nil {
		return nil, fmt.Errorf("browser pool: decode: %w", err)
	}
	return &b, nil
}
