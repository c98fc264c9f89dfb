// Package driverclient is the Go client the driver terminal uses against the
// parcel API. Mutating calls distinguish transport failures, which callers
// may queue for replay, from server-side rejections, which must surface to
// the driver immediately.
package driverclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	shipmenthttpmapper "github.com/parceltrack/parcel-api-server/internal/domains/shipments/adapters/http/mapper"
	usersdomain "github.com/parceltrack/parcel-api-server/internal/domains/users/domain"
)

const (
	headerActorID        = "X-Actor-Id"
	headerActorRole      = "X-Actor-Role"
	headerIdempotencyKey = "X-Idempotency-Key"
)

// APIError is an authoritative rejection from the server: the request was
// delivered and refused. It must never be retried blindly.
type APIError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// envelope mirrors the server's response shape.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Client calls the parcel API as one driver.
type Client struct {
	baseURL    string
	driverID   string
	httpClient *http.Client
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// New creates a client for the given API base URL acting as driverID.
func New(baseURL, driverID string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		driverID:   driverID,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DriverID returns the identity the client acts as.
func (c *Client) DriverID() string {
	return c.driverID
}

// MyShipments lists the shipments assigned to this driver.
func (c *Client) MyShipments(ctx context.Context, status string) ([]shipmenthttpmapper.Shipment, error) {
	path := "/shipments/driver/my"
	if status != "" {
		path += "?status=" + status
	}
	data, err := c.Do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}
	var shipments []shipmenthttpmapper.Shipment
	if err := json.Unmarshal(data, &shipments); err != nil {
		return nil, fmt.Errorf("decode shipments: %w", err)
	}
	return shipments, nil
}

// GetShipment fetches one shipment with full history.
func (c *Client) GetShipment(ctx context.Context, id string) (*shipmenthttpmapper.Shipment, error) {
	data, err := c.Do(ctx, http.MethodGet, "/shipments/"+id, nil, "")
	if err != nil {
		return nil, err
	}
	var shipment shipmenthttpmapper.Shipment
	if err := json.Unmarshal(data, &shipment); err != nil {
		return nil, fmt.Errorf("decode shipment: %w", err)
	}
	return &shipment, nil
}

// UpdateStatus applies one status transition.
func (c *Client) UpdateStatus(ctx context.Context, id string, req shipmenthttpmapper.UpdateStatusRequest, idempotencyKey string) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode status update: %w", err)
	}
	_, err = c.Do(ctx, http.MethodPut, "/shipments/"+id+"/status", body, idempotencyKey)
	return err
}

// Deliver completes a delivery with optional code and evidence.
func (c *Client) Deliver(ctx context.Context, id string, req shipmenthttpmapper.DeliverRequest, idempotencyKey string) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode delivery: %w", err)
	}
	_, err = c.Do(ctx, http.MethodPost, "/shipments/"+id+"/deliver", body, idempotencyKey)
	return err
}

// Healthz reports whether the API is reachable. Any error means offline.
func (c *Client) Healthz(ctx context.Context) error {
	_, err := c.Do(ctx, http.MethodGet, "/healthz", nil, "")
	return err
}

// Do performs one request and returns the envelope's data payload. A non-nil
// error is either an *APIError (the server answered and refused) or a
// transport error (the server was never reached, or the response was
// unreadable).
func (c *Client) Do(ctx context.Context, method, path string, body []byte, idempotencyKey string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(headerActorID, c.driverID)
	req.Header.Set(headerActorRole, string(usersdomain.RoleDriver))
	if idempotencyKey != "" {
		req.Header.Set(headerIdempotencyKey, idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode response for %s %s: %w", method, path, err)
	}
	if resp.StatusCode >= 400 || !env.Success {
		return nil, &APIError{Status: resp.StatusCode, Message: env.Message}
	}
	return env.Data, nil
}
