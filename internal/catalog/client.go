package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/twinbridge/twinbridge-core/internal/infrastructure/config"
	"github.com/twinbridge/twinbridge-core/internal/infrastructure/logging"
)

// apiVersion is the catalog REST API version this client speaks.
const apiVersion = "2022-07-31"

// metadataKey is the reserved key carrying per-property metadata in a
// device's property document. It is not a real attribute and is stripped.
const metadataKey = "$metadata"

// DeviceTemplate is one versioned device template from the catalog.
type DeviceTemplate struct {
	ID              string          `json:"@id"`
	Etag            string          `json:"etag"`
	DisplayName     LocalizedString `json:"displayName,omitempty"`
	Description     string          `json:"description,omitempty"`
	CapabilityModel Interface       `json:"capabilityModel"`
}

// Device is one device instance from the catalog.
type Device struct {
	ID          string `json:"id"`
	Etag        string `json:"etag"`
	DisplayName string `json:"displayName,omitempty"`
	Template    string `json:"template"`
	Enabled     bool   `json:"enabled,omitempty"`
}

// collection is the standard paged response envelope of the catalog API.
type collection[T any] struct {
	Value    []T    `json:"value"`
	NextLink string `json:"nextLink,omitempty"`
}

// Client is the catalog REST client.
//
// All methods are safe for concurrent use; the underlying HTTP client
// pools connections and retries transient failures.
type Client struct {
	http   *resty.Client
	logger *logging.Logger
}

// NewClient builds a catalog client from configuration.
//
// The bearer token is sent on every request. Timeout and retry behavior
// come from config; retries only apply to transport-level failures, not to
// non-success HTTP statuses (the orchestrator retries those on its next
// cycle anyway).
func NewClient(cfg config.CatalogConfig, logger *logging.Logger) *Client {
	http := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetAuthToken(cfg.APIToken).
		SetTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(10 * time.Second).
		SetHeader("Accept", "application/json").
		SetQueryParam("api-version", apiVersion)

	return &Client{
		http:   http,
		logger: logger.With("component", "catalog"),
	}
}

// ListDeviceTemplates fetches every device template in the catalog,
// following pagination links until exhausted.
func (c *Client) ListDeviceTemplates(ctx context.Context) ([]DeviceTemplate, error) {
	return listAll[DeviceTemplate](ctx, c, "/api/deviceTemplates")
}

// ListDevices fetches every device instance in the catalog.
func (c *Client) ListDevices(ctx context.Context) ([]Device, error) {
	return listAll[Device](ctx, c, "/api/devices")
}

// DeviceProperties fetches the current property values of one device.
// The reserved $metadata entry is stripped; remaining keys are property
// names mapped to their raw resolved values.
func (c *Client) DeviceProperties(ctx context.Context, deviceID string) (map[string]any, error) {
	var props map[string]any
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&props).
		SetPathParam("deviceID", deviceID).
		Get("/api/devices/{deviceID}/properties")
	if err != nil {
		return nil, fmt.Errorf("fetching properties for %s: %w", deviceID, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: %s for device %s", ErrUnexpectedStatus, resp.Status(), deviceID)
	}

	delete(props, metadataKey)
	return props, nil
}

// listAll pages through a collection endpoint.
func listAll[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	var all []T
	url := path

	for {
		var page collection[json.RawMessage]
		resp, err := c.http.R().
			SetContext(ctx).
			SetResult(&page).
			Get(url)
		if err != nil {
			return nil, fmt.Errorf("fetching %s: %w", path, err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("%w: %s from %s", ErrUnexpectedStatus, resp.Status(), path)
		}

		for _, raw := range page.Value {
			var item T
			if err := json.Unmarshal(raw, &item); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
			}
			all = append(all, item)
		}

		if page.NextLink == "" {
			return all, nil
		}
		url = page.NextLink
	}
}
