// Package inventory resolves response metadata for a stream identity via
// the FDSN station web service, caching results by streamId for the
// lifetime of the process (§4.G step 1, §6).
package inventory

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"
)

const requestTimeout = 30 * time.Second

// For testing: allow overriding the HTTP client, matching the injectable
// httpClient/endpoint pattern used for the release checker this package is
// adapted from.
var httpClient = &http.Client{Timeout: requestTimeout}

// Inventory is the parsed response-metadata document. The actual
// StationXML schema is an external library's concern (§1 "assumed to
// exist as a black box"); this package only needs enough to drive PSD
// gain correction, modeled opaquely here with the raw bytes retained.
type Inventory struct {
	Network  string
	Station  string
	Location string
	Channel  string
	Raw      []byte
}

// Parser decodes a station web service response body into an Inventory.
// Supplied by the caller: no StationXML parsing library is in scope here.
type Parser func(body []byte) (Inventory, error)

// Client looks up and caches response metadata by streamId.
type Client struct {
	baseAddress string
	parse       Parser

	// HTTPClient defaults to the package-level client but may be
	// overridden per instance, e.g. by tests.
	HTTPClient *http.Client

	mu    sync.Mutex
	cache map[string]Inventory
}

// NewClient builds a Client for the configured FDSN_STATION_ADDRESS base
// URL, using parse to decode response bodies.
func NewClient(baseAddress string, parse Parser) *Client {
	return &Client{
		baseAddress: baseAddress,
		parse:       parse,
		HTTPClient:  httpClient,
		cache:       make(map[string]Inventory),
	}
}

// Seed pre-populates the cache for a streamId, letting a caller (or test)
// bypass the HTTP round trip entirely.
func (c *Client) Seed(streamID string, inv Inventory) {
	c.mu.Lock()
	c.cache[streamID] = inv
	c.mu.Unlock()
}

// Resolve fetches (or returns the cached) Inventory for a stream. loc is
// rendered as "--" when empty, per §6.
func (c *Client) Resolve(streamID, network, station, location, channel string) (Inventory, error) {
	c.mu.Lock()
	if cached, ok := c.cache[streamID]; ok {
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	loc := location
	if loc == "" {
		loc = "--"
	}
	reqURL := fmt.Sprintf("%s?net=%s&sta=%s&loc=%s&cha=%s&level=response",
		c.baseAddress, url.QueryEscape(network), url.QueryEscape(station), url.QueryEscape(loc), url.QueryEscape(channel))

	client := c.HTTPClient
	if client == nil {
		client = httpClient
	}
	resp, err := client.Get(reqURL)
	if err != nil {
		return Inventory{}, fmt.Errorf("inventory: request %s: %w", reqURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Inventory{}, fmt.Errorf("inventory: %s returned status %d", reqURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Inventory{}, fmt.Errorf("inventory: reading response body: %w", err)
	}

	inv, err := c.parse(body)
	if err != nil {
		return Inventory{}, fmt.Errorf("inventory: parsing response: %w", err)
	}

	c.mu.Lock()
	c.cache[streamID] = inv
	c.mu.Unlock()
	return inv, nil
}
