// http_transport.go: HTTP client for the horoscope API
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package constellation

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 1 << 20

var errClientClosed = stderrors.New("horoscope client is closed")

// HoroscopeClient fetches and formats daily horoscopes.
//
// A single client owns one pooled *http.Client and is safe for concurrent
// use. Each call makes exactly one request; there are no retries.
//
// Example usage:
//
//	client, err := NewHoroscopeClient(DefaultConfig(), logger)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	reply := client.Lookup(ctx, "aries")
type HoroscopeClient struct {
	endpoint  *url.URL
	userAgent string
	client    *http.Client
	transport *http.Transport
	template  atomic.Pointer[Template]
	stats     *lookupStats
	logger    Logger

	closed atomic.Bool
	mu     sync.Mutex
}

// NewHoroscopeClient builds a client from config. The config is validated
// first.
func NewHoroscopeClient(config Config, logger any) (*HoroscopeClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	endpoint, err := url.Parse(config.Endpoint)
	if err != nil {
		return nil, NewInvalidEndpointURLError(config.Endpoint, err)
	}
	tmpl, err := ParseTemplate(config.Template)
	if err != nil {
		return nil, err
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   config.Connection.ConnectionTimeout.Std(),
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        config.Connection.MaxIdleConnections,
		MaxIdleConnsPerHost: config.Connection.MaxIdleConnections,
		IdleConnTimeout:     config.Connection.IdleTimeout.Std(),
		DisableCompression:  config.Connection.DisableCompression,
		ForceAttemptHTTP2:   true,
	}

	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	c := &HoroscopeClient{
		endpoint:  endpoint,
		userAgent: userAgent,
		client: &http.Client{
			Transport: transport,
			Timeout:   config.Connection.RequestTimeout.Std(),
		},
		transport: transport,
		stats:     newLookupStats(),
		logger:    NewLogger(logger),
	}
	c.template.Store(&tmpl)
	return c, nil
}

// Template returns the template currently used by Lookup.
func (c *HoroscopeClient) Template() Template {
	return *c.template.Load()
}

// SetTemplate switches the reply template for subsequent lookups.
func (c *HoroscopeClient) SetTemplate(t Template) {
	c.template.Store(&t)
}

// Lookup fetches today's horoscope for code and renders it.
//
// Lookup never fails: every error is logged and turned into the text that
// should be replied to the user.
func (c *HoroscopeClient) Lookup(ctx context.Context, code string) string {
	logger := LoggerFromContext(ctx, c.logger)
	tmpl := c.Template()

	h, err := c.fetch(ctx, code, tmpl)
	if err != nil {
		reply := DisplayText(err)
		logger.Error("Horoscope lookup failed",
			"zodiac_code", code,
			"error_code", CodeOf(err),
			"error_kind", KindOf(err).String(),
			"error", err,
			"reply", reply)
		return reply
	}

	logger.Debug("Horoscope lookup succeeded", "zodiac_code", code, "template", string(tmpl))
	return tmpl.Render(h)
}

// Fetch performs one request for code and returns the decoded reading.
//
// Errors are *errors.Error values; use KindOf to classify them and
// DisplayText to render them.
func (c *HoroscopeClient) Fetch(ctx context.Context, code string) (*Horoscope, error) {
	return c.fetch(ctx, code, c.Template())
}

func (c *HoroscopeClient) fetch(ctx context.Context, code string, tmpl Template) (*Horoscope, error) {
	start := time.Now()
	h, err := c.doFetch(ctx, code, tmpl)
	c.stats.record(err, time.Since(start))
	return h, err
}

func (c *HoroscopeClient) doFetch(ctx context.Context, code string, tmpl Template) (*Horoscope, error) {
	if c.closed.Load() {
		return nil, NewUnexpectedError(errClientClosed)
	}

	req, err := c.newRequest(ctx, code)
	if err != nil {
		return nil, NewUnexpectedError(err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, NewNetworkError(err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, NewTransportError(resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, NewNetworkError(err)
	}

	var envelope HoroscopeEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, NewUnexpectedError(fmt.Errorf("decode response: %w", err))
	}

	if !envelope.Succeeded() {
		return nil, NewAPIError(envelope.Message.Value)
	}

	if missing := envelope.Data.MissingField(tmpl.RequiresNarrative()); missing != "" {
		return nil, NewUnexpectedError(fmt.Errorf("missing field %s", missing)).
			WithContext("missing_field", missing)
	}
	return envelope.Data, nil
}

func (c *HoroscopeClient) newRequest(ctx context.Context, code string) (*http.Request, error) {
	u := *c.endpoint
	q := u.Query()
	q.Set("type", code)
	q.Set("time", "today")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	return req, nil
}

// Health reports the outcome of recent lookups.
func (c *HoroscopeClient) Health() HealthStatus {
	if c.closed.Load() {
		status := c.stats.snapshot()
		status.Status = StatusOffline
		status.Message = "client closed"
		return status
	}
	return c.stats.snapshot()
}

// Close releases pooled connections. It is idempotent.
func (c *HoroscopeClient) Close() error {
	c.release()
	return nil
}

// release closes the client and reports whether this call did so.
func (c *HoroscopeClient) release() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed.CompareAndSwap(false, true) {
		return false
	}
	if c.transport != nil {
		c.transport.CloseIdleConnections()
	}
	return true
}
