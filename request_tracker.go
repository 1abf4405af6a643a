// request_tracker.go: In-flight event tracking and graceful draining
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package constellation

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// drainPollInterval is how often WaitForDrain re-checks the counters.
const drainPollInterval = 10 * time.Millisecond

// RequestTracker counts events currently being handled by each plugin so
// shutdown can wait for lookups in progress instead of cutting them off.
type RequestTracker struct {
	activeRequests map[string]*atomic.Int64
	mu             sync.RWMutex
}

// NewRequestTracker creates a new request tracker
func NewRequestTracker() *RequestTracker {
	return &RequestTracker{
		activeRequests: make(map[string]*atomic.Int64),
	}
}

// StartRequest increments the active request counter for a plugin
func (rt *RequestTracker) StartRequest(pluginName string) {
	rt.mu.RLock()
	counter, exists := rt.activeRequests[pluginName]
	rt.mu.RUnlock()

	if !exists {
		rt.mu.Lock()
		// Double-check after acquiring write lock
		if counter, exists = rt.activeRequests[pluginName]; !exists {
			counter = &atomic.Int64{}
			rt.activeRequests[pluginName] = counter
		}
		rt.mu.Unlock()
	}

	counter.Add(1)
}

// EndRequest decrements the active request counter for a plugin
func (rt *RequestTracker) EndRequest(pluginName string) {
	rt.mu.RLock()
	counter, exists := rt.activeRequests[pluginName]
	rt.mu.RUnlock()

	if exists {
		counter.Add(-1)
	}
}

// ActiveRequestCount returns the number of active requests for a plugin
func (rt *RequestTracker) ActiveRequestCount(pluginName string) int64 {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	if counter, exists := rt.activeRequests[pluginName]; exists {
		return counter.Load()
	}
	return 0
}

// AllActiveRequests returns a map of plugin names to active request counts
func (rt *RequestTracker) AllActiveRequests() map[string]int64 {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	result := make(map[string]int64, len(rt.activeRequests))
	for pluginName, counter := range rt.activeRequests {
		result[pluginName] = counter.Load()
	}
	return result
}

// WaitForDrain blocks until pluginName has no active requests or ctx is
// done. It returns a *DrainTimeoutError in the latter case.
func (rt *RequestTracker) WaitForDrain(ctx context.Context, pluginName string) error {
	start := time.Now()
	if rt.ActiveRequestCount(pluginName) == 0 {
		return nil
	}

	ticker := time.NewTicker(drainPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return &DrainTimeoutError{
				PluginName:        pluginName,
				RemainingRequests: rt.ActiveRequestCount(pluginName),
				DrainDuration:     time.Since(start),
			}
		case <-ticker.C:
			if rt.ActiveRequestCount(pluginName) == 0 {
				return nil
			}
		}
	}
}

// DrainTimeoutError indicates that graceful draining timed out
type DrainTimeoutError struct {
	PluginName        string
	RemainingRequests int64
	DrainDuration     time.Duration
}

func (e *DrainTimeoutError) Error() string {
	return fmt.Sprintf("drain timeout for plugin %s: %d requests still active after %v",
		e.PluginName, e.RemainingRequests, e.DrainDuration)
}
