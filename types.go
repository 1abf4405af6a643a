// types.go: Common data types shared by plugins and the dispatcher
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package constellation

import (
	"time"
)

// PluginStatus represents the current operational status of a plugin instance.
//
// Status levels:
//   - StatusUnknown: No lookup has completed yet
//   - StatusHealthy: The last lookup succeeded
//   - StatusDegraded: One or two lookups in a row have failed
//   - StatusUnhealthy: Three or more lookups in a row have failed
//   - StatusOffline: The plugin has been closed
type PluginStatus int

const (
	StatusUnknown PluginStatus = iota
	StatusHealthy
	StatusDegraded
	StatusUnhealthy
	StatusOffline
)

// String returns a human-readable representation of the plugin status.
func (s PluginStatus) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusUnhealthy:
		return "unhealthy"
	case StatusOffline:
		return "offline"
	default:
		return "unknown"
	}
}

// HealthStatus contains health information about a plugin instance.
//
// Fields:
//   - Status: Current operational status
//   - Message: Human-readable description of the current status
//   - LastCheck: Timestamp of when this status was determined
//   - ResponseTime: Duration of the most recent upstream call
//   - Metadata: Counters and the last error code, if any
type HealthStatus struct {
	Status       PluginStatus      `json:"status"`
	Message      string            `json:"message,omitempty"`
	LastCheck    time.Time         `json:"last_check"`
	ResponseTime time.Duration     `json:"response_time"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// PluginInfo contains metadata about a plugin instance.
//
// Example:
//
//	info := plugin.Info()
//	fmt.Printf("Plugin: %s v%s by %s\n", info.Name, info.Version, info.Author)
type PluginInfo struct {
	Name         string            `json:"name"`
	Version      string            `json:"version"`
	Description  string            `json:"description,omitempty"`
	Author       string            `json:"author,omitempty"`
	Capabilities []string          `json:"capabilities,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// ExecutionContext carries request-scoped metadata into a plugin call.
//
// RequestID is assigned by the dispatcher for every inbound message and is
// attached to every log line written while the message is processed.
type ExecutionContext struct {
	RequestID string            `json:"request_id"`
	Timeout   time.Duration     `json:"timeout"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// MessageRequest is an inbound chat message stripped of host details.
type MessageRequest struct {
	Text string `json:"text"`
}

// MessageReply is the outcome of handling a MessageRequest.
//
// Handled is true when the plugin claimed the message; in that case Text is
// the reply and the host must not pass the message to other plugins.
type MessageReply struct {
	Handled bool   `json:"handled"`
	Text    string `json:"text,omitempty"`
}
