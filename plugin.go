// plugin.go: Core plugin and host event interfaces
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package constellation

import (
	"context"
)

// Plugin represents a generic plugin that can process requests of type Req and return responses of type Resp
// This interface is transport-agnostic: the same plugin can be driven by a chat host or an RPC server
type Plugin[Req, Resp any] interface {
	// Info returns metadata about the plugin
	Info() PluginInfo

	// Execute processes a request and returns a response
	// Context should be honored for timeouts and cancellation
	Execute(ctx context.Context, execCtx ExecutionContext, request Req) (Resp, error)

	// Health returns the plugin's current health
	Health(ctx context.Context) HealthStatus

	// Close releases resources held by the plugin
	// Should be idempotent (safe to call multiple times)
	Close() error
}

// Event is an inbound chat message as delivered by the host bot framework.
//
// Implementations wrap the host's native event type. Reply sends a single
// plain-text message back to the conversation the event came from, and
// StopPropagation prevents other plugins from seeing the same event.
type Event interface {
	// Text returns the raw message body
	Text() string

	// Reply sends a plain-text reply through the host
	Reply(ctx context.Context, text string) error

	// StopPropagation marks the event as consumed
	StopPropagation()

	// IsStopped reports whether StopPropagation has been called
	IsStopped() bool
}

// MessagePlugin is a plugin that reacts to host events.
//
// HandleEvent returns true when the plugin claimed the event. A plugin that
// claims an event is responsible for calling StopPropagation itself.
type MessagePlugin interface {
	Info() PluginInfo
	HandleEvent(ctx context.Context, event Event) (bool, error)
	Close() error
}
