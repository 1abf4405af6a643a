// dispatcher.go: Host-side routing of chat events through message plugins
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package constellation

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// eventsKey names the dispatcher-wide in-flight counter.
const eventsKey = "dispatcher"

// Dispatcher delivers each inbound event to registered plugins in
// registration order until one of them stops propagation.
//
// Dispatch is safe for concurrent use; events are independent of each
// other.
//
// Example usage:
//
//	dispatcher := NewDispatcher(logger)
//	if err := dispatcher.Register(plugin); err != nil {
//	    return err
//	}
//	defer dispatcher.Shutdown(context.Background())
//
//	err := dispatcher.Dispatch(ctx, event)
type Dispatcher struct {
	mu       sync.RWMutex
	plugins  []MessagePlugin
	names    map[string]struct{}
	tracker  *RequestTracker
	events   *RequestTracker
	logger   Logger
	shutdown atomic.Bool
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(logger any) *Dispatcher {
	return &Dispatcher{
		names:   make(map[string]struct{}),
		tracker: NewRequestTracker(),
		events:  NewRequestTracker(),
		logger:  NewLogger(logger).With("component", "dispatcher"),
	}
}

// Register appends plugin to the dispatch chain.
func (d *Dispatcher) Register(plugin MessagePlugin) error {
	if d.shutdown.Load() {
		return NewRegistryError("dispatcher is shut down", nil)
	}

	name := plugin.Info().Name
	if name == "" {
		return NewInvalidPluginNameError(name)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.names[name]; exists {
		return NewDuplicatePluginNameError(name)
	}
	d.names[name] = struct{}{}
	d.plugins = append(d.plugins, plugin)

	d.logger.Info("Plugin registered", "plugin", name, "position", len(d.plugins))
	return nil
}

// Unregister removes a plugin by name and closes it.
func (d *Dispatcher) Unregister(name string) error {
	d.mu.Lock()
	var removed MessagePlugin
	for i, p := range d.plugins {
		if p.Info().Name == name {
			removed = p
			d.plugins = append(d.plugins[:i:i], d.plugins[i+1:]...)
			delete(d.names, name)
			break
		}
	}
	d.mu.Unlock()

	if removed == nil {
		return NewPluginNotFoundError(name)
	}

	d.logger.Info("Plugin unregistered", "plugin", name)
	return removed.Close()
}

// Plugins returns the registered plugin names in dispatch order.
func (d *Dispatcher) Plugins() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	names := make([]string, len(d.plugins))
	for i, p := range d.plugins {
		names[i] = p.Info().Name
	}
	return names
}

// Dispatch hands event to each plugin in turn.
//
// A request id is generated for the event and attached to the logger in
// ctx. Dispatch stops after the first plugin that stops propagation. A
// plugin error is logged and returned once the chain has been walked.
func (d *Dispatcher) Dispatch(ctx context.Context, event Event) error {
	// Counted before the shutdown check so Shutdown either rejects the
	// event or waits for the whole chain.
	d.events.StartRequest(eventsKey)
	defer d.events.EndRequest(eventsKey)

	if d.shutdown.Load() {
		return NewRegistryError("dispatcher is shut down", nil)
	}

	requestID := uuid.NewString()
	logger := LoggerFromContext(ctx, d.logger).With("request_id", requestID)
	ctx = ContextWithLogger(ctx, logger)

	d.mu.RLock()
	chain := make([]MessagePlugin, len(d.plugins))
	copy(chain, d.plugins)
	d.mu.RUnlock()

	var errs []error
	for _, p := range chain {
		name := p.Info().Name
		d.tracker.StartRequest(name)
		handled, err := safeHandleEvent(name, logger, func() (bool, error) {
			return p.HandleEvent(ctx, event)
		})
		d.tracker.EndRequest(name)
		if err != nil {
			logger.Error("Plugin failed to handle event", "plugin", name, "error", err)
			errs = append(errs, err)
		}
		if event.IsStopped() {
			logger.Debug("Event propagation stopped", "plugin", name, "handled", handled)
			break
		}
	}
	return stderrors.Join(errs...)
}

// Shutdown closes every plugin. Further Register and Dispatch calls fail.
//
// Events already being dispatched are allowed to walk the rest of the
// chain first; ctx bounds how long Shutdown waits for them. Plugins are
// closed anyway when ctx expires and a REGISTRY_1902 error is included in
// the result.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	if !d.shutdown.CompareAndSwap(false, true) {
		return nil
	}

	var errs []error
	if err := d.events.WaitForDrain(ctx, eventsKey); err != nil {
		for name, active := range d.tracker.AllActiveRequests() {
			if active > 0 {
				d.logger.Warn("Plugin did not drain before shutdown", "plugin", name, "active", active)
			}
		}
		errs = append(errs, NewDrainTimeoutError(err))
	}

	d.mu.Lock()
	plugins := d.plugins
	d.plugins = nil
	d.names = make(map[string]struct{})
	d.mu.Unlock()

	for _, p := range plugins {
		if err := p.Close(); err != nil {
			d.logger.Warn("Failed to close plugin", "plugin", p.Info().Name, "error", err)
			errs = append(errs, err)
		}
	}

	d.logger.Info("Dispatcher shutdown complete", "plugins", len(plugins))
	return stderrors.Join(errs...)
}

// ActiveRequests returns the number of events each plugin is handling.
func (d *Dispatcher) ActiveRequests() map[string]int64 {
	return d.tracker.AllActiveRequests()
}

// MessageEvent is a minimal Event for hosts that deliver plain strings.
//
// ReplyFunc receives every reply; replies are also kept and available
// through Replies.
type MessageEvent struct {
	text      string
	replyFunc func(ctx context.Context, text string) error
	stopped   atomic.Bool

	mu      sync.Mutex
	replies []string
}

// NewMessageEvent creates an event for text. replyFunc may be nil.
func NewMessageEvent(text string, replyFunc func(ctx context.Context, text string) error) *MessageEvent {
	return &MessageEvent{text: text, replyFunc: replyFunc}
}

// Text implements Event
func (e *MessageEvent) Text() string { return e.text }

// Reply implements Event
func (e *MessageEvent) Reply(ctx context.Context, text string) error {
	e.mu.Lock()
	e.replies = append(e.replies, text)
	e.mu.Unlock()

	if e.replyFunc != nil {
		return e.replyFunc(ctx, text)
	}
	return nil
}

// StopPropagation implements Event
func (e *MessageEvent) StopPropagation() { e.stopped.Store(true) }

// IsStopped implements Event
func (e *MessageEvent) IsStopped() bool { return e.stopped.Load() }

// Replies returns the replies sent so far.
func (e *MessageEvent) Replies() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.replies))
	copy(out, e.replies)
	return out
}
