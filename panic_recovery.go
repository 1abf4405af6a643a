// panic_recovery.go: Panic isolation for plugin handlers
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package constellation

import (
	"runtime"
)

// stackBufferSize bounds the stack trace captured for a recovered panic.
const stackBufferSize = 64 << 10

// RecoveryHandler defines the signature for panic recovery handlers.
type RecoveryHandler func(recovered interface{}, stack []byte)

// withCustomRecoveryHandler returns a function that, when deferred,
// recovers a panic and hands it to handler together with the stack trace.
//
// Example usage:
//
//	func() {
//	    defer withCustomRecoveryHandler(handler)()
//	    // potentially panicking code
//	}()
func withCustomRecoveryHandler(handler RecoveryHandler) func() {
	return func() {
		if r := recover(); r != nil {
			buf := make([]byte, stackBufferSize)
			n := runtime.Stack(buf, false)
			handler(r, buf[:n])
		}
	}
}

// safeHandleEvent runs call, a plugin's HandleEvent, and turns a panic into a
// PLUGIN_1202 error.
func safeHandleEvent(name string, logger Logger, call func() (bool, error)) (handled bool, err error) {
	defer withCustomRecoveryHandler(func(recovered interface{}, stack []byte) {
		logger.Error("Panic recovered in plugin handler",
			"plugin", name,
			"panic", recovered,
			"stack", string(stack))
		handled = false
		err = NewPluginPanicError(name, recovered)
	})()

	return call()
}
