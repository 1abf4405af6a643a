// logging_test.go: logging interface tests
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package constellation

import (
	"context"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestLogger_BasicMessageCapture tests the core logging functionality
// Covers: Debug(), Info(), Warn(), Error() message capture
func TestLogger_BasicMessageCapture(t *testing.T) {
	tests := []struct {
		name    string
		logFunc func(*TestLogger, string, ...any)
		level   string
		message string
		args    []any
	}{
		{
			name:    "Debug_SimpleMessage",
			logFunc: (*TestLogger).Debug,
			level:   "DEBUG",
			message: "debug message",
		},
		{
			name:    "Info_SimpleMessage",
			logFunc: (*TestLogger).Info,
			level:   "INFO",
			message: "info message",
		},
		{
			name:    "Warn_SimpleMessage",
			logFunc: (*TestLogger).Warn,
			level:   "WARN",
			message: "warn message",
		},
		{
			name:    "Error_SimpleMessage",
			logFunc: (*TestLogger).Error,
			level:   "ERROR",
			message: "error message",
		},
		{
			name:    "Info_WithStructuredArgs",
			logFunc: (*TestLogger).Info,
			level:   "INFO",
			message: "Horoscope request received",
			args:    []any{"keyword", "白羊座", "plugin", PluginName},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewTestLogger()

			tt.logFunc(logger, tt.message, tt.args...)

			messages := logger.Messages()
			if len(messages) != 1 {
				t.Fatalf("Expected 1 message, got %d", len(messages))
			}

			msg := messages[0]
			if msg.Level != tt.level {
				t.Errorf("Expected level %s, got %s", tt.level, msg.Level)
			}
			if msg.Message != tt.message {
				t.Errorf("Expected message %s, got %s", tt.message, msg.Message)
			}
			if len(msg.Args) != len(tt.args) {
				t.Fatalf("Expected %d args, got %d", len(tt.args), len(msg.Args))
			}
			for i, arg := range tt.args {
				if msg.Args[i] != arg {
					t.Errorf("Arg[%d]: expected %v, got %v", i, arg, msg.Args[i])
				}
			}
		})
	}
}

// TestLogger_TestUtilities tests HasMessage(), Find() and Clear()
func TestLogger_TestUtilities(t *testing.T) {
	t.Run("HasMessage_MessageExistsAndMissing", func(t *testing.T) {
		logger := NewTestLogger()
		logger.Info("Horoscope request received", "keyword", "金牛座")
		logger.Error("Horoscope lookup failed")

		if !logger.HasMessage("INFO", "Horoscope request received") {
			t.Error("Expected to find INFO message")
		}
		if !logger.HasMessage("ERROR", "Horoscope lookup failed") {
			t.Error("Expected to find ERROR message")
		}
		if logger.HasMessage("WARN", "Horoscope request received") {
			t.Error("Expected NOT to find INFO message with WARN level")
		}
		if logger.HasMessage("INFO", "nonexistent message") {
			t.Error("Expected NOT to find nonexistent message")
		}
	})

	t.Run("Find_ReturnsArgs", func(t *testing.T) {
		logger := NewTestLogger()
		logger.Info("Horoscope request received", "keyword", "金牛座", "dangling")

		msg, ok := logger.Find("INFO", "Horoscope request received")
		if !ok {
			t.Fatal("Expected to find message")
		}
		if v, ok := msg.Arg("keyword"); !ok || v != "金牛座" {
			t.Errorf("Expected keyword 金牛座, got %v (found=%v)", v, ok)
		}
		if _, ok := msg.Arg("dangling"); ok {
			t.Error("A key without a value must not be reported")
		}
		if _, ok := logger.Find("DEBUG", "Horoscope request received"); ok {
			t.Error("Expected Find to respect the level")
		}
	})

	t.Run("Clear_RemovesAllMessages", func(t *testing.T) {
		logger := NewTestLogger()
		logger.Info("message 1")
		logger.Warn("message 2")

		logger.Clear()

		if n := len(logger.Messages()); n != 0 {
			t.Errorf("Expected 0 messages after clear, got %d", n)
		}
		if logger.HasMessage("INFO", "message 1") {
			t.Error("Expected HasMessage to return false after clear")
		}
	})
}

// TestLogger_WithMethod tests the With() context chaining functionality
func TestLogger_WithMethod(t *testing.T) {
	t.Run("With_SharesStoreAndPrependsFields", func(t *testing.T) {
		root := NewTestLogger()
		child := root.With("plugin", PluginName)
		grandchild := child.With("request_id", "req-1")

		grandchild.Info("Horoscope request received", "keyword", "白羊座")

		msg, ok := root.Find("INFO", "Horoscope request received")
		if !ok {
			t.Fatal("Expected child messages to be visible through the root logger")
		}
		want := []any{"plugin", PluginName, "request_id", "req-1", "keyword", "白羊座"}
		if len(msg.Args) != len(want) {
			t.Fatalf("Expected args %v, got %v", want, msg.Args)
		}
		for i := range want {
			if msg.Args[i] != want[i] {
				t.Errorf("Arg[%d]: expected %v, got %v", i, want[i], msg.Args[i])
			}
		}
	})

	t.Run("With_DoesNotLeakFieldsToParent", func(t *testing.T) {
		root := NewTestLogger()
		_ = root.With("plugin", PluginName)

		root.Info("plain")

		msg, _ := root.Find("INFO", "plain")
		if len(msg.Args) != 0 {
			t.Errorf("Expected parent args to stay empty, got %v", msg.Args)
		}
	})
}

// TestLogger_ContextIntegration tests context-based logger functions
func TestLogger_ContextIntegration(t *testing.T) {
	t.Run("ContextWithLogger_AndLoggerFromContext", func(t *testing.T) {
		testLogger := NewTestLogger()
		ctx := ContextWithLogger(context.Background(), testLogger)

		extracted := LoggerFromContext(ctx, nil)
		if extracted != testLogger {
			t.Error("LoggerFromContext should return the same logger instance")
		}

		extracted.Info("context propagated message")
		if !testLogger.HasMessage("INFO", "context propagated message") {
			t.Error("Expected to find context propagated message")
		}
	})

	t.Run("LoggerFromContext_Fallbacks", func(t *testing.T) {
		fallback := NewTestLogger()
		if got := LoggerFromContext(context.Background(), fallback); got != fallback {
			t.Error("Expected the fallback logger when the context has none")
		}
		if got := LoggerFromContext(context.Background(), nil); got == nil {
			t.Error("LoggerFromContext should never return nil")
		}
	})

	t.Run("ContextWithLogger_NilLoggerHandledCorrectly", func(t *testing.T) {
		ctx := ContextWithLogger(context.Background(), nil)
		if LoggerFromContext(ctx, nil) == nil {
			t.Error("LoggerFromContext should handle nil gracefully")
		}
	})
}

// TestLogger_Factory tests NewLogger and the zap adapter
func TestLogger_Factory(t *testing.T) {
	t.Run("NewLogger_HandlesSupportedTypes", func(t *testing.T) {
		testLogger := NewTestLogger()
		if NewLogger(testLogger) != testLogger {
			t.Error("NewLogger should return same instance for Logger interface")
		}

		if _, ok := NewLogger(nil).(*NoOpLogger); !ok {
			t.Error("NewLogger should return NoOpLogger for nil input")
		}

		if _, ok := NewLogger(zap.NewNop()).(*ZapAdapter); !ok {
			t.Error("NewLogger should wrap *zap.Logger in a ZapAdapter")
		}
	})

	t.Run("NewLogger_PanicsOnUnsupportedType", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("Expected NewLogger to panic on unsupported type")
			}
		}()
		NewLogger("not a logger")
	})

	t.Run("ZapAdapter_WritesStructuredFields", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		logger := NewLogger(zap.New(core)).With("plugin", PluginName)

		logger.Debug("debug", "n", 1)
		logger.Info("Horoscope request received", "keyword", "白羊座")
		logger.Warn("warn")
		logger.Error("Horoscope lookup failed", "error_kind", "network")

		if logs.Len() != 4 {
			t.Fatalf("Expected 4 entries, got %d", logs.Len())
		}

		entry := logs.FilterMessage("Horoscope request received").All()[0]
		if entry.Level != zapcore.InfoLevel {
			t.Errorf("Expected info level, got %v", entry.Level)
		}
		fields := entry.ContextMap()
		if fields["plugin"] != PluginName || fields["keyword"] != "白羊座" {
			t.Errorf("Unexpected fields: %v", fields)
		}

		if logs.FilterMessage("Horoscope lookup failed").All()[0].Level != zapcore.ErrorLevel {
			t.Error("Expected error level for Error()")
		}
	})

	t.Run("NewProductionLogger", func(t *testing.T) {
		logger, err := NewProductionLogger("warn")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		logger.Info("suppressed")
		_ = logger.Sync()

		if _, err := NewProductionLogger("verbose"); err == nil {
			t.Error("Expected an error for an unknown level")
		}
	})

	t.Run("NoOpLogger_DoesNotPanic", func(t *testing.T) {
		logger := DefaultLogger()
		logger.Debug("debug message")
		logger.Info("info message")
		logger.Warn("warn message")
		logger.Error("error message")
		if logger.With("component", "default") == nil {
			t.Error("DefaultLogger.With() should return non-nil logger")
		}
	})
}

// TestLogger_ThreadSafety tests concurrent access to TestLogger
func TestLogger_ThreadSafety(t *testing.T) {
	logger := NewTestLogger()
	numGoroutines := 50
	messagesPerGoroutine := 20

	var wg sync.WaitGroup
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(goroutineID int) {
			defer wg.Done()
			child := logger.With("goroutine", goroutineID)
			for j := 0; j < messagesPerGoroutine; j++ {
				switch j % 4 {
				case 0:
					child.Debug("debug message", "iteration", j)
				case 1:
					child.Info("info message", "iteration", j)
				case 2:
					child.Warn("warn message", "iteration", j)
				case 3:
					child.Error("error message", "iteration", j)
				}
			}
		}(i)
	}
	wg.Wait()

	if n := len(logger.Messages()); n != numGoroutines*messagesPerGoroutine {
		t.Errorf("Expected %d total messages, got %d", numGoroutines*messagesPerGoroutine, n)
	}
}
