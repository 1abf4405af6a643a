// errors.go: structured error definitions for the constellation plugin
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package constellation

import (
	stderrors "errors"
	"fmt"
	"net/url"

	"github.com/agilira/go-errors"
)

// Error codes for the constellation plugin
const (
	// Configuration errors (1000-1099)
	ErrCodeInvalidPluginName     = "PLUGIN_1001"
	ErrCodeInvalidEndpointURL    = "PLUGIN_1004"
	ErrCodeDuplicatePluginName   = "PLUGIN_1010"
	ErrCodeInvalidTemplate       = "PLUGIN_1012"
	ErrCodeInvalidRequestTimeout = "PLUGIN_1013"

	// Plugin execution errors (1200-1299)
	ErrCodePluginNotFound         = "PLUGIN_1201"
	ErrCodePluginPanic            = "PLUGIN_1202"
	ErrCodePluginExecutionFailed  = "PLUGIN_1203"
	ErrCodePluginTimeout          = "PLUGIN_1204"
	ErrCodePluginConnectionFailed = "PLUGIN_1205"

	// Transport errors (1300-1399)
	ErrCodeGRPCTransportError = "TRANSPORT_1302"

	// Configuration management errors (1700-1799)
	ErrCodeConfigNotFound        = "CONFIG_1701"
	ErrCodeConfigParseError      = "CONFIG_1702"
	ErrCodeConfigValidationError = "CONFIG_1703"
	ErrCodeConfigWatcherError    = "CONFIG_1704"
	ErrCodeConfigFileError       = "CONFIG_1706"

	// Registry errors (1900-1999)
	ErrCodeRegistryError = "REGISTRY_1901"
	ErrCodeDrainTimeout  = "REGISTRY_1902"

	// Horoscope lookup errors (2100-2199)
	ErrCodeHoroscopeTransport  = "HOROSCOPE_2101"
	ErrCodeHoroscopeAPI        = "HOROSCOPE_2102"
	ErrCodeHoroscopeNetwork    = "HOROSCOPE_2103"
	ErrCodeHoroscopeUnexpected = "HOROSCOPE_2104"
	ErrCodeReplyFailed         = "HOROSCOPE_2105"
)

// unknownAPIError is shown when the API rejects a request without a message.
const unknownAPIError = "未知错误"

// ErrorKind classifies horoscope lookup failures.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindTransport
	KindAPI
	KindNetwork
	KindUnexpected
)

// String returns a human-readable representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindAPI:
		return "api"
	case KindNetwork:
		return "network"
	case KindUnexpected:
		return "unexpected"
	default:
		return "none"
	}
}

// Configuration error constructors

func NewInvalidPluginNameError(name string) *errors.Error {
	return errors.New(ErrCodeInvalidPluginName, "Invalid plugin name").
		WithUserMessage("Plugin name is required and cannot be empty").
		WithContext("provided_name", name).
		WithSeverity("error")
}

func NewDuplicatePluginNameError(name string) *errors.Error {
	return errors.New(ErrCodeDuplicatePluginName, "Duplicate plugin name").
		WithUserMessage("Plugin names must be unique within the dispatcher").
		WithContext("plugin_name", name).
		WithSeverity("error")
}

func NewInvalidEndpointURLError(endpoint string, cause error) *errors.Error {
	if cause != nil {
		return errors.Wrap(cause, ErrCodeInvalidEndpointURL, "Invalid endpoint URL").
			WithUserMessage("The provided endpoint URL is malformed").
			WithContext("endpoint", endpoint).
			WithSeverity("error")
	}
	return errors.New(ErrCodeInvalidEndpointURL, "Invalid endpoint URL").
		WithUserMessage("The provided endpoint URL is malformed").
		WithContext("endpoint", endpoint).
		WithSeverity("error")
}

func NewInvalidTemplateError(template string) *errors.Error {
	return errors.New(ErrCodeInvalidTemplate, "Invalid reply template").
		WithUserMessage("Template must be either \"full\" or \"summary\"").
		WithContext("template", template).
		WithSeverity("error")
}

func NewInvalidRequestTimeoutError(timeout interface{}) *errors.Error {
	return errors.New(ErrCodeInvalidRequestTimeout, "Invalid request timeout").
		WithUserMessage("Request timeout must be positive").
		WithContext("timeout", timeout).
		WithSeverity("error")
}

func NewPluginNotFoundError(name string) *errors.Error {
	return errors.New(ErrCodePluginNotFound, "Plugin not found").
		WithUserMessage("The requested plugin is not registered").
		WithContext("plugin_name", name).
		WithSeverity("error")
}

func NewPluginPanicError(name string, recovered interface{}) *errors.Error {
	return errors.New(ErrCodePluginPanic, fmt.Sprintf("Plugin panicked: %v", recovered)).
		WithUserMessage("The plugin failed while handling the message").
		WithContext("plugin_name", name).
		WithSeverity("critical")
}

func NewPluginExecutionFailedError(name string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodePluginExecutionFailed, "Plugin execution failed").
		WithUserMessage("The plugin failed to execute the requested operation").
		WithContext("plugin_name", name).
		WithSeverity("error")
}

func NewPluginTimeoutError(name string, timeout interface{}, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodePluginTimeout, "Plugin timeout").
		WithUserMessage("The plugin operation exceeded the configured timeout").
		WithContext("plugin_name", name).
		WithContext("timeout", timeout).
		WithSeverity("warning")
}

func NewPluginConnectionFailedError(name string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodePluginConnectionFailed, "Plugin connection failed").
		WithUserMessage("Failed to establish connection to the plugin").
		WithContext("plugin_name", name).
		WithSeverity("error").
		AsRetryable()
}

func NewGRPCTransportError(cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeGRPCTransportError, "gRPC transport error").
		WithUserMessage("gRPC transport operation failed").
		WithSeverity("error").
		AsRetryable()
}

func NewDrainTimeoutError(cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeDrainTimeout, "Plugin drain timed out").
		WithUserMessage("Shutdown did not wait for every in-flight message").
		WithSeverity("warning")
}

func NewRegistryError(message string, cause error) *errors.Error {
	if cause != nil {
		return errors.Wrap(cause, ErrCodeRegistryError, "Registry error: "+message).
			WithUserMessage("Plugin registry operation failed").
			WithSeverity("error")
	}
	return errors.New(ErrCodeRegistryError, "Registry error: "+message).
		WithUserMessage("Plugin registry operation failed").
		WithSeverity("error")
}

// Configuration management error constructors

func NewConfigNotFoundError(path string) *errors.Error {
	return errors.New(ErrCodeConfigNotFound, "Configuration file not found").
		WithUserMessage("The configuration file could not be found").
		WithContext("config_path", path).
		WithSeverity("error")
}

func NewConfigParseError(path string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeConfigParseError, "Configuration parse error").
		WithUserMessage("Failed to parse configuration file").
		WithContext("config_path", path).
		WithSeverity("error")
}

func NewConfigValidationError(message string, cause error) *errors.Error {
	if cause != nil {
		return errors.Wrap(cause, ErrCodeConfigValidationError, "Configuration validation error: "+message).
			WithUserMessage("Configuration validation failed").
			WithSeverity("error")
	}
	return errors.New(ErrCodeConfigValidationError, "Configuration validation error: "+message).
		WithUserMessage("Configuration validation failed").
		WithSeverity("error")
}

func NewConfigWatcherError(message string, cause error) *errors.Error {
	if cause != nil {
		return errors.Wrap(cause, ErrCodeConfigWatcherError, "Configuration watcher error: "+message).
			WithUserMessage("Configuration monitoring failed").
			WithSeverity("error")
	}
	return errors.New(ErrCodeConfigWatcherError, "Configuration watcher error: "+message).
		WithUserMessage("Configuration monitoring failed").
		WithSeverity("error")
}

func NewConfigFileError(path string, message string, cause error) *errors.Error {
	if cause != nil {
		return errors.Wrap(cause, ErrCodeConfigFileError, "Configuration file error: "+message).
			WithUserMessage("Configuration file access failed").
			WithContext("config_path", path).
			WithSeverity("error")
	}
	return errors.New(ErrCodeConfigFileError, "Configuration file error: "+message).
		WithUserMessage("Configuration file access failed").
		WithContext("config_path", path).
		WithSeverity("error")
}

// Horoscope lookup error constructors.
//
// Each constructor stores the text shown to the chat user as the user
// message, so DisplayText never has to parse Error() output.

// NewTransportError reports a non-200 answer from the horoscope API.
func NewTransportError(statusCode int) *errors.Error {
	return errors.New(ErrCodeHoroscopeTransport, fmt.Sprintf("Horoscope API returned HTTP %d", statusCode)).
		WithUserMessage(fmt.Sprintf("API请求失败: HTTP %d", statusCode)).
		WithContext("status_code", statusCode).
		WithSeverity("error")
}

// NewAPIError reports an envelope whose success flag is not set.
func NewAPIError(apiMessage string) *errors.Error {
	if apiMessage == "" {
		apiMessage = unknownAPIError
	}
	return errors.New(ErrCodeHoroscopeAPI, "Horoscope API rejected the request: "+apiMessage).
		WithUserMessage("API返回错误: "+apiMessage).
		WithContext("api_message", apiMessage).
		WithSeverity("error")
}

// NewNetworkError reports a dial, DNS, TLS or timeout failure.
func NewNetworkError(cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeHoroscopeNetwork, "Horoscope API request failed").
		WithUserMessage("网络请求错误: "+describe(cause)).
		WithSeverity("error").
		AsRetryable()
}

// NewUnexpectedError reports any other failure while processing a lookup.
func NewUnexpectedError(cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeHoroscopeUnexpected, "Horoscope response processing failed").
		WithUserMessage("处理错误: "+describe(cause)).
		WithSeverity("error")
}

// NewReplyFailedError reports that the host refused the reply.
func NewReplyFailedError(pluginName string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeReplyFailed, "Reply delivery failed").
		WithUserMessage("The reply could not be delivered to the chat").
		WithContext("plugin_name", pluginName).
		WithSeverity("warning")
}

// KindOf recovers the lookup error taxonomy from err.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var lookupErr *errors.Error
	if !stderrors.As(err, &lookupErr) {
		return KindUnexpected
	}
	switch lookupErr.Code {
	case ErrCodeHoroscopeTransport:
		return KindTransport
	case ErrCodeHoroscopeAPI:
		return KindAPI
	case ErrCodeHoroscopeNetwork:
		return KindNetwork
	default:
		return KindUnexpected
	}
}

// CodeOf returns the error code carried by err, or "" when it has none.
func CodeOf(err error) string {
	var coded *errors.Error
	if stderrors.As(err, &coded) {
		return string(coded.ErrorCode())
	}
	return ""
}

// DisplayText converts a lookup error into the text replied to the user.
func DisplayText(err error) string {
	if err == nil {
		return ""
	}
	var lookupErr *errors.Error
	if stderrors.As(err, &lookupErr) && lookupErr.UserMessage() != "" {
		return lookupErr.UserMessage()
	}
	return "处理错误: " + describe(err)
}

// describe strips the url.Error wrapper so users see the underlying cause
// instead of the full request URL.
func describe(err error) string {
	if err == nil {
		return ""
	}
	var urlErr *url.Error
	if stderrors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err.Error()
	}
	return err.Error()
}
