// config_loader.go: Configuration file loading and hot reload powered by Argus
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package constellation

import (
	"bytes"
	"encoding/json"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/agilira/argus"
	"gopkg.in/yaml.v3"
)

// LoadConfig reads a JSON or YAML configuration file, expands environment
// variables, applies it over DefaultConfig and validates the result.
//
// The format is detected from the file extension.
func LoadConfig(path string) (Config, error) {
	return LoadConfigWithEnv(path, DefaultEnvConfigOptions())
}

// LoadConfigWithEnv is LoadConfig with explicit environment options.
func LoadConfigWithEnv(path string, envOptions EnvConfigOptions) (Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is operator supplied
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, NewConfigNotFoundError(path)
		}
		return Config{}, NewConfigFileError(path, "failed to read config file", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return Config{}, NewConfigFileError(path, "config file is empty", nil)
	}

	expanded, err := ExpandEnvironmentVariables(string(data), envOptions)
	if err != nil {
		return Config{}, NewConfigParseError(path, err)
	}

	config, err := ParseConfig([]byte(expanded), argus.DetectFormat(path))
	if err != nil {
		return Config{}, NewConfigParseError(path, err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// ParseConfig decodes data in the given format on top of DefaultConfig.
func ParseConfig(data []byte, format argus.ConfigFormat) (Config, error) {
	config := DefaultConfig()

	var err error
	switch format {
	case argus.FormatJSON:
		err = json.Unmarshal(data, &config)
	case argus.FormatYAML:
		err = yaml.Unmarshal(data, &config)
	default:
		return Config{}, NewConfigValidationError("unsupported config format: "+format.String(), nil)
	}
	if err != nil {
		return Config{}, err
	}
	return config, nil
}

// ConfigWatcher reloads the configuration file when it changes and hands
// every valid new configuration to a callback.
//
// Invalid files are logged and ignored; the last good configuration stays
// in effect.
//
// Example:
//
//	watcher := NewConfigWatcher("constellation.yaml", plugin.ApplyConfig, logger)
//	if err := watcher.Start(); err != nil {
//	    return err
//	}
//	defer watcher.Stop()
type ConfigWatcher struct {
	watcher    *argus.Watcher
	configPath string
	onChange   func(Config) error
	logger     Logger

	current atomic.Pointer[Config]
	running atomic.Bool
	stopped atomic.Bool
	mu      sync.Mutex
}

// ConfigWatcherOptions tunes the Argus polling behaviour.
type ConfigWatcherOptions struct {
	PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval"`
	CacheTTL     time.Duration `json:"cache_ttl" yaml:"cache_ttl"`
}

// DefaultConfigWatcherOptions returns defaults suited to a rarely edited file.
func DefaultConfigWatcherOptions() ConfigWatcherOptions {
	return ConfigWatcherOptions{
		PollInterval: 2 * time.Second,
		CacheTTL:     1 * time.Second,
	}
}

// NewConfigWatcher creates a watcher for configPath with default options.
func NewConfigWatcher(configPath string, onChange func(Config) error, logger any) *ConfigWatcher {
	return NewConfigWatcherWithOptions(configPath, onChange, DefaultConfigWatcherOptions(), logger)
}

// NewConfigWatcherWithOptions creates a watcher for configPath.
func NewConfigWatcherWithOptions(configPath string, onChange func(Config) error, options ConfigWatcherOptions, logger any) *ConfigWatcher {
	internalLogger := NewLogger(logger).With("component", "config_watcher")

	argusConfig := argus.Config{
		PollInterval:         options.PollInterval,
		CacheTTL:             options.CacheTTL,
		MaxWatchedFiles:      1,
		OptimizationStrategy: argus.OptimizationSingleEvent,
		ErrorHandler: func(err error, filepath string) {
			internalLogger.Error("Config file watching error", "error", err, "file", filepath)
		},
	}

	return &ConfigWatcher{
		watcher:    argus.New(argusConfig),
		configPath: configPath,
		onChange:   onChange,
		logger:     internalLogger,
	}
}

// Start loads the file once, applies it, then begins watching.
func (cw *ConfigWatcher) Start() error {
	if cw.stopped.Load() {
		return NewConfigWatcherError("config watcher has been stopped and cannot be restarted", nil)
	}

	cw.mu.Lock()
	defer cw.mu.Unlock()

	if !cw.running.CompareAndSwap(false, true) {
		return NewConfigWatcherError("config watcher is already running", nil)
	}

	initial, err := LoadConfig(cw.configPath)
	if err != nil {
		cw.running.Store(false)
		return err
	}
	if err := cw.apply(initial); err != nil {
		cw.running.Store(false)
		return NewConfigWatcherError("failed to apply initial configuration", err)
	}

	if err := cw.watcher.Watch(cw.configPath, cw.handleConfigChange); err != nil {
		cw.running.Store(false)
		return NewConfigWatcherError("failed to watch config file", err)
	}
	if err := cw.watcher.Start(); err != nil {
		cw.running.Store(false)
		return NewConfigWatcherError("failed to start file watcher", err)
	}

	cw.logger.Info("Config watcher started", "config_path", cw.configPath)
	return nil
}

// Stop stops watching. It is safe to call more than once.
func (cw *ConfigWatcher) Stop() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if !cw.stopped.CompareAndSwap(false, true) {
		return nil
	}
	if !cw.running.CompareAndSwap(true, false) {
		return nil
	}

	if err := cw.watcher.Stop(); err != nil {
		return NewConfigWatcherError("failed to stop file watcher", err)
	}
	cw.logger.Info("Config watcher stopped", "config_path", cw.configPath)
	return nil
}

// Current returns the last applied configuration, or nil before Start.
func (cw *ConfigWatcher) Current() *Config {
	return cw.current.Load()
}

func (cw *ConfigWatcher) apply(config Config) error {
	if cw.onChange != nil {
		if err := cw.onChange(config); err != nil {
			return err
		}
	}
	cw.current.Store(&config)
	return nil
}

func (cw *ConfigWatcher) handleConfigChange(event argus.ChangeEvent) {
	if event.IsDelete {
		cw.logger.Warn("Config file was deleted, keeping current configuration", "path", event.Path)
		return
	}

	config, err := LoadConfig(cw.configPath)
	if err != nil {
		cw.logger.Error("Failed to reload configuration", "error", err, "path", event.Path)
		return
	}
	if err := cw.apply(config); err != nil {
		cw.logger.Error("Failed to apply reloaded configuration", "error", err, "path", event.Path)
		return
	}

	cw.logger.Info("Configuration reloaded", "path", event.Path, "template", config.Template)
}
