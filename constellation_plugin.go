// constellation_plugin.go: The zodiac horoscope message plugin
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package constellation

import (
	"context"
	"strings"
)

// UnsupportedZodiacReply is sent when a message has the shape of a sign name
// but names no known sign.
const UnsupportedZodiacReply = "暂不支持该星座查询，请输入正确的星座名称如'白羊座'"

// ConstellationPlugin answers zodiac sign names with today's horoscope.
//
// It implements both Plugin[MessageRequest, MessageReply] and MessagePlugin.
// The HTTP client is created by NewConstellationPlugin and released by Close.
type ConstellationPlugin struct {
	client *HoroscopeClient
	logger Logger
	info   PluginInfo
}

// NewConstellationPlugin creates the plugin and its HTTP client.
func NewConstellationPlugin(config Config, logger any) (*ConstellationPlugin, error) {
	internalLogger := NewLogger(logger).With("plugin", PluginName)

	client, err := NewHoroscopeClient(config, internalLogger)
	if err != nil {
		return nil, err
	}

	p := &ConstellationPlugin{
		client: client,
		logger: internalLogger,
		info: PluginInfo{
			Name:         PluginName,
			Version:      PluginVersion,
			Description:  "星座运势查询插件",
			Author:       "AstroDev",
			Capabilities: []string{"horoscope", "zodiac"},
			Metadata: map[string]string{
				"endpoint": config.Endpoint,
			},
		},
	}

	internalLogger.Info("Constellation plugin started",
		"endpoint", config.Endpoint,
		"template", client.Template())
	return p, nil
}

// Info implements Plugin.Info
func (p *ConstellationPlugin) Info() PluginInfo {
	info := p.info
	info.Metadata = map[string]string{
		"endpoint": p.info.Metadata["endpoint"],
		"template": string(p.client.Template()),
	}
	return info
}

// Respond runs the matcher and, on a match, the lookup.
//
// text is trimmed before matching. The returned reply has Handled set
// exactly when the trimmed text matched the keyword pattern.
func (p *ConstellationPlugin) Respond(ctx context.Context, text string) MessageReply {
	content := strings.TrimSpace(text)
	if !MatchKeyword(content) {
		return MessageReply{}
	}

	logger := LoggerFromContext(ctx, p.logger)
	logger.Info("Horoscope request received", "keyword", content)

	code, ok := LookupZodiac(content)
	if !ok {
		logger.Info("Unsupported zodiac sign", "keyword", content)
		return MessageReply{Handled: true, Text: UnsupportedZodiacReply}
	}

	return MessageReply{Handled: true, Text: p.client.Lookup(ctx, code)}
}

// HandleEvent implements MessagePlugin.
//
// On a match the reply is sent and propagation is stopped, even if sending
// the reply fails. Unmatched events are left untouched.
func (p *ConstellationPlugin) HandleEvent(ctx context.Context, event Event) (bool, error) {
	reply := p.Respond(ctx, event.Text())
	if !reply.Handled {
		return false, nil
	}
	defer event.StopPropagation()

	if err := event.Reply(ctx, reply.Text); err != nil {
		LoggerFromContext(ctx, p.logger).Warn("Failed to send reply", "error", err)
		return true, NewReplyFailedError(PluginName, err)
	}
	return true, nil
}

// Execute implements Plugin.Execute
func (p *ConstellationPlugin) Execute(ctx context.Context, execCtx ExecutionContext, request MessageRequest) (MessageReply, error) {
	if execCtx.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, execCtx.Timeout)
		defer cancel()
	}
	if execCtx.RequestID != "" {
		ctx = ContextWithLogger(ctx, LoggerFromContext(ctx, p.logger).With("request_id", execCtx.RequestID))
	}
	return p.Respond(ctx, request.Text), nil
}

// Health implements Plugin.Health
func (p *ConstellationPlugin) Health(ctx context.Context) HealthStatus {
	return p.client.Health()
}

// ApplyConfig applies a reloaded configuration.
//
// Only the template can change at runtime; endpoint and connection
// settings are fixed for the lifetime of the HTTP client.
func (p *ConstellationPlugin) ApplyConfig(config Config) error {
	if err := config.Validate(); err != nil {
		return err
	}
	tmpl, err := ParseTemplate(config.Template)
	if err != nil {
		return err
	}

	if config.Endpoint != p.info.Metadata["endpoint"] {
		p.logger.Warn("Endpoint change requires a restart, keeping current endpoint",
			"current", p.info.Metadata["endpoint"],
			"requested", config.Endpoint)
	}

	if previous := p.client.Template(); previous != tmpl {
		p.client.SetTemplate(tmpl)
		p.logger.Info("Reply template changed", "from", string(previous), "to", string(tmpl))
	}
	return nil
}

// Close implements Plugin.Close
func (p *ConstellationPlugin) Close() error {
	if !p.client.release() {
		return nil
	}
	p.logger.Info("Constellation plugin session closed")
	return nil
}
