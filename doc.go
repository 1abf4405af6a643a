// Package constellation provides a chat-bot plugin that answers zodiac sign
// names with today's horoscope.
//
// A message whose trimmed text is exactly two CJK ideographs followed by 座
// (for example 白羊座) is treated as a horoscope request. Known signs are
// mapped to the horoscope API code, today's reading is fetched with a single
// HTTP GET and rendered into a fixed multi-section text. Every failure is
// turned into a readable reply; the host never sees a lookup error.
//
// Key Features:
//   - Strict keyword matching with no partial matches
//   - Explicit response schema with required-field checks
//   - Tagged lookup errors (transport, API, network, unexpected)
//   - Full and summary reply templates, switchable at runtime
//   - JSON/YAML configuration with environment expansion and hot reload
//   - Pluggable structured logging with a zap adapter
//   - JSON-over-gRPC transport for running the plugin in another process
//
// Basic Usage:
//
//	plugin, err := constellation.NewConstellationPlugin(constellation.DefaultConfig(), zapLogger)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	dispatcher := constellation.NewDispatcher(zapLogger)
//	if err := dispatcher.Register(plugin); err != nil {
//		log.Fatal(err)
//	}
//	defer dispatcher.Shutdown(context.Background())
//
//	event := constellation.NewMessageEvent("白羊座", sendToChat)
//	err = dispatcher.Dispatch(ctx, event)
//
// Remote Usage:
//
//	server := constellation.NewGRPCPluginServer(plugin, zapLogger)
//	go server.Serve(listener)
//
//	remote, err := constellation.DialGRPCPlugin(ctx, "127.0.0.1:50051", zapLogger)
//	reply, err := remote.Execute(ctx, constellation.ExecutionContext{}, constellation.MessageRequest{Text: "白羊座"})
//
// Copyright (c) 2025 AGILira - A. Giordano
// SPDX-License-Identifier: MPL-2.0
package constellation
