// testing_helpers_test.go: Shared fixtures for constellation tests
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package constellation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const fullHoroscopeJSON = `{
  "success": true,
  "data": {
    "title": "白羊座",
    "time": "2024年05月20日",
    "todo": {"yi": "运动健身", "ji": "冲动消费"},
    "index": {"all": "85%", "love": "72%", "work": "90%", "money": "66%", "health": "78%"},
    "fortune": {"all": 4, "love": 3, "work": 5, "money": 3, "health": 4},
    "luckynumber": "7",
    "luckycolor": "红色",
    "luckyconstellation": "狮子座",
    "shortcomment": "行动力十足的一天",
    "fortunetext": {
      "all": "整体运势平稳上升。",
      "love": "单身者有机会结识新朋友。",
      "work": "工作效率很高。",
      "money": "注意控制开销。",
      "health": "适量运动有益身心。"
    }
  }
}`

const summaryOnlyHoroscopeJSON = `{
  "success": true,
  "data": {
    "title": "双鱼座",
    "time": "2024年05月20日",
    "todo": {"yi": "阅读", "ji": "熬夜"},
    "index": {"all": 60, "love": 70, "work": 80, "money": 50, "health": 90},
    "fortune": {"all": 3, "love": 4, "work": 4, "money": 2, "health": 5},
    "luckynumber": 3,
    "luckycolor": "蓝色",
    "luckyconstellation": "巨蟹座",
    "shortcomment": "适合安静思考"
  }
}`

// horoscopeServer is an httptest server standing in for the horoscope API.
type horoscopeServer struct {
	*httptest.Server

	hits atomic.Int64

	mu      sync.Mutex
	queries []map[string]string
	agents  []string
}

func newHoroscopeServer(t *testing.T, handler http.HandlerFunc) *horoscopeServer {
	t.Helper()

	hs := &horoscopeServer{}
	hs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hs.hits.Add(1)
		hs.mu.Lock()
		query := make(map[string]string)
		for key := range r.URL.Query() {
			query[key] = r.URL.Query().Get(key)
		}
		hs.queries = append(hs.queries, query)
		hs.agents = append(hs.agents, r.Header.Get("User-Agent"))
		hs.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(hs.Close)
	return hs
}

func (hs *horoscopeServer) lastQuery() map[string]string {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	if len(hs.queries) == 0 {
		return nil
	}
	return hs.queries[len(hs.queries)-1]
}

func (hs *horoscopeServer) userAgents() []string {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	return append([]string(nil), hs.agents...)
}

func jsonHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func testConfig(endpoint string) Config {
	config := DefaultConfig()
	config.Endpoint = endpoint
	config.Connection.RequestTimeout = Duration(2 * time.Second)
	return config
}

func newTestClient(t *testing.T, config Config, logger Logger) *HoroscopeClient {
	t.Helper()
	client, err := NewHoroscopeClient(config, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func newTestPlugin(t *testing.T, config Config, logger Logger) *ConstellationPlugin {
	t.Helper()
	plugin, err := NewConstellationPlugin(config, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = plugin.Close() })
	return plugin
}

// recordingEvent is an Event whose Reply can be made to fail.
type recordingEvent struct {
	*MessageEvent
	replyErr error
}

func newRecordingEvent(text string, replyErr error) *recordingEvent {
	return &recordingEvent{MessageEvent: NewMessageEvent(text, nil), replyErr: replyErr}
}

func (e *recordingEvent) Reply(ctx context.Context, text string) error {
	if err := e.MessageEvent.Reply(ctx, text); err != nil {
		return err
	}
	return e.replyErr
}
