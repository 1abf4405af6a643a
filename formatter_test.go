// formatter_test.go: Tests for reply text rendering
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package constellation

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/agilira/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeFixture(t *testing.T, body string) *Horoscope {
	t.Helper()
	var env HoroscopeEnvelope
	require.NoError(t, json.Unmarshal([]byte(body), &env))
	require.NotNil(t, env.Data)
	return env.Data
}

func TestParseTemplate(t *testing.T) {
	tests := []struct {
		input string
		want  Template
	}{
		{"", TemplateFull},
		{"full", TemplateFull},
		{"FULL", TemplateFull},
		{" summary ", TemplateSummary},
		{"Summary", TemplateSummary},
	}
	for _, tt := range tests {
		got, err := ParseTemplate(tt.input)
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseTemplate("compact")
	require.Error(t, err)
	var tmplErr *errors.Error
	require.ErrorAs(t, err, &tmplErr)
	assert.Equal(t, errors.ErrorCode(ErrCodeInvalidTemplate), tmplErr.ErrorCode())
}

func TestTemplate_RequiresNarrative(t *testing.T) {
	assert.True(t, TemplateFull.RequiresNarrative())
	assert.False(t, TemplateSummary.RequiresNarrative())
}

func TestRender_Full(t *testing.T) {
	h := decodeFixture(t, fullHoroscopeJSON)

	want := "✨ 白羊座今日运势 ✨\n" +
		"📅 日期：2024年05月20日\n\n" +
		"💡【每日建议】\n" +
		"宜：运动健身\n" +
		"忌：冲动消费\n\n" +
		"📊【运势指数】\n" +
		"总运势：85% (评分: 4/5)\n" +
		"爱情：72% (评分: 3/5)\n" +
		"工作：90% (评分: 5/5)\n" +
		"财运：66% (评分: 3/5)\n" +
		"健康：78% (评分: 4/5)\n\n" +
		"🍀【幸运提示】\n" +
		"数字：7\n" +
		"颜色：红色\n" +
		"星座：狮子座\n\n" +
		"🔔【简评】\n" +
		"行动力十足的一天\n\n" +
		"🌟【详细运势解读】\n" +
		"💫 整体运势：\n整体运势平稳上升。\n\n" +
		"❤️ 爱情运势：\n单身者有机会结识新朋友。\n\n" +
		"💼 工作运势：\n工作效率很高。\n\n" +
		"💰 财运分析：\n注意控制开销。\n\n" +
		"🌿 健康建议：\n适量运动有益身心。"

	assert.Equal(t, want, TemplateFull.Render(h))
}

func TestRender_Summary(t *testing.T) {
	h := decodeFixture(t, fullHoroscopeJSON)

	out := TemplateSummary.Render(h)
	assert.True(t, strings.HasSuffix(out, "🔔【简评】\n行动力十足的一天"))
	assert.NotContains(t, out, "详细运势解读")
	assert.NotContains(t, out, "整体运势平稳上升")
}

func TestRender_SectionOrder(t *testing.T) {
	h := decodeFixture(t, fullHoroscopeJSON)
	out := TemplateFull.Render(h)

	sections := []string{
		"白羊座今日运势",
		"2024年05月20日",
		"【每日建议】",
		"【运势指数】",
		"总运势：85%",
		"爱情：72%",
		"工作：90%",
		"财运：66%",
		"健康：78%",
		"【幸运提示】",
		"【简评】",
		"【详细运势解读】",
		"整体运势：",
		"爱情运势：",
		"工作运势：",
		"财运分析：",
		"健康建议：",
	}
	last := -1
	for _, s := range sections {
		idx := strings.Index(out, s)
		require.GreaterOrEqual(t, idx, 0, "section %q missing", s)
		assert.Greater(t, idx, last, "section %q out of order", s)
		last = idx
	}
}

func TestRender_NumericValues(t *testing.T) {
	h := decodeFixture(t, summaryOnlyHoroscopeJSON)
	out := TemplateSummary.Render(h)

	assert.Contains(t, out, "总运势：60 (评分: 3/5)")
	assert.Contains(t, out, "健康：90 (评分: 5/5)")
	assert.Contains(t, out, "数字：3\n")
}

func TestRender_FullWithoutNarrativeFallsBackToSummary(t *testing.T) {
	h := decodeFixture(t, summaryOnlyHoroscopeJSON)
	assert.Equal(t, TemplateSummary.Render(h), TemplateFull.Render(h))
}
