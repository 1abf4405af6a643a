// formatter.go: Reply text rendering
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package constellation

import (
	"fmt"
	"strings"
)

// Template selects how much of a reading goes into the reply.
type Template string

const (
	// TemplateFull renders every section including the five narrative texts.
	TemplateFull Template = "full"

	// TemplateSummary stops after the short comment.
	TemplateSummary Template = "summary"
)

// ParseTemplate validates a template name. The empty string selects
// TemplateFull.
func ParseTemplate(name string) (Template, error) {
	switch Template(strings.ToLower(strings.TrimSpace(name))) {
	case "", TemplateFull:
		return TemplateFull, nil
	case TemplateSummary:
		return TemplateSummary, nil
	default:
		return "", NewInvalidTemplateError(name)
	}
}

// RequiresNarrative reports whether the template renders fortunetext.
func (t Template) RequiresNarrative() bool {
	return t != TemplateSummary
}

// Render formats h. The caller must have checked h.MissingField first.
func (t Template) Render(h *Horoscope) string {
	var b strings.Builder

	fmt.Fprintf(&b, "✨ %s今日运势 ✨\n", h.Title)
	fmt.Fprintf(&b, "📅 日期：%s\n\n", h.Time)

	b.WriteString("💡【每日建议】\n")
	fmt.Fprintf(&b, "宜：%s\n", h.Todo.Yi)
	fmt.Fprintf(&b, "忌：%s\n\n", h.Todo.Ji)

	b.WriteString("📊【运势指数】\n")
	fmt.Fprintf(&b, "总运势：%s (评分: %s/5)\n", h.Index.All, h.Fortune.All)
	fmt.Fprintf(&b, "爱情：%s (评分: %s/5)\n", h.Index.Love, h.Fortune.Love)
	fmt.Fprintf(&b, "工作：%s (评分: %s/5)\n", h.Index.Work, h.Fortune.Work)
	fmt.Fprintf(&b, "财运：%s (评分: %s/5)\n", h.Index.Money, h.Fortune.Money)
	fmt.Fprintf(&b, "健康：%s (评分: %s/5)\n\n", h.Index.Health, h.Fortune.Health)

	b.WriteString("🍀【幸运提示】\n")
	fmt.Fprintf(&b, "数字：%s\n", h.LuckyNumber)
	fmt.Fprintf(&b, "颜色：%s\n", h.LuckyColor)
	fmt.Fprintf(&b, "星座：%s\n\n", h.LuckyConstellation)

	fmt.Fprintf(&b, "🔔【简评】\n%s", h.ShortComment)

	if !t.RequiresNarrative() || h.FortuneText == nil {
		return b.String()
	}

	text := h.FortuneText
	b.WriteString("\n\n🌟【详细运势解读】\n")
	fmt.Fprintf(&b, "💫 整体运势：\n%s\n\n", text.All)
	fmt.Fprintf(&b, "❤️ 爱情运势：\n%s\n\n", text.Love)
	fmt.Fprintf(&b, "💼 工作运势：\n%s\n\n", text.Work)
	fmt.Fprintf(&b, "💰 财运分析：\n%s\n\n", text.Money)
	fmt.Fprintf(&b, "🌿 健康建议：\n%s", text.Health)

	return b.String()
}
