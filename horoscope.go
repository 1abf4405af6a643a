// horoscope.go: Response schema for the horoscope API
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package constellation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// HoroscopeEnvelope is the outer JSON object returned by the horoscope API.
//
// Example:
//
//	{
//	  "success": true,
//	  "data": {
//	    "title": "白羊座",
//	    "time": "2024年05月20日",
//	    "todo": {"yi": "运动", "ji": "熬夜"},
//	    "index": {"all": "80%", "love": "75%", ...},
//	    "fortune": {"all": 4, "love": 3, ...},
//	    "luckynumber": "7",
//	    ...
//	  }
//	}
type HoroscopeEnvelope struct {
	Success json.RawMessage `json:"success"`
	Message FlexString      `json:"message"`
	Data    *Horoscope      `json:"data"`
}

// Succeeded reports whether the success flag is truthy.
//
// The API normally sends a JSON boolean; numbers and strings are accepted
// with the usual truthiness rules so a loosely typed upstream still works.
func (e HoroscopeEnvelope) Succeeded() bool {
	raw := bytes.TrimSpace(e.Success)
	if len(raw) == 0 {
		return false
	}
	switch raw[0] {
	case 't':
		return string(raw) == "true"
	case 'f', 'n':
		return false
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return false
		}
		return s != ""
	case '[':
		return string(raw) != "[]"
	case '{':
		var m map[string]json.RawMessage
		if err := json.Unmarshal(raw, &m); err != nil {
			return false
		}
		return len(m) > 0
	default:
		f, err := strconv.ParseFloat(string(raw), 64)
		return err == nil && f != 0
	}
}

// Horoscope is today's reading for one sign.
type Horoscope struct {
	Title              FlexString  `json:"title"`
	Time               FlexString  `json:"time"`
	Todo               Advice      `json:"todo"`
	Index              FortuneSet  `json:"index"`
	Fortune            FortuneSet  `json:"fortune"`
	LuckyNumber        FlexString  `json:"luckynumber"`
	LuckyColor         FlexString  `json:"luckycolor"`
	LuckyConstellation FlexString  `json:"luckyconstellation"`
	ShortComment       FlexString  `json:"shortcomment"`
	FortuneText        *FortuneSet `json:"fortunetext,omitempty"`
}

// Advice holds the "good for" / "avoid" pair of the day.
type Advice struct {
	Yi FlexString `json:"yi"`
	Ji FlexString `json:"ji"`
}

// FortuneSet holds one value per fortune category. It is used for the
// percentage index, the 1-5 score and the long-form narrative.
type FortuneSet struct {
	All    FlexString `json:"all"`
	Love   FlexString `json:"love"`
	Work   FlexString `json:"work"`
	Money  FlexString `json:"money"`
	Health FlexString `json:"health"`
}

func (f FortuneSet) missing(prefix string) string {
	fields := []struct {
		name  string
		value FlexString
	}{
		{"all", f.All},
		{"love", f.Love},
		{"work", f.Work},
		{"money", f.Money},
		{"health", f.Health},
	}
	for _, field := range fields {
		if !field.value.Valid {
			return prefix + "." + field.name
		}
	}
	return ""
}

// MissingField returns the JSON path of the first required field that is
// absent or null, or "" when the reading is complete. Narrative fields are
// only required when withNarrative is set.
func (h *Horoscope) MissingField(withNarrative bool) string {
	if h == nil {
		return "data"
	}

	scalars := []struct {
		path  string
		value FlexString
	}{
		{"data.title", h.Title},
		{"data.time", h.Time},
		{"data.todo.yi", h.Todo.Yi},
		{"data.todo.ji", h.Todo.Ji},
	}
	for _, s := range scalars {
		if !s.value.Valid {
			return s.path
		}
	}

	if path := h.Index.missing("data.index"); path != "" {
		return path
	}
	if path := h.Fortune.missing("data.fortune"); path != "" {
		return path
	}

	lucky := []struct {
		path  string
		value FlexString
	}{
		{"data.luckynumber", h.LuckyNumber},
		{"data.luckycolor", h.LuckyColor},
		{"data.luckyconstellation", h.LuckyConstellation},
		{"data.shortcomment", h.ShortComment},
	}
	for _, s := range lucky {
		if !s.value.Valid {
			return s.path
		}
	}

	if withNarrative {
		if h.FortuneText == nil {
			return "data.fortunetext"
		}
		if path := h.FortuneText.missing("data.fortunetext"); path != "" {
			return path
		}
	}
	return ""
}

// FlexString decodes a JSON string, number or boolean into its text form.
//
// Valid is false when the field was absent or null.
type FlexString struct {
	Value string
	Valid bool
}

// String returns the decoded text.
func (f FlexString) String() string {
	return f.Value
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	if len(raw) == 0 || string(raw) == "null" {
		*f = FlexString{}
		return nil
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		*f = FlexString{Value: s, Valid: true}
	case '{', '[':
		return fmt.Errorf("expected string or number, got %s", raw)
	default:
		*f = FlexString{Value: string(raw), Valid: true}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (f FlexString) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}
