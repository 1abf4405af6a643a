// horoscope_test.go: Tests for the horoscope response schema
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package constellation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexString_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValue string
		wantValid bool
		wantErr   bool
	}{
		{"String", `"85%"`, "85%", true, false},
		{"EmptyString", `""`, "", true, false},
		{"Integer", `4`, "4", true, false},
		{"Float", `3.5`, "3.5", true, false},
		{"Bool", `true`, "true", true, false},
		{"Null", `null`, "", false, false},
		{"Object", `{"a":1}`, "", false, true},
		{"Array", `[1,2]`, "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f FlexString
			err := json.Unmarshal([]byte(tt.input), &f)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantValue, f.Value)
			assert.Equal(t, tt.wantValid, f.Valid)
			assert.Equal(t, tt.wantValue, f.String())
		})
	}
}

func TestFlexString_AbsentFieldIsInvalid(t *testing.T) {
	var advice Advice
	require.NoError(t, json.Unmarshal([]byte(`{"yi":"运动"}`), &advice))

	assert.True(t, advice.Yi.Valid)
	assert.False(t, advice.Ji.Valid)
}

func TestFlexString_MarshalJSON(t *testing.T) {
	out, err := json.Marshal(FlexString{Value: "7", Valid: true})
	require.NoError(t, err)
	assert.JSONEq(t, `"7"`, string(out))

	out, err = json.Marshal(FlexString{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

func TestHoroscopeEnvelope_Succeeded(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{`true`, true},
		{`false`, false},
		{`null`, false},
		{``, false},
		{`1`, true},
		{`0`, false},
		{`0.0`, false},
		{`"ok"`, true},
		{`""`, false},
		{`[]`, false},
		{`[1]`, true},
		{`{}`, false},
		{`{"a":1}`, true},
	}

	for _, tt := range tests {
		t.Run("success="+tt.raw, func(t *testing.T) {
			env := HoroscopeEnvelope{Success: json.RawMessage(tt.raw)}
			assert.Equal(t, tt.want, env.Succeeded())
		})
	}
}

func TestHoroscopeEnvelope_MissingSuccess(t *testing.T) {
	var env HoroscopeEnvelope
	require.NoError(t, json.Unmarshal([]byte(`{"message":"quota exceeded"}`), &env))

	assert.False(t, env.Succeeded())
	assert.Equal(t, "quota exceeded", env.Message.String())
	assert.Nil(t, env.Data)
}

func TestHoroscope_DecodeFull(t *testing.T) {
	var env HoroscopeEnvelope
	require.NoError(t, json.Unmarshal([]byte(fullHoroscopeJSON), &env))
	require.True(t, env.Succeeded())
	require.NotNil(t, env.Data)

	h := env.Data
	assert.Equal(t, "白羊座", h.Title.String())
	assert.Equal(t, "运动健身", h.Todo.Yi.String())
	assert.Equal(t, "90%", h.Index.Work.String())
	assert.Equal(t, "5", h.Fortune.Work.String())
	require.NotNil(t, h.FortuneText)
	assert.Equal(t, "适量运动有益身心。", h.FortuneText.Health.String())

	assert.Empty(t, h.MissingField(true))
	assert.Empty(t, h.MissingField(false))
}

func TestHoroscope_MissingField(t *testing.T) {
	decode := func(t *testing.T, body string) *Horoscope {
		t.Helper()
		var env HoroscopeEnvelope
		require.NoError(t, json.Unmarshal([]byte(body), &env))
		return env.Data
	}

	t.Run("NilData", func(t *testing.T) {
		var h *Horoscope
		assert.Equal(t, "data", h.MissingField(false))
	})

	t.Run("NarrativeOnlyRequiredWhenAsked", func(t *testing.T) {
		h := decode(t, summaryOnlyHoroscopeJSON)
		assert.Empty(t, h.MissingField(false))
		assert.Equal(t, "data.fortunetext", h.MissingField(true))
	})

	t.Run("PartialNarrative", func(t *testing.T) {
		h := decode(t, fullHoroscopeJSON)
		h.FortuneText.Money = FlexString{}
		assert.Equal(t, "data.fortunetext.money", h.MissingField(true))
		assert.Empty(t, h.MissingField(false))
	})

	t.Run("NullTitle", func(t *testing.T) {
		h := decode(t, fullHoroscopeJSON)
		h.Title = FlexString{}
		assert.Equal(t, "data.title", h.MissingField(false))
	})

	t.Run("MissingIndexEntry", func(t *testing.T) {
		h := decode(t, fullHoroscopeJSON)
		h.Index.Love = FlexString{}
		assert.Equal(t, "data.index.love", h.MissingField(false))
	})

	t.Run("MissingFortuneEntry", func(t *testing.T) {
		h := decode(t, fullHoroscopeJSON)
		h.Fortune.Health = FlexString{}
		assert.Equal(t, "data.fortune.health", h.MissingField(false))
	})

	t.Run("MissingLuckyColor", func(t *testing.T) {
		h := decode(t, fullHoroscopeJSON)
		h.LuckyColor = FlexString{}
		assert.Equal(t, "data.luckycolor", h.MissingField(false))
	})

	t.Run("FirstMissingWins", func(t *testing.T) {
		h := decode(t, fullHoroscopeJSON)
		h.Todo.Ji = FlexString{}
		h.ShortComment = FlexString{}
		assert.Equal(t, "data.todo.ji", h.MissingField(false))
	})

	t.Run("EmptyObject", func(t *testing.T) {
		h := decode(t, `{"success":true,"data":{}}`)
		assert.Equal(t, "data.title", h.MissingField(false))
	})
}
