// zodiac.go: Zodiac keyword matching and API code mapping
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package constellation

import (
	"regexp"
)

// keywordPattern accepts exactly two CJK Unified Ideographs followed by 座.
var keywordPattern = regexp.MustCompile(`^[\x{4e00}-\x{9fa5}]{2}座$`)

// zodiacCodes maps the localized sign name to the horoscope API "type" value.
var zodiacCodes = map[string]string{
	"白羊座": "aries",
	"金牛座": "taurus",
	"双子座": "gemini",
	"巨蟹座": "cancer",
	"狮子座": "leo",
	"处女座": "virgo",
	"天秤座": "libra",
	"天蝎座": "scorpio",
	"射手座": "sagittarius",
	"摩羯座": "capricorn",
	"水瓶座": "aquarius",
	"双鱼座": "pisces",
}

// zodiacOrder lists the signs in calendar order, starting at Aries.
var zodiacOrder = []string{
	"白羊座", "金牛座", "双子座", "巨蟹座", "狮子座", "处女座",
	"天秤座", "天蝎座", "射手座", "摩羯座", "水瓶座", "双鱼座",
}

// MatchKeyword reports whether text looks like a zodiac sign name.
//
// The caller is expected to trim text first. A match only means the text
// has the right shape; use LookupZodiac to check the sign is supported.
func MatchKeyword(text string) bool {
	return keywordPattern.MatchString(text)
}

// LookupZodiac returns the API code for a localized sign name.
func LookupZodiac(name string) (string, bool) {
	code, ok := zodiacCodes[name]
	return code, ok
}

// ZodiacMapping returns a copy of the full name-to-code mapping.
func ZodiacMapping() map[string]string {
	out := make(map[string]string, len(zodiacCodes))
	for name, code := range zodiacCodes {
		out[name] = code
	}
	return out
}

// ZodiacNames returns the supported sign names in calendar order.
func ZodiacNames() []string {
	out := make([]string, len(zodiacOrder))
	copy(out, zodiacOrder)
	return out
}
