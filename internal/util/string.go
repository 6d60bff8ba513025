package util

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Normalize performs basic string normalization (lowercase + trim).
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeKey normalizes a name for use as a lookup key by removing
// separators and punctuation that vary between how users type resort names.
func NormalizeKey(name string) string {
	name = Normalize(name)
	if name == "" {
		return ""
	}

	var builder strings.Builder
	for _, r := range name {
		switch r {
		case ' ', '-', '_', '.', '!', '・', '／', '/', '‘', '’', '\'', 'ー', '—', '　':
			continue
		default:
			builder.WriteRune(r)
		}
	}
	return builder.String()
}

// TruncateString truncates a string to maxRunes characters (rune-based, not
// byte-based). If truncated, appends "..." to the result.
func TruncateString(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes]) + "..."
}

// RuneLen counts characters, not bytes. Length checks against multi-byte
// scripts must go through this.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}

// IsHanOrKana reports whether a rune belongs to the catalog's primary
// scripts (Han plus kana), excluding Latin.
func IsHanOrKana(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) ||
		r == 'ー'
}

// Contains checks if a string slice contains a specific item.
func Contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
