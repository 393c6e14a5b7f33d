// Package text provides utilities for text processing and analysis.
package text

import "unicode/utf8"

// CountRunes counts the number of Unicode characters (runes) in the given text.
// Request size limits and chunk widths are expressed in characters, not bytes,
// so multi-byte text (Japanese, emoji, accented Latin) must be counted by rune.
//
// Examples:
//
//	CountRunes("hello")    // returns 5
//	CountRunes("こんにちは")  // returns 5
//	CountRunes("")         // returns 0
func CountRunes(text string) int {
	return utf8.RuneCountInString(text)
}
