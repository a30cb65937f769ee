package textutil

import (
	"strings"
	"unicode/utf8"
)

// IsKana reports whether r is Hiragana (U+3040–U+309F) or Katakana (U+30A0–U+30FF).
func IsKana(r rune) bool {
	return (r >= 0x3040 && r <= 0x309F) || (r >= 0x30A0 && r <= 0x30FF)
}

// IsKanji reports whether r lies in the CJK unified ideograph range used for
// density checks (U+4E00–U+9FAF).
func IsKanji(r rune) bool {
	return r >= 0x4E00 && r <= 0x9FAF
}

// IsJapanese reports whether r is kana or Kanji.
func IsJapanese(r rune) bool {
	return IsKana(r) || IsKanji(r)
}

// IsLatinLetter reports whether r is an ASCII letter.
func IsLatinLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// IsLatin1Letter reports whether r is an accented letter from the Latin-1
// supplement (U+00E0–U+00FF).
func IsLatin1Letter(r rune) bool {
	return r >= 0xE0 && r <= 0xFF
}

// IsControl reports whether r is a C0 control, DEL, or a C1 control.
func IsControl(r rune) bool {
	return r <= 0x1F || (r >= 0x7F && r <= 0x9F)
}

// ContainsKana reports whether s has at least one kana rune.
func ContainsKana(s string) bool {
	return strings.IndexFunc(s, IsKana) >= 0
}

// Count returns the number of runes in s satisfying pred.
func Count(s string, pred func(rune) bool) int {
	n := 0
	for _, r := range s {
		if pred(r) {
			n++
		}
	}
	return n
}

// RuneLen is the length of s in code points.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}

// StripControl removes every rune for which IsControl is true.
func StripControl(s string) string {
	if strings.IndexFunc(s, IsControl) < 0 {
		return s
	}
	return strings.Map(func(r rune) rune {
		if IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// Truncate caps s at max runes.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
