package refine

import (
	"math"
	"regexp"
	"strings"
	"unicode"

	"scrollback/internal/textutil"
	"scrollback/internal/transcript"
)

var (
	timestampLike = regexp.MustCompile(`^[\d\s\-:/年月日.]+$`)
	urlPrefix     = regexp.MustCompile(`^https?://`)
)

// danglingEndings mark a bubble cut off after a comma and particle.
var danglingEndings = []string{"、の", "、が", "、は"}

// IsTimestampLike reports whether text is made of digits and date separators,
// or is short and mostly digits.
func IsTimestampLike(text string) bool {
	if text == "" {
		return false
	}
	if timestampLike.MatchString(text) {
		return true
	}
	n := textutil.RuneLen(text)
	digits := textutil.Count(text, unicode.IsDigit)
	return n < 20 && float64(digits)/float64(n) > 0.5
}

// RuleScore estimates naturalness from surface features. Only Japanese text
// is penalised; other languages score 1.0 and empty text scores 0.0.
func RuleScore(text string, lang transcript.Lang) float64 {
	if text == "" {
		return 0
	}
	if lang != transcript.LangJA {
		return 1
	}

	score := 1.0
	length := textutil.RuneLen(text)

	score -= 0.3 * float64(textutil.Count(text, textutil.IsLatin1Letter))

	ja := textutil.Count(text, textutil.IsJapanese)
	latin := textutil.Count(text, textutil.IsLatinLetter)
	if length > 3 {
		switch {
		case ja == 0:
			if !urlPrefix.MatchString(text) {
				score -= 0.5
			}
		case float64(ja) < float64(length)*0.2 && latin > ja:
			score -= 0.4
		}
	}

	for _, suffix := range danglingEndings {
		if strings.HasSuffix(text, suffix) {
			score -= 0.3
			break
		}
	}

	if strings.Contains(text, "「") && !strings.Contains(text, "」") {
		score -= 0.2
	}

	if length > 10 {
		runes := []rune(text)
		if last := runes[len(runes)-1]; last == '、' || last == ',' {
			score -= 0.1
		}
	}

	return math.Max(0, round2(score))
}

// Fuse blends the rule score with an external score. A negative external
// score means none was available.
func Fuse(rule, external float64) float64 {
	if external >= 0 {
		return 0.3*rule + 0.7*external
	}
	return rule
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
