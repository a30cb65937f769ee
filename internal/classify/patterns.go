package classify

import (
	"regexp"
	"strconv"
	"strings"

	"scrollback/internal/transcript"
)

var timestampPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d{4}-\d{1,2}-\d{1,2}\s+\d{1,2}:\d{2}`),
	regexp.MustCompile(`\d{4}年\d{1,2}月\d{1,2}日\s+\d{1,2}:\d{2}`),
	regexp.MustCompile(`昨天\s+\d{1,2}:\d{2}`),
	regexp.MustCompile(`今天\s+\d{1,2}:\d{2}`),
	regexp.MustCompile(`星期[一二三四五六日]\s+\d{1,2}:\d{2}`),
}

// absoluteTimestamp is anchored: only a banner that starts with the numeric
// form is converted.
var absoluteTimestamp = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})\s+(\d{1,2}):(\d{2})`)

var systemNotices = []string{
	"撤回を完了しました",
	"撤回了一条消息",
	"消息已撤回",
	"さんが参加しました",
	"加入了群聊",
}

// IsTimestampText reports whether text contains any recognised banner form.
func IsTimestampText(text string) bool {
	for _, re := range timestampPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// IsSystemNotice reports whether text contains a known system notice.
func IsSystemNotice(text string) bool {
	for _, notice := range systemNotices {
		if strings.Contains(text, notice) {
			return true
		}
	}
	return false
}

// ParseTimestamp converts a "2025-6-18 20:03" banner to the canonical
// 2025-06-18T20:03:00+09:00 form. Other banner forms are relative or lack a
// year and are returned unchanged.
func ParseTimestamp(text string) string {
	m := absoluteTimestamp.FindStringSubmatch(text)
	if m == nil {
		return text
	}
	parts := make([]int, 5)
	for i := range parts {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return text
		}
		parts[i] = n
	}
	return transcript.CanonicalTimestamp(parts[0], parts[1], parts[2], parts[3], parts[4])
}
