package transcript

import (
	"fmt"
	"time"
)

// Offset is the fixed UTC offset every canonical timestamp carries.
const Offset = "+09:00"

var zone = time.FixedZone("UTC+9", 9*60*60)

// CanonicalTimestamp renders the canonical YYYY-MM-DDTHH:MM:00+09:00 form.
// Fixed-width fields keep lexicographic order equal to chronological order.
func CanonicalTimestamp(year, month, day, hour, minute int) string {
	return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:00%s", year, month, day, hour, minute, Offset)
}

// ParseTimestamp parses an RFC 3339 timestamp. Raw, unparsed timestamp text
// carried over from the screenshot (for example "昨天 20:03") reports false.
func ParseTimestamp(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false
	}
	return ts.In(zone), true
}
