package transcript

import (
	"fmt"
	"path/filepath"
	"sort"
)

// NoTimestampBucket collects messages without a parseable timestamp.
const NoTimestampBucket = "no_timestamp"

// DateBucket is one calendar day's worth of messages.
type DateBucket struct {
	Date     string
	Messages []Message
}

// SplitByDate groups messages by the date of their timestamp, preserving
// input order within each day. Days are returned in ascending order with the
// NoTimestampBucket, if any, last.
func SplitByDate(msgs []Message) []DateBucket {
	byDate := make(map[string][]Message)
	for _, msg := range msgs {
		key := msg.Date()
		if key == "" {
			key = NoTimestampBucket
		}
		byDate[key] = append(byDate[key], msg)
	}

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		if date != NoTimestampBucket {
			dates = append(dates, date)
		}
	}
	sort.Strings(dates)
	if _, ok := byDate[NoTimestampBucket]; ok {
		dates = append(dates, NoTimestampBucket)
	}

	buckets := make([]DateBucket, 0, len(dates))
	for _, date := range dates {
		buckets = append(buckets, DateBucket{Date: date, Messages: byDate[date]})
	}
	return buckets
}

// WriteBuckets writes each bucket to dir/<date>.jsonl.
func WriteBuckets(dir string, buckets []DateBucket) error {
	for _, bucket := range buckets {
		path := filepath.Join(dir, bucket.Date+".jsonl")
		if err := WriteFile(path, bucket.Messages); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}
