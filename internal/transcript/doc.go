// Package transcript defines the Message record that flows between the
// extraction, deduplication and refinement stages, and the JSONL format used
// to persist it.
//
// One message is written per line as UTF-8 JSON with non-ASCII text left
// unescaped. Optional fields (timestamp, reply_to, naturalness, needs_review)
// are omitted rather than written as null: downstream tools test for their
// presence. Lines that fail to decode or carry unknown enum values are logged
// and skipped; they never abort a read.
package transcript
