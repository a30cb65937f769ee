// Package checkpoint persists extraction progress so an interrupted run can
// resume where it stopped.
//
// The store is a small SQLite database (modernc.org/sqlite, no cgo) holding
// one row per processed screenshot, one row per run, and the classifier's
// carried state. Everything is scoped to a transcript, the absolute path of
// the JSONL file being appended to, and screenshots are keyed by absolute
// path, so several input directories and outputs can share one database. MarkImage records an image and the state after it in a
// single transaction; callers invoke it only once that image's messages are
// durably written, which makes the image boundary the only point at which
// progress can be observed.
//
// Lock guards the output file with an advisory flock so two runs never append
// to the same transcript.
package checkpoint
