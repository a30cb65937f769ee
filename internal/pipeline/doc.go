// Package pipeline runs the extract, dedupe and refine stages over files on
// disk.
//
// Extract walks the input directory in name order, classifies each
// screenshot and appends its messages to the transcript, recording every
// finished image in the checkpoint store so an interrupted run resumes where
// it stopped. Cancellation is observed between images only. Dedupe and
// Refine read a whole transcript and replace their output atomically.
package pipeline
