// Package preflight provides readiness checks for the directories and
// external services a run depends on.
//
// The "preflight" command prints every result; extract and run call ForExtract
// first and refuse to start when a required check fails, so an unreachable
// OCR service is reported once instead of once per screenshot.
//
// Each check is gated by its config toggle -- a disabled judge is skipped.
package preflight
