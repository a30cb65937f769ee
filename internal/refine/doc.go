// Package refine normalises message text and scores how natural it reads.
//
// Each message is normalised (NFKC, trimmed, known OCR artefacts corrected,
// control characters removed) and, unless it is a system line that looks like
// a bare date, annotated with a naturalness score in [0, 1]. The score starts
// from a rule-based estimate for Japanese text and is blended with an optional
// external judge. Messages scoring under the review threshold are flagged.
package refine
