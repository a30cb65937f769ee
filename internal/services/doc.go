// Package services defines the helpers shared by the pipeline stages and the
// external integrations (text detection, language-quality judges).
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers, stage names and the image
//     being processed so every log record can be correlated.
//   - Structured error markers plus the Wrap helper. Markers decide whether a
//     failure is recovered locally (decode errors, capability failures) or ends
//     the run (configuration errors, missing input).
package services
