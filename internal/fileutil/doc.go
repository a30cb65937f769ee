// Package fileutil holds the small filesystem helpers the pipeline shares:
// screenshot discovery, atomic replacement of stage outputs, and append-mode
// opening of the extraction log.
package fileutil
