// Package language normalises the recognition language codes used in the
// configuration and maps them to the model names the OCR service expects.
package language
