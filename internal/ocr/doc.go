// Package ocr talks to the text detection service and handles the screenshot
// images it is fed.
//
// A Detector turns an Image into TextBlocks. HTTPDetector speaks the JSON API
// exposed by Umi-OCR and PaddleOCR HTTP wrappers: the image is posted as
// base64 and each recognised span comes back with a four-point polygon and a
// confidence score. Crop produces the PNG sub-image used for the second,
// region-scoped recognition pass.
package ocr
