// Package textutil classifies runes by script and measures string similarity.
//
// Script helpers count runes in the ranges the classifier and refiner care
// about: Hiragana and Katakana (kana), the Kanji block, ASCII Latin letters,
// and the Latin-1 supplement letters that OCR tends to hallucinate inside
// Japanese text. Similarity helpers operate on Unicode code points, never on
// bytes or tokens.
package textutil
