package textutil

import (
	"unicode/utf8"

	"github.com/antzucaro/matchr"
)

// Jaccard returns |A∩B| / |A∪B| over the sets of distinct code points in a
// and b. It is 0 when either string is empty.
func Jaccard(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	setA := runeSet(a)
	setB := runeSet(b)
	inter := 0
	for r := range setA {
		if _, ok := setB[r]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// LevenshteinRatio returns 1 - d/max(len(a), len(b)) where d is the rune edit
// distance. It is 0 when either string is empty.
func LevenshteinRatio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	d := matchr.Levenshtein(a, b)
	return 1 - float64(d)/float64(longest)
}

func runeSet(s string) map[rune]struct{} {
	set := make(map[rune]struct{}, len(s))
	for _, r := range s {
		set[r] = struct{}{}
	}
	return set
}
