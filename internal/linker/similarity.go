package linker

import "strings"

// jaccardSimilarity computes character-set Jaccard similarity between two
// strings, case-insensitive and ignoring whitespace. Deliberately crude;
// kept behind this one function so a stronger algorithm can replace it
// without touching the linking control flow.
func jaccardSimilarity(a, b string) float64 {
	setA := charSet(a)
	setB := charSet(b)

	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for ch := range setA {
		if setB[ch] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection

	return float64(intersection) / float64(union)
}

func charSet(s string) map[rune]bool {
	set := make(map[rune]bool)
	for _, ch := range strings.ToLower(s) {
		if ch == ' ' || ch == '\t' {
			continue
		}
		set[ch] = true
	}
	return set
}
