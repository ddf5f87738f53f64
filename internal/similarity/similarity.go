// Package similarity provides the pure string-scoring primitives used by the
// catalog matcher: a character-overlap percentage and a bounded edit distance.
package similarity

import (
	"github.com/hbollon/go-edlib"
)

// editDistanceMaxLen bounds edit distance cost on pathological inputs.
// Longer strings are truncated before scoring.
const editDistanceMaxLen = 255

// Percent returns the symmetric character-overlap similarity of a and b as a
// percentage in [0, 100]. It counts matching characters by locating the
// longest common substring and recursing into the unmatched regions on either
// side, then scales by the combined length. Identical strings score 100;
// strings sharing no characters score 0.
func Percent(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 100
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	matched := matchingChars(a, b)
	return float64(matched*200) / float64(len(a)+len(b))
}

// EditDistance returns the Levenshtein distance between a and b, computed over
// at most the first 255 characters of each input.
func EditDistance(a, b string) int {
	return edlib.LevenshteinDistance(truncate(a), truncate(b))
}

func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= editDistanceMaxLen {
		return s
	}
	return string(runes[:editDistanceMaxLen])
}

// matchingChars counts characters shared by a and b: the longest common
// substring plus, recursively, whatever matches in the regions before and
// after it.
func matchingChars(a, b string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	posA, posB, max := longestCommonSubstr(a, b)
	if max == 0 {
		return 0
	}
	sum := max
	sum += matchingChars(a[:posA], b[:posB])
	sum += matchingChars(a[posA+max:], b[posB+max:])
	return sum
}

func longestCommonSubstr(a, b string) (posA, posB, max int) {
	for i := 0; i < len(a); i++ {
		if len(a)-i <= max {
			break
		}
		for j := 0; j < len(b); j++ {
			k := 0
			for i+k < len(a) && j+k < len(b) && a[i+k] == b[j+k] {
				k++
			}
			if k > max {
				posA, posB, max = i, j, k
			}
		}
	}
	return posA, posB, max
}
