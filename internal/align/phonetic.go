package align

import "github.com/antzucaro/matchr"

// DefaultPhoneticThreshold is the minimum Jaro-Winkler score a phonetically
// overlapping word pair needs to count as a match.
const DefaultPhoneticThreshold = 0.70

// phoneticEqual reports whether two normalized words sound alike. It runs in
// two stages: the words must share at least one Double Metaphone code, and
// the surviving pair must score at or above threshold on Jaro-Winkler
// similarity. The phonetic stage alone is too coarse ("cat" and "kit" share
// a code); the similarity gate keeps precision acceptable.
func phoneticEqual(token, word string, threshold float64) bool {
	if !metaphoneOverlap(token, word) {
		return false
	}
	return matchr.JaroWinkler(token, word, false) >= threshold
}

// metaphoneOverlap reports whether the primary or secondary Double Metaphone
// codes of a and b share an entry. Words too short to produce any code never
// overlap.
func metaphoneOverlap(a, b string) bool {
	ap, as := matchr.DoubleMetaphone(a)
	bp, bs := matchr.DoubleMetaphone(b)
	if ap == "" && as == "" {
		return false
	}
	if bp == "" && bs == "" {
		return false
	}
	return (ap != "" && (ap == bp || ap == bs)) ||
		(as != "" && (as == bp || as == bs))
}
