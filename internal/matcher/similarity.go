package matcher

import (
	"math"
	"sort"
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// SimilarityScore computes a 0-100 closeness score between two responsible
// names. Both strings are lowercased, tokenized on whitespace, token-sorted
// and rejoined with single spaces, then compared with a normalized edit
// distance ratio; 100 means identical after normalization. Word order
// therefore does not matter: "maria silva" and "silva maria" score 100.
//
// An empty name on either side scores 0, so rows with missing names never
// clear the threshold.
func SimilarityScore(a, b string) int {
	na := normalizeName(a)
	nb := normalizeName(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 100
	}

	ratio := levenshtein.RatioForStrings([]rune(na), []rune(nb), levenshtein.DefaultOptions)
	return int(math.Round(ratio * 100))
}

// normalizeName lowercases, tokenizes on whitespace, sorts the tokens
// alphabetically, and rejoins them with single spaces.
func normalizeName(s string) string {
	tokens := strings.Fields(strings.ToLower(s))
	if len(tokens) == 0 {
		return ""
	}
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
