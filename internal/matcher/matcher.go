// Package matcher scores provider-name equivalence with a Jaccard index over
// normalized name tokens. It is only consulted after exact-key lookups miss.
package matcher

import (
	"sort"
	"strings"

	"github.com/jgoulah/gridtariff/internal/normalize"
)

// Threshold is the minimum similarity at which a fuzzy provider match is accepted
const Threshold = 0.45

// corporate-form fragments that carry no identity (S.A., S.A.S., E.S.P., ...)
var stopTokens = map[string]struct{}{
	"S": {}, "A": {}, "SA": {}, "SAS": {}, "ESP": {}, "E": {}, "P": {}, "ES": {}, "EP": {},
}

// Accept reports whether a similarity score clears Threshold
func Accept(score float64) bool {
	return score >= Threshold
}

// Tokenize returns the set of identity tokens of a provider name
func Tokenize(name string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.FieldsFunc(normalize.Text(name), isSeparator) {
		if _, stop := stopTokens[tok]; stop {
			continue
		}
		set[tok] = struct{}{}
	}
	return set
}

func isSeparator(r rune) bool {
	return r == ' ' || r == '.' || r == '/' || r == '-'
}

// Jaccard returns |a ∩ b| / |a ∪ b|, or 0 when either set is empty
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// BestMatch returns the candidate whose token set is most similar to target's.
// Ties go to the first candidate in iteration order. ok is false when target has no
// tokens or no candidate shares a token with it.
func BestMatch(target string, candidates []string) (best string, score float64, ok bool) {
	tgt := Tokenize(target)
	if len(tgt) == 0 {
		return "", 0, false
	}
	for _, c := range candidates {
		cand := Tokenize(c)
		if len(cand) == 0 {
			continue
		}
		if s := Jaccard(tgt, cand); s > score {
			best, score, ok = c, s, true
		}
	}
	return best, score, ok
}

// Targets normalizes and deduplicates canonical provider names, ordering them
// longest first (alphabetical on equal length) so ties in BestMatch are stable.
func Targets(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = normalize.Text(n)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}

// Canonicalize maps an already-normalized provider name onto one of targets (as
// returned by Targets): an exact hit is kept, otherwise the best match is used when
// it clears Threshold, otherwise name is returned unchanged.
func Canonicalize(name string, targets []string) string {
	for _, t := range targets {
		if t == name {
			return name
		}
	}
	if best, score, ok := BestMatch(name, targets); ok && Accept(score) {
		return best
	}
	return name
}
