// Package normalize canonicalizes free text and derives voltage-tier codes from
// mixed Spanish/English tier and equipment-ownership descriptions.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks folds compatibility forms (superscripts, full-width letters) and drops
// combining marks.
var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))

// Text strips diacritics, uppercases, collapses internal whitespace and trims.
// It never fails; empty input yields an empty string.
//
// Marks are removed before uppercasing: letters such as "ǰ" have no single-rune
// uppercase form and only fold once the mark is gone.
func Text(s string) string {
	if s == "" {
		return ""
	}
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToUpper(folded)), " ")
}

// Tokens splits normalized text on whitespace and the separators - / . _
func Tokens(s string) []string {
	return strings.FieldsFunc(Text(s), func(r rune) bool {
		return unicode.IsSpace(r) || r == '-' || r == '/' || r == '.' || r == '_'
	})
}
