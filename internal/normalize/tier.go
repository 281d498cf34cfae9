package normalize

import (
	"fmt"
	"strings"
)

// Kind is the equipment-ownership class of a composite tier
type Kind string

const (
	KindNone     Kind = ""
	KindUser     Kind = "user"
	KindOperator Kind = "operator"
	KindShared   Kind = "shared"
)

// Tier is a voltage level (1-3) with an optional ownership kind.
// The zero value is not a valid tier.
type Tier struct {
	Digit int
	Kind  Kind
}

// Code renders the canonical join key: tier_<d>_<kind> or tier_<d>
func (t Tier) Code() string {
	if t.Kind == KindNone {
		return fmt.Sprintf("tier_%d", t.Digit)
	}
	return fmt.Sprintf("tier_%d_%s", t.Digit, t.Kind)
}

// IsComposite reports whether the tier carries an ownership kind
func (t Tier) IsComposite() bool {
	return t.Kind != KindNone
}

// Simple drops the ownership kind
func (t Tier) Simple() Tier {
	return Tier{Digit: t.Digit}
}

func (t Tier) String() string {
	return t.Code()
}

var digits = []string{"1", "2", "3"}

// kindKeywords is ordered by precedence; the first group found in the text wins
var kindKeywords = []struct {
	kind     Kind
	keywords []string
}{
	{KindOperator, []string{"OPERADOR", "OPERATOR"}},
	{KindUser, []string{"USUARIO", "USER"}},
	{KindShared, []string{"COMPARTID", "SHARED"}},
}

// SimpleTier returns the voltage level named in text. "1" is checked first, then
// "2", then "3", anywhere in the normalized text.
func SimpleTier(text string) (Tier, bool) {
	n := Text(text)
	for i, d := range digits {
		if strings.Contains(n, d) {
			return Tier{Digit: i + 1}, true
		}
	}
	return Tier{}, false
}

// KindOf classifies an ownership description. Operator wins over user, user over shared.
func KindOf(text string) (Kind, bool) {
	n := Text(text)
	if n == "" {
		return KindNone, false
	}
	for _, group := range kindKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(n, kw) {
				return group.kind, true
			}
		}
	}
	return KindNone, false
}

// CompositeTier derives a level and ownership kind from a single description such as
// "NIVEL 1 OPERADOR", "NIVEL_1_USER", "BT1 USUARIO" or "tier_2_shared".
// Both parts must resolve.
func CompositeTier(text string) (Tier, bool) {
	toks := Tokens(text)
	digit := tierDigit(toks)
	if digit == 0 {
		return Tier{}, false
	}
	kind, ok := KindOf(strings.Join(toks, " "))
	if !ok {
		return Tier{}, false
	}
	return Tier{Digit: digit, Kind: kind}, true
}

func tierDigit(toks []string) int {
	joined := strings.Join(toks, "")
	for i, d := range digits {
		for _, tok := range toks {
			if tok == d || tok == "NIVEL"+d || tok == "BT"+d {
				return i + 1
			}
		}
		if strings.Contains(joined, d) {
			return i + 1
		}
	}
	for i := 0; i+1 < len(toks); i++ {
		if !strings.Contains(toks[i], "NIVEL") {
			continue
		}
		for j, d := range digits {
			if toks[i+1] == d {
				return j + 1
			}
		}
	}
	return 0
}

// ServicePointTier combines the two signals a service point carries: the level comes
// from the tension description and the kind from the ownership description. When the
// ownership cannot be classified the simple tier is returned.
func ServicePointTier(ownership, tension string) (Tier, bool) {
	level, ok := SimpleTier(tension)
	if !ok {
		return Tier{}, false
	}
	if kind, ok := KindOf(ownership); ok {
		level.Kind = kind
	}
	return level, true
}
