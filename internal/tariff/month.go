package tariff

import (
	"fmt"
	"regexp"
	"strings"
)

var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// ParseMonth validates a YYYY-MM month
func ParseMonth(s string) (string, error) {
	m := strings.TrimSpace(s)
	if !monthPattern.MatchString(m) {
		return "", fmt.Errorf("invalid month %q (use YYYY-MM, e.g. 2024-07)", s)
	}
	return m, nil
}

// MonthKey reduces a tariff month value ("2024-07", "2024-07-01", "2024-07-01 00:00:00")
// to its YYYY-MM key
func MonthKey(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 7 {
		return s[:7]
	}
	return s
}

// MonthRange is an inclusive range of YYYY-MM months. Zero-padded months compare
// lexicographically in chronological order.
type MonthRange struct {
	Start string
	End   string
}

// NewMonthRange validates both bounds. It does not reorder them; see Ordered.
func NewMonthRange(from, to string) (MonthRange, error) {
	start, err := ParseMonth(from)
	if err != nil {
		return MonthRange{}, fmt.Errorf("parsing start month: %w", err)
	}
	end, err := ParseMonth(to)
	if err != nil {
		return MonthRange{}, fmt.Errorf("parsing end month: %w", err)
	}
	return MonthRange{Start: start, End: end}, nil
}

// Reversed reports whether Start is after End
func (r MonthRange) Reversed() bool {
	return r.Start > r.End
}

// Ordered returns the range with its bounds swapped when Start is after End
func (r MonthRange) Ordered() MonthRange {
	if r.Reversed() {
		return MonthRange{Start: r.End, End: r.Start}
	}
	return r
}

// Contains reports whether month falls within the range, bounds included
func (r MonthRange) Contains(month string) bool {
	return r.Start <= month && month <= r.End
}

func (r MonthRange) String() string {
	return r.Start + ".." + r.End
}
