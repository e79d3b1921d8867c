package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Pence is a monetary amount in integer minor units. Using whole pence
// keeps price and change arithmetic exact; there is no floating point
// anywhere in the money path.
type Pence int64

// String formats the amount as a plain decimal, e.g. 125 -> "1.25".
func (p Pence) String() string {
	sign := ""
	if p < 0 {
		sign = "-"
		p = -p
	}
	return fmt.Sprintf("%s%d.%02d", sign, p/100, p%100)
}

// ParsePence parses a decimal string such as "2.00" or "0.05" into pence.
// At most two fractional digits are accepted.
func ParsePence(s string) (Pence, error) {
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}

	whole, frac, found := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}

	var minor int64
	if found {
		if len(frac) == 0 || len(frac) > 2 {
			return 0, fmt.Errorf("invalid amount %q", s)
		}
		minor, err = strconv.ParseInt(frac, 10, 64)
		if err != nil || minor < 0 {
			return 0, fmt.Errorf("invalid amount %q", s)
		}
		if len(frac) == 1 {
			minor *= 10
		}
	}

	if units < 0 || strings.HasPrefix(whole, "-") {
		return 0, fmt.Errorf("negative amount %q", s)
	}

	return Pence(units*100 + minor), nil
}
