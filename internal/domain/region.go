package domain

import (
	"fmt"
	"strings"
)

// Region is an uppercase ISO 3166-1 alpha-2 country code.
type Region string

// ParseRegion trims and uppercases s and checks that it is exactly two ASCII
// letters. Any other input fails with ErrInvalidRegion.
func ParseRegion(s string) (Region, error) {
	code := strings.ToUpper(strings.TrimSpace(s))
	if len(code) != 2 || !isASCIIAlpha(code[0]) || !isASCIIAlpha(code[1]) {
		return "", fmt.Errorf("%w: %q (use ISO 3166-1 alpha-2, e.g. US, GB)", ErrInvalidRegion, s)
	}
	return Region(code), nil
}

// ParseRegions parses a list of codes, failing on the first invalid entry.
func ParseRegions(codes []string) ([]Region, error) {
	out := make([]Region, 0, len(codes))
	for _, c := range codes {
		r, err := ParseRegion(c)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (r Region) String() string { return string(r) }

func isASCIIAlpha(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}
