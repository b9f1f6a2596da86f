package resolver

import "strings"

// Equivalent reports whether two barcodes identify the same product under
// the exhaustive-search comparator: exact match, match after stripping
// leading zeros, or alphanumeric-only case-insensitive match. Batch search
// deliberately uses exact equality only, so "00123" and "123" match here
// but not there.
func Equivalent(a, b string) bool {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	if stripLeadingZeros(a) == stripLeadingZeros(b) {
		return true
	}
	return alnumLower(a) == alnumLower(b)
}

func stripLeadingZeros(s string) string {
	trimmed := strings.TrimLeft(s, "0")
	if trimmed == "" {
		// All zeros still has to compare equal to itself.
		return "0"
	}
	return trimmed
}

func alnumLower(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		}
	}
	return b.String()
}
