package model

import "strings"

// Universe is the ordered set of tickers processed by a run.
type Universe []string

// NormalizeTicker trims and upper-cases a ticker symbol.
// Symbols that are not safe as a file name normalize to "".
func NormalizeTicker(t string) string {
	t = strings.ToUpper(strings.TrimSpace(t))
	if !ValidTicker(t) {
		return ""
	}
	return t
}

// ValidTicker reports whether t is made of letters, digits and the
// separators "." "-" "^" only, and is not a dot-only path element.
func ValidTicker(t string) bool {
	if t == "" || strings.Trim(t, ".") == "" {
		return false
	}
	for _, r := range t {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		case r == '.', r == '-', r == '^':
		default:
			return false
		}
	}
	return true
}

// NewUniverse normalizes raw symbols, dropping empties and later duplicates.
func NewUniverse(raw []string) Universe {
	seen := make(map[string]struct{}, len(raw))
	u := make(Universe, 0, len(raw))
	for _, r := range raw {
		t := NormalizeTicker(r)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		u = append(u, t)
	}
	return u
}
