// Package slide provides URL normalization for slideshow entries.
package slide

import "strings"

const (
	// DefaultScheme is prefixed to entries that carry no scheme.
	DefaultScheme = "https://"
)

// HasScheme reports whether u starts with http:// or https://.
func HasScheme(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}

// Normalize trims raw and prefixes https:// when no scheme is present.
// Invalid UTF-8 sequences are replaced with U+FFFD.
// It returns false for empty or whitespace-only input.
// Normalize is idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(raw string) (string, bool) {
	u := strings.TrimSpace(strings.ToValidUTF8(raw, "\uFFFD"))
	if u == "" {
		return "", false
	}
	if !HasScheme(u) {
		u = DefaultScheme + u
	}
	return u, true
}

// NormalizeAll normalizes every entry of urls, dropping the empty ones.
func NormalizeAll(urls []string) []string {
	result := make([]string, 0, len(urls))
	for _, raw := range urls {
		if u, ok := Normalize(raw); ok {
			result = append(result, u)
		}
	}
	return result
}

// SplitLines splits multi-line input on \n or \r\n, trims every line and
// drops empty ones.
func SplitLines(text string) []string {
	lines := strings.Split(text, "\n")
	result := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line != "" {
			result = append(result, line)
		}
	}
	return result
}
