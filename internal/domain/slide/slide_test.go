package slide

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
		ok       bool
	}{
		{name: "bare host", raw: "example.com", expected: "https://example.com", ok: true},
		{name: "https kept", raw: "https://example.com/a", expected: "https://example.com/a", ok: true},
		{name: "http kept", raw: "http://example.com", expected: "http://example.com", ok: true},
		{name: "trimmed", raw: "  example.com/path \t", expected: "https://example.com/path", ok: true},
		{name: "other scheme gets prefix", raw: "ftp://example.com", expected: "https://ftp://example.com", ok: true},
		{name: "invalid utf-8 replaced", raw: "\xffa.com", expected: "https://\uFFFDa.com", ok: true},
		{name: "empty", raw: "", ok: false},
		{name: "whitespace only", raw: " \t\r\n ", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, ok := Normalize(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"a.com", "https://b.com", "http://c.com/x?y=1", " d.org ", "e", "https://"}

	for _, in := range inputs {
		once, ok := Normalize(in)
		assert.True(t, ok)
		twice, ok := Normalize(once)
		assert.True(t, ok)
		assert.Equal(t, once, twice, "normalize must be idempotent for %q", in)
	}
}

func TestNormalize_PrefixesExactlyOnce(t *testing.T) {
	result, ok := Normalize("example.com")
	assert.True(t, ok)
	assert.Equal(t, 1, countPrefix(result))
}

func countPrefix(s string) int {
	n := 0
	for len(s) >= len(DefaultScheme) && s[:len(DefaultScheme)] == DefaultScheme {
		n++
		s = s[len(DefaultScheme):]
	}
	return n
}

func TestNormalizeAll(t *testing.T) {
	assert.Equal(t,
		[]string{"https://example.com", "https://ftp.example.org", "http://b.com"},
		NormalizeAll([]string{"", "  example.com ", " \t", "ftp.example.org", "http://b.com"}))
	assert.Empty(t, NormalizeAll(nil))
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{name: "unix newlines", text: "a.com\nb.com", expected: []string{"a.com", "b.com"}},
		{name: "windows newlines", text: "a.com\r\nb.com\r\n", expected: []string{"a.com", "b.com"}},
		{name: "blank lines dropped", text: "foo.com\n\nbar.com", expected: []string{"foo.com", "bar.com"}},
		{name: "whitespace lines dropped", text: "  \n\t\n x.com  ", expected: []string{"x.com"}},
		{name: "empty", text: "", expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitLines(tt.text))
		})
	}
}
