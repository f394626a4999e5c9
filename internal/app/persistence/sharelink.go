package persistence

import (
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/osa030/urlshow/internal/domain/show"
	"github.com/osa030/urlshow/internal/domain/slide"
)

// Share link parameter names. Decoding also accepts the synonyms below.
const (
	ParamURLs        = "urls"
	ParamDisplayTime = "displayTime"
	ParamLoop        = "loop"
	ParamFullscreen  = "fullscreen"
	ParamPlaying     = "playing"
)

var (
	displayTimeParams = []string{ParamDisplayTime, "time"}
	loopParams        = []string{ParamLoop, "looping"}
	fullscreenParams  = []string{ParamFullscreen}
	playingParams     = []string{ParamPlaying, "play", "state"}
)

// uriComponentUnescaped restores the characters encodeURIComponent leaves alone.
var uriComponentUnescaped = strings.NewReplacer(
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EncodeURIComponent percent-encodes s like ECMAScript encodeURIComponent.
func EncodeURIComponent(s string) string {
	e := url.QueryEscape(s)
	e = strings.ReplaceAll(e, "+", "%20")
	return uriComponentUnescaped.Replace(e)
}

// EncodeShareLink encodes s as a query string that starts fullscreen
// playback when opened. Parameters equal to their default are omitted.
// It reports false for an empty playlist.
func EncodeShareLink(s Settings) (string, bool) {
	if len(s.URLs) == 0 {
		return "", false
	}

	encoded := make([]string, len(s.URLs))
	for i, u := range s.URLs {
		encoded[i] = EncodeURIComponent(u)
	}

	var b strings.Builder
	b.WriteString(ParamURLs)
	b.WriteByte('=')
	b.WriteString(url.QueryEscape(strings.Join(encoded, ",")))

	if displayTime := show.CoerceDisplayTime(s.DisplayTime); displayTime != show.DefaultDisplayTimeSec {
		b.WriteString("&" + ParamDisplayTime + "=" + strconv.Itoa(displayTime))
	}
	if s.IsLooping != show.DefaultLooping {
		b.WriteString("&" + ParamLoop + "=" + strconv.FormatBool(s.IsLooping))
	}
	b.WriteString("&" + ParamFullscreen + "=true")
	b.WriteString("&" + ParamPlaying + "=true")

	return b.String(), true
}

// ShareURL appends the share link of s to base, replacing any query or
// fragment base already carries.
func ShareURL(base string, s Settings) (string, bool) {
	query, ok := EncodeShareLink(s)
	if !ok {
		return "", false
	}

	u, err := url.Parse(base)
	if err != nil {
		return base + "?" + query, true
	}
	u.RawQuery = query
	u.Fragment = ""
	return u.String(), true
}

// DecodeShareLink parses a share link query. It accepts a bare query, one
// with a leading '?', or a full URL. Unknown or malformed parameters are
// ignored.
func DecodeShareLink(query string) Partial {
	q := strings.TrimSpace(query)
	if i := strings.IndexByte(q, '?'); i >= 0 {
		q = q[i+1:]
	}
	if i := strings.IndexByte(q, '#'); i >= 0 {
		q = q[:i]
	}

	// ParseQuery keeps every well-formed pair even when it reports an error.
	values, _ := url.ParseQuery(q)

	var p Partial

	if raw := values.Get(ParamURLs); raw != "" {
		urls := decodeURLList(strings.ToValidUTF8(raw, "\uFFFD"))
		if len(urls) > 0 {
			p.URLs = urls
		}
	}

	if v, ok := firstValue(values, displayTimeParams); ok {
		if n, ok := show.ParseInt(v); ok && n > 0 {
			n = show.CoerceDisplayTime(n)
			p.DisplayTime = &n
		}
	}

	if v, ok := firstValue(values, loopParams); ok {
		b := isTrue(v)
		p.Looping = &b
	}

	if v, ok := firstValue(values, fullscreenParams); ok {
		b := isTrue(v)
		p.Fullscreen = &b
	}

	if v, ok := firstValue(values, playingParams); ok {
		b := isTrue(v) || v == "playing"
		p.Playing = &b
	}

	return p
}

// decodeURLList splits a comma-joined list and decodes each entry, with a
// second pass for double-encoded entries. An entry that fails to decode is
// kept as-is.
func decodeURLList(raw string) []string {
	tokens := strings.Split(raw, ",")
	urls := make([]string, 0, len(tokens))
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if decoded, ok := unescapeComponent(token); ok {
			token = decoded
			if strings.Contains(token, "%") {
				if twice, ok := unescapeComponent(token); ok {
					token = twice
				}
			}
		}
		if u, ok := slide.Normalize(token); ok {
			urls = append(urls, u)
		}
	}
	return urls
}

// unescapeComponent decodes percent-escapes in s. Escapes that are malformed
// or decode to invalid UTF-8 fail the whole token.
func unescapeComponent(s string) (string, bool) {
	decoded, err := url.PathUnescape(s)
	if err != nil || !utf8.ValidString(decoded) {
		return "", false
	}
	return decoded, true
}

// firstValue returns the first non-empty value among names.
func firstValue(values url.Values, names []string) (string, bool) {
	for _, name := range names {
		if v := values.Get(name); v != "" {
			return v, true
		}
	}
	return "", false
}

func isTrue(v string) bool {
	return v == "true" || v == "1"
}
