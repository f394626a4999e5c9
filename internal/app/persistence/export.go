package persistence

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
)

// Export encodes s as a pretty-printed JSON document.
func Export(s Settings) ([]byte, error) {
	if s.URLs == nil {
		s.URLs = []string{}
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode export")
	}
	return data, nil
}

// Import parses an exported document. The url list is mandatory; other
// malformed fields are skipped.
func Import(data []byte) (Partial, error) {
	p, err := decodeFields(data)
	if err != nil {
		return Partial{}, errors.Wrap(err, "failed to read import data")
	}
	if p.URLs == nil {
		return Partial{}, ErrInvalidFormat
	}
	return p, nil
}

// ExportFileName returns the suggested file name for an export taken at t.
func ExportFileName(t time.Time) string {
	return fmt.Sprintf("url-slideshow-%s.json", t.UTC().Format("2006-01-02"))
}
