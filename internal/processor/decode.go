package processor

import (
	"fmt"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DecodeText turns uploaded bytes into text. A UTF-8 BOM is stripped, UTF-16
// input with a BOM is transcoded, and invalid UTF-8 sequences become U+FFFD.
func DecodeText(b []byte) (string, error) {
	out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), b)
	if err != nil {
		return "", fmt.Errorf("decode text: %w", err)
	}
	return string(out), nil
}
