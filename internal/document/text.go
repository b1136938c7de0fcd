package document

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrUndecodable is returned for input that cannot be read as text.
var ErrUndecodable = errors.New("input is not decodable text")

var (
	utf8BOM    = []byte{0xEF, 0xBB, 0xBF}
	utf16LEBOM = []byte{0xFF, 0xFE}
	utf16BEBOM = []byte{0xFE, 0xFF}
)

// DecodeText returns data as a UTF-8 string. UTF-16 input is accepted when it
// carries a byte order mark; anything else must be valid UTF-8 without NUL
// bytes.
func DecodeText(data []byte) (string, error) {
	if bytes.HasPrefix(data, utf16LEBOM) || bytes.HasPrefix(data, utf16BEBOM) {
		decoded, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrUndecodable, err)
		}
		return string(decoded), nil
	}

	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: invalid utf-8", ErrUndecodable)
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return "", fmt.Errorf("%w: binary content", ErrUndecodable)
	}
	return string(data), nil
}
