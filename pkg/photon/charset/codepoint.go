// Package charset converts between UTF-8 and Unicode codepoints and collects
// codepoints into insertion-ordered character sets, such as the glyphs a font
// atlas must rasterize.
package charset

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	// ErrInvalidUTF8 is returned when input does not start with a valid
	// UTF-8 sequence.
	ErrInvalidUTF8 = errors.New("invalid UTF-8")

	// ErrInvalidCodepoint is returned for surrogates and values above
	// U+10FFFF.
	ErrInvalidCodepoint = errors.New("invalid codepoint")
)

// DecodeRune decodes the first codepoint in b and returns it with its width
// in bytes.
func DecodeRune(b []byte) (rune, int, error) {
	if len(b) == 0 {
		return 0, 0, fmt.Errorf("%w: empty input", ErrInvalidUTF8)
	}
	r, size := utf8.DecodeRune(b)
	if r == utf8.RuneError && size <= 1 {
		return 0, 0, fmt.Errorf("%w: bad leading byte 0x%02x", ErrInvalidUTF8, b[0])
	}
	return r, size, nil
}

// EncodeRune returns the UTF-8 encoding of r.
func EncodeRune(r rune) ([]byte, error) {
	if !utf8.ValidRune(r) {
		return nil, fmt.Errorf("%w: U+%04X", ErrInvalidCodepoint, r)
	}
	return utf8.AppendRune(nil, r), nil
}

// Decode decodes every codepoint in b.
func Decode(b []byte) ([]rune, error) {
	out := make([]rune, 0, utf8.RuneCount(b))
	for offset := 0; offset < len(b); {
		r, size, err := DecodeRune(b[offset:])
		if err != nil {
			return nil, fmt.Errorf("offset %d: %w", offset, err)
		}
		out = append(out, r)
		offset += size
	}
	return out, nil
}
