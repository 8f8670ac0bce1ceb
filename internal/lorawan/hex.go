package lorawan

import (
	"encoding/hex"
	"errors"
	"strings"
)

// ParseFixedHex decodes text into exactly n bytes.
//
// Text whose length is 3n-1 is treated as padded: every third character is a
// separator and the remaining characters are hex digits. If sep is 0 the separator
// is learned from the first separator position; every other separator position must
// hold the same character. Text of any other length is decoded as-is and must be
// exactly 2n hex digits.
func ParseFixedHex(text string, n int, sep byte) ([]byte, error) {
	unpaddedLen := n * 2
	paddedLen := unpaddedLen + n - 1

	candidate := text
	if n > 0 && len(text) == paddedLen {
		unpadded, perr := stripPadding(text, unpaddedLen, sep)
		if perr != nil {
			perr.Expected = n
			return nil, perr
		}
		candidate = unpadded
	}

	if len(candidate) != unpaddedLen {
		return nil, &ParseError{Kind: LengthMismatch, Input: text, Expected: n}
	}

	out := make([]byte, n)
	if _, err := hex.Decode(out, []byte(candidate)); err != nil {
		offset := 0
		var ibe hex.InvalidByteError
		if errors.As(err, &ibe) {
			offset = strings.IndexByte(candidate, byte(ibe))
		}
		return nil, &ParseError{Kind: InvalidDigit, Input: text, Expected: n, Offset: offset}
	}

	return out, nil
}

// stripPadding removes the separator at every third position of text.
func stripPadding(text string, unpaddedLen int, sep byte) (string, *ParseError) {
	var b strings.Builder
	b.Grow(unpaddedLen)

	for i := 0; i < len(text); i++ {
		c := text[i]
		if (i+1)%3 != 0 {
			b.WriteByte(c)
			continue
		}

		if sep == 0 {
			// Separators are never hex digits, otherwise "00a11a.." would be ambiguous.
			if isHexDigit(c) {
				return "", &ParseError{Kind: InconsistentPadding, Input: text, Offset: i}
			}
			sep = c
		}
		if c != sep {
			return "", &ParseError{Kind: InconsistentPadding, Input: text, Offset: i}
		}
	}

	return b.String(), nil
}

// formatHex renders data as lowercase two-digit groups joined by sep.
func formatHex(data []byte, sep string) string {
	if len(data) == 0 {
		return ""
	}

	var b strings.Builder
	b.Grow(len(data)*2 + (len(data)-1)*len(sep))
	for i, octet := range data {
		if i > 0 {
			b.WriteString(sep)
		}
		b.WriteString(hex.EncodeToString([]byte{octet}))
	}
	return b.String()
}

func isHexDigit(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
