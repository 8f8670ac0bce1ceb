package lorawan

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFixedHex(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		n        int
		sep      byte
		want     []byte
		wantKind ParseErrorKind
	}{
		{
			name:  "unpadded zero key",
			input: "00000000000000000000000000000000",
			n:     16,
			want:  make([]byte, 16),
		},
		{
			name:  "unpadded repeating key",
			input: "01010101010101010101010101010101",
			n:     16,
			want:  []byte{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
		},
		{
			name:  "hyphen padded key",
			input: "01-23-45-67-89-ab-cd-ef-01-23-45-67-89-ab-cd-ef",
			n:     16,
			want: []byte{0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef,
				0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef},
		},
		{
			name:  "colon padded key with upper case digits",
			input: "2B:7E:15:16:28:AE:D2:A6:AB:F7:15:88:09:CF:4F:3C",
			n:     16,
			want: []byte{0x2b, 0x7e, 0x15, 0x16, 0x28, 0xae, 0xd2, 0xa6,
				0xab, 0xf7, 0x15, 0x88, 0x09, 0xcf, 0x4f, 0x3c},
		},
		{
			name:  "hyphenated eui with known separator",
			input: "00-80-00-00-0a-00-12-34",
			n:     8,
			sep:   '-',
			want:  []byte{0x00, 0x80, 0x00, 0x00, 0x0a, 0x00, 0x12, 0x34},
		},
		{
			name:     "too short",
			input:    "00",
			n:        16,
			wantKind: LengthMismatch,
		},
		{
			name:     "separators of the wrong length",
			input:    "------------------------------------",
			n:        16,
			wantKind: LengthMismatch,
		},
		{
			name:     "separators only at padded length",
			input:    strings.Repeat("-", 47),
			n:        16,
			wantKind: InvalidDigit,
		},
		{
			name:     "non hex digit",
			input:    "0000000000000000000000000000000g",
			n:        16,
			wantKind: InvalidDigit,
		},
		{
			name:     "mixed separators",
			input:    "01:23:45:67:89:ab:cd:ef-01:23:45:67:89:ab:cd:ef",
			n:        16,
			wantKind: InconsistentPadding,
		},
		{
			name:     "eui with a separator other than the known one",
			input:    "00:80:00:00:0a:00:12:34",
			n:        8,
			sep:      '-',
			wantKind: InconsistentPadding,
		},
		{
			name:     "hex digit in separator position",
			input:    "00a11a22a33a44a55a66a77a88a99aaaabbbaccaddaeeaf",
			n:        16,
			wantKind: InconsistentPadding,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFixedHex(tt.input, tt.n, tt.sep)
			if tt.wantKind != 0 {
				require.Error(t, err)
				var pe *ParseError
				require.True(t, errors.As(err, &pe), "error should be a *ParseError, got %T", err)
				assert.Equal(t, tt.wantKind, pe.Kind)
				assert.Equal(t, tt.n, pe.Expected)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseError_Is(t *testing.T) {
	_, err := ParseFixedHex("00", 16, 0)
	assert.True(t, errors.Is(err, ErrLengthMismatch))
	assert.False(t, errors.Is(err, ErrInvalidDigit))

	_, err = ParseFixedHex("zz000000000000000000000000000000", 16, 0)
	assert.True(t, errors.Is(err, ErrInvalidDigit))

	_, err = ParseFixedHex("01:23:45:67:89:ab:cd:ef:01:23:45:67:89:ab:cd-ef", 16, 0)
	assert.True(t, errors.Is(err, ErrInconsistentPadding))
	assert.True(t, IsParseError(err))
}

func TestParseError_Message(t *testing.T) {
	_, err := ParseFixedHex("00", 16, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "32 hex digits")

	_, err = ParseFixedHex("0000000000000000000000000000000g", 16, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "position 31")
}

func TestFormatHex(t *testing.T) {
	data := []byte{0x01, 0xab, 0xff}
	assert.Equal(t, "01-ab-ff", formatHex(data, "-"))
	assert.Equal(t, "01 ab ff", formatHex(data, " "))
	assert.Equal(t, "01abff", formatHex(data, ""))
	assert.Equal(t, "", formatHex(nil, "-"))
}
