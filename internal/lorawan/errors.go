package lorawan

import (
	"errors"
	"fmt"
)

// Sentinel errors matched by ParseError through errors.Is.
var (
	ErrLengthMismatch      = errors.New("length mismatch")
	ErrInvalidDigit        = errors.New("invalid hex digit")
	ErrInconsistentPadding = errors.New("inconsistent padding")
)

// ParseErrorKind classifies a hex text parsing failure.
type ParseErrorKind int

const (
	// LengthMismatch means the text, once separators are removed, is not 2n hex digits long.
	LengthMismatch ParseErrorKind = iota + 1
	// InvalidDigit means a two-character group is not a hex byte.
	InvalidDigit
	// InconsistentPadding means separator positions do not all hold the same character.
	InconsistentPadding
)

// String returns a human-readable name for the kind
func (k ParseErrorKind) String() string {
	switch k {
	case LengthMismatch:
		return "LengthMismatch"
	case InvalidDigit:
		return "InvalidDigit"
	case InconsistentPadding:
		return "InconsistentPadding"
	default:
		return fmt.Sprintf("ParseErrorKind(%d)", int(k))
	}
}

func (k ParseErrorKind) sentinel() error {
	switch k {
	case LengthMismatch:
		return ErrLengthMismatch
	case InvalidDigit:
		return ErrInvalidDigit
	case InconsistentPadding:
		return ErrInconsistentPadding
	default:
		return nil
	}
}

// ParseError is returned when identity or key text is malformed.
// It indicates bad input and is never worth retrying.
type ParseError struct {
	Kind     ParseErrorKind
	Input    string // text as given by the caller
	Expected int    // expected decoded length in bytes
	Offset   int    // offset into the unpadded candidate (InvalidDigit) or the input (InconsistentPadding)
}

// Error implements the error interface
func (e *ParseError) Error() string {
	switch e.Kind {
	case LengthMismatch:
		return fmt.Sprintf("%q is not %d hex digits (%d bytes)", e.Input, e.Expected*2, e.Expected)
	case InvalidDigit:
		return fmt.Sprintf("%q has an invalid hex digit at position %d", e.Input, e.Offset)
	case InconsistentPadding:
		return fmt.Sprintf("%q has inconsistent padding at position %d", e.Input, e.Offset)
	default:
		return fmt.Sprintf("%q could not be parsed", e.Input)
	}
}

// Is reports whether target is the sentinel for this error's kind.
func (e *ParseError) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// IsParseError checks if an error is (or wraps) a ParseError
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
