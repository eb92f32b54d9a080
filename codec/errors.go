package codec

import (
	"errors"
	"fmt"
)

// Kind categorizes a codec failure.
type Kind uint8

// Failure kinds. The zero Kind means no codec error.
const (
	KindInvalidLength        Kind = iota + 1 // length precondition violated
	KindInvalidCharacter                     // one non-alphabet character in a hex pair
	KindInvalidCharacterPair                 // both characters of a hex pair invalid
	KindLengthMismatch                       // xor operands differ in length
)

func (k Kind) String() string {
	switch k {
	case KindInvalidLength:
		return "InvalidLength"
	case KindInvalidCharacter:
		return "InvalidCharacter"
	case KindInvalidCharacterPair:
		return "InvalidCharacterPair"
	case KindLengthMismatch:
		return "LengthMismatch"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Error is the structured error returned by every codec operation.
// Only the fields relevant to Kind are set.
type Error struct {
	Kind Kind
	Op   string // "hex decode", "base64 encode", "xor"

	// InvalidLength
	Len     int
	Divisor int

	// InvalidCharacter / InvalidCharacterPair. Chars[1] is unused for a
	// single invalid character. Index is the offset of the failing pair.
	Chars [2]byte
	Index int

	// LengthMismatch
	LenX, LenY int
}

// Error renders the diagnostic text shown to users.
func (e *Error) Error() string {
	switch e.Kind {
	case KindInvalidLength:
		return fmt.Sprintf("input length must be divisible by %d", e.Divisor)
	case KindInvalidCharacter:
		return fmt.Sprintf("invalid hex character %c", e.Chars[0])
	case KindInvalidCharacterPair:
		return fmt.Sprintf("invalid hex characters %c and %c", e.Chars[0], e.Chars[1])
	case KindLengthMismatch:
		return "buffers must be the same length"
	default:
		return "codec: unknown error"
	}
}

// Is reports whether target is a codec error of the same kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// Sentinels for errors.Is matching by kind.
var (
	ErrInvalidLength        = &Error{Kind: KindInvalidLength}
	ErrInvalidCharacter     = &Error{Kind: KindInvalidCharacter}
	ErrInvalidCharacterPair = &Error{Kind: KindInvalidCharacterPair}
	ErrLengthMismatch       = &Error{Kind: KindLengthMismatch}
)

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return 0
}

func invalidLength(op string, n, divisor int) *Error {
	return &Error{Kind: KindInvalidLength, Op: op, Len: n, Divisor: divisor}
}
