// Package codec implements the byte/text primitives used by gopals:
// hex decode/encode, unpadded base64 encode and fixed-length XOR.
//
// Every function is pure: inputs are never modified and each call returns a
// newly allocated result, so all of them are safe for concurrent use.
//
// Failures are reported as *Error values tagged with a Kind:
//
//	b, err := codec.HexDecode("gg")
//	if errors.Is(err, codec.ErrInvalidCharacterPair) {
//		// err.Error() == "invalid hex characters g and g"
//	}
package codec
