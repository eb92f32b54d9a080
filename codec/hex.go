package codec

const (
	hexDigits = "0123456789abcdef"
	badNibble = 0xFF
)

// nibbles maps a character code to its 4-bit value, or badNibble.
var nibbles = func() (t [256]byte) {
	for i := range t {
		t[i] = badNibble
	}
	for c := '0'; c <= '9'; c++ {
		t[c] = byte(c - '0')
	}
	for c := 'a'; c <= 'f'; c++ {
		t[c] = byte(c-'a') + 10
		t[c-'a'+'A'] = byte(c-'a') + 10
	}
	return t
}()

// HexDecode decodes pairs of hex digits (either case) into bytes.
//
// Decoding stops at the first pair containing an invalid character. When
// both characters of that pair are invalid the error names both of them.
func HexDecode(text string) ([]byte, error) {
	if n := len(text); n%2 != 0 {
		return nil, invalidLength("hex decode", n, 2)
	}

	out := make([]byte, len(text)/2)
	for i := 0; i < len(text); i += 2 {
		c1, c2 := text[i], text[i+1]
		hi, lo := nibbles[c1], nibbles[c2]

		switch {
		case hi == badNibble && lo == badNibble:
			return nil, &Error{Kind: KindInvalidCharacterPair, Op: "hex decode", Chars: [2]byte{c1, c2}, Index: i}
		case hi == badNibble:
			return nil, &Error{Kind: KindInvalidCharacter, Op: "hex decode", Chars: [2]byte{c1}, Index: i}
		case lo == badNibble:
			return nil, &Error{Kind: KindInvalidCharacter, Op: "hex decode", Chars: [2]byte{c2}, Index: i}
		}

		out[i/2] = hi<<4 | lo
	}
	return out, nil
}

// HexEncode returns the lowercase, zero-padded hex form of b.
func HexEncode(b []byte) string {
	dst := make([]byte, len(b)*2)
	for i, v := range b {
		dst[i*2] = hexDigits[v>>4]
		dst[i*2+1] = hexDigits[v&0x0f]
	}
	return string(dst)
}
