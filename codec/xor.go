package codec

// Xor returns x XOR y. Both buffers must have the same length.
func Xor(x, y []byte) ([]byte, error) {
	if len(x) != len(y) {
		return nil, &Error{Kind: KindLengthMismatch, Op: "xor", LenX: len(x), LenY: len(y)}
	}

	out := make([]byte, len(x))
	for i := range x {
		out[i] = x[i] ^ y[i]
	}
	return out, nil
}

// XorByte XORs every byte of b with key.
func XorByte(b []byte, key byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[i] = v ^ key
	}
	return out
}
