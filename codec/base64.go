package codec

const base64Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// Base64Encode encodes b with the standard alphabet. Padding is not
// supported: len(b) must be a multiple of 3.
func Base64Encode(b []byte) (string, error) {
	if n := len(b); n%3 != 0 {
		return "", invalidLength("base64 encode", n, 3)
	}

	dst := make([]byte, 0, len(b)/3*4)
	for i := 0; i < len(b); i += 3 {
		b0, b1, b2 := b[i], b[i+1], b[i+2]
		dst = append(dst,
			base64Alphabet[b0>>2],
			base64Alphabet[(b0&0x03)<<4|b1>>4],
			base64Alphabet[(b1&0x0F)<<2|b2>>6],
			base64Alphabet[b2&0x3F],
		)
	}
	return string(dst), nil
}
