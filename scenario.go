package gopals

import (
	"fmt"

	"github.com/unkn0wn-root/gopals/codec"
	"github.com/unkn0wn-root/gopals/xorcrack"
)

// Op names the pipeline a scenario runs over its inputs.
type Op string

const (
	// hex -> bytes -> base64
	OpHexToBase64 Op = "hex_to_base64"
	// two hex buffers -> xor -> hex
	OpFixedXor Op = "fixed_xor"
	// hex -> bytes -> hex; used to exercise decode diagnostics
	OpHexDecode Op = "hex_decode"
	// hex ciphertext -> best single-byte key -> plaintext
	OpSingleByteXor Op = "single_byte_xor"
	// many hex lines -> the line that decrypts to English -> plaintext
	OpDetectSingleByteXor Op = "detect_single_byte_xor"
)

// arity returns the required number of inputs, or -1 for "at least one".
func (o Op) arity() (int, bool) {
	switch o {
	case OpHexToBase64, OpHexDecode, OpSingleByteXor:
		return 1, true
	case OpFixedXor:
		return 2, true
	case OpDetectSingleByteXor:
		return -1, true
	default:
		return 0, false
	}
}

// Scenario is one named row of the harness table. A zero WantErr means the
// op must succeed and produce exactly Want; otherwise the op must fail with
// a codec error of that kind.
type Scenario struct {
	Name    string
	Op      Op
	Inputs  []string
	Want    string
	WantErr codec.Kind
}

// Validate checks the row itself, not its outcome.
func (s Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("gopals: scenario name is required")
	}
	n, ok := s.Op.arity()
	if !ok {
		return fmt.Errorf("gopals: scenario %q: unknown op %q", s.Name, s.Op)
	}
	if (n < 0 && len(s.Inputs) == 0) || (n >= 0 && len(s.Inputs) != n) {
		want := fmt.Sprint(n)
		if n < 0 {
			want = "at least 1"
		}
		return fmt.Errorf("gopals: scenario %q: op %s takes %s input(s), got %d", s.Name, s.Op, want, len(s.Inputs))
	}
	return nil
}

// Evaluate runs the scenario's op and returns its textual output.
func (s Scenario) Evaluate() (string, error) {
	if err := s.Validate(); err != nil {
		return "", err
	}

	switch s.Op {
	case OpHexToBase64:
		raw, err := codec.HexDecode(s.Inputs[0])
		if err != nil {
			return "", err
		}
		return codec.Base64Encode(raw)

	case OpFixedXor:
		x, err := codec.HexDecode(s.Inputs[0])
		if err != nil {
			return "", err
		}
		y, err := codec.HexDecode(s.Inputs[1])
		if err != nil {
			return "", err
		}
		z, err := codec.Xor(x, y)
		if err != nil {
			return "", err
		}
		return codec.HexEncode(z), nil

	case OpHexDecode:
		raw, err := codec.HexDecode(s.Inputs[0])
		if err != nil {
			return "", err
		}
		return codec.HexEncode(raw), nil

	case OpSingleByteXor:
		raw, err := codec.HexDecode(s.Inputs[0])
		if err != nil {
			return "", err
		}
		return string(xorcrack.Break(raw).Plaintext), nil

	case OpDetectSingleByteXor:
		d, err := xorcrack.Detect(s.Inputs)
		if err != nil {
			return "", err
		}
		return string(d.Plaintext), nil
	}
	return "", fmt.Errorf("gopals: scenario %q: unknown op %q", s.Name, s.Op)
}

// judge compares an evaluation against the scenario's expectation.
func (s Scenario) judge(got string, err error) (Status, string) {
	if s.WantErr != 0 {
		if codec.KindOf(err) == s.WantErr {
			return StatusOK, ""
		}
		if err != nil {
			got = err.Error()
		}
		return StatusFailed, (&MismatchError{Got: got, Want: s.WantErr.String() + " error"}).Error()
	}
	if err != nil {
		return StatusFailed, err.Error()
	}
	if got != s.Want {
		return StatusFailed, (&MismatchError{Got: got, Want: s.Want}).Error()
	}
	return StatusOK, ""
}

// DefaultScenarios returns the built-in fixture table.
func DefaultScenarios() []Scenario {
	return []Scenario{
		{
			Name:   "hex-to-base64",
			Op:     OpHexToBase64,
			Inputs: []string{"49276d206b696c6c696e6720796f757220627261696e206c696b65206120706f69736f6e6f7573206d757368726f6f6d"},
			Want:   "SSdtIGtpbGxpbmcgeW91ciBicmFpbiBsaWtlIGEgcG9pc29ub3VzIG11c2hyb29t",
		},
		{
			Name:   "fixed-xor",
			Op:     OpFixedXor,
			Inputs: []string{"1c0111001f010100061a024b53535009181c", "686974207468652062756c6c277320657965"},
			Want:   "746865206b696420646f6e277420706c6179",
		},
		{
			Name:   "single-byte-xor",
			Op:     OpSingleByteXor,
			Inputs: []string{"1b37373331363f78151b7f2b783431333d78397828372d363c78373e783a393b3736"},
			Want:   "Cooking MC's like a pound of bacon",
		},
		{Name: "odd-length-hex", Op: OpHexDecode, Inputs: []string{"1"}, WantErr: codec.KindInvalidLength},
		{Name: "invalid-hex-pair", Op: OpHexDecode, Inputs: []string{"gg"}, WantErr: codec.KindInvalidCharacterPair},
		{Name: "invalid-hex-char", Op: OpHexDecode, Inputs: []string{"g0"}, WantErr: codec.KindInvalidCharacter},
		{Name: "xor-length-mismatch", Op: OpFixedXor, Inputs: []string{"0102", "01"}, WantErr: codec.KindLengthMismatch},
	}
}

// DetectScenario builds a detection row over hex lines, typically read from
// a data file.
func DetectScenario(name string, lines []string, want string) Scenario {
	return Scenario{Name: name, Op: OpDetectSingleByteXor, Inputs: lines, Want: want}
}
