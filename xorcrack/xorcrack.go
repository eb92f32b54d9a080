// Package xorcrack recovers plaintext that was XORed with a single repeated
// key byte, scoring candidates by how English-like they look.
package xorcrack

import (
	"errors"
	"fmt"

	"github.com/unkn0wn-root/gopals/codec"
)

// ErrNoCandidates is returned by Detect when there is nothing to rank.
var ErrNoCandidates = errors.New("xorcrack: no candidate lines")

// common holds the most frequent English letters and the space.
var common = func() (t [256]bool) {
	for _, c := range []byte("ETAOIN SHRDLU") {
		t[c] = true
		if 'A' <= c && c <= 'Z' {
			t[c+'a'-'A'] = true
		}
	}
	return t
}()

// Score counts the bytes of text that belong to "ETAOIN SHRDLU" in either case.
func Score(text []byte) int {
	n := 0
	for _, c := range text {
		if common[c] {
			n++
		}
	}
	return n
}

// Candidate is the best guess for one ciphertext.
type Candidate struct {
	Key       byte
	Score     int
	Plaintext []byte
}

// Break tries every key byte and keeps the first one with the strictly
// highest score. An empty ciphertext yields key 0 and score 0.
func Break(ciphertext []byte) Candidate {
	best := Candidate{Plaintext: codec.XorByte(ciphertext, 0)}
	best.Score = Score(best.Plaintext)
	for k := 1; k < 256; k++ {
		pt := codec.XorByte(ciphertext, byte(k))
		if s := Score(pt); s > best.Score {
			best = Candidate{Key: byte(k), Score: s, Plaintext: pt}
		}
	}
	return best
}

// Detection is the winning line of Detect.
type Detection struct {
	Line int // index into the input
	Candidate
}

// Detect decodes each hex line, breaks it, and returns the line whose best
// candidate scores highest. Earlier lines win ties. Blank lines are skipped.
func Detect(lines []string) (Detection, error) {
	var (
		best  Detection
		found bool
	)
	for i, line := range lines {
		if line == "" {
			continue
		}
		ct, err := codec.HexDecode(line)
		if err != nil {
			return Detection{}, fmt.Errorf("line %d: %w", i+1, err)
		}
		c := Break(ct)
		if !found || c.Score > best.Score {
			best = Detection{Line: i, Candidate: c}
			found = true
		}
	}
	if !found {
		return Detection{}, ErrNoCandidates
	}
	return best, nil
}
