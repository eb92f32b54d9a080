package serde

import (
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// CBOR encodes with Core Deterministic Encoding (RFC 8949 §4.2), so equal
// results always produce equal records. Times are written as RFC 3339
// strings with nanoseconds. The zero value is ready to use.
type CBOR[V any] struct{}

var _ Codec[struct{}] = CBOR[struct{}]{}

type cborModes struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

var loadCBOR = sync.OnceValues(func() (cborModes, error) {
	eo := cbor.CoreDetEncOptions()
	eo.Time = cbor.TimeRFC3339Nano
	enc, err := eo.EncMode()
	if err != nil {
		return cborModes{}, err
	}
	// reject records claiming more than a stored result could hold
	dec, err := cbor.DecOptions{MaxArrayElements: 1 << 16, MaxMapPairs: 1 << 16}.DecMode()
	if err != nil {
		return cborModes{}, err
	}
	return cborModes{enc: enc, dec: dec}, nil
})

func (CBOR[V]) Encode(v V) ([]byte, error) {
	m, err := loadCBOR()
	if err != nil {
		return nil, err
	}
	return m.enc.Marshal(v)
}

func (CBOR[V]) Decode(b []byte) (V, error) {
	var v V
	m, err := loadCBOR()
	if err != nil {
		return v, err
	}
	err = m.dec.Unmarshal(b, &v)
	return v, err
}
