// Package serde serializes values (gopals run results, reports) to bytes for
// storage and export.
package serde

// Codec encodes/decodes values V to []byte.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

// Format names a wire format understood by the gopals CLI.
type Format string

const (
	FormatJSON     Format = "json"
	FormatMsgpack  Format = "msgpack"
	FormatCBOR     Format = "cbor"
	FormatProtobuf Format = "proto"
)

// Formats lists every supported format in a stable order.
func Formats() []Format {
	return []Format{FormatJSON, FormatMsgpack, FormatCBOR, FormatProtobuf}
}
