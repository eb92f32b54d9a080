package serde

import "google.golang.org/protobuf/proto"

type Protobuf[T proto.Message] struct {
	new func() T // e.g. func() *structpb.Struct { return &structpb.Struct{} }
}

func NewProtobuf[T proto.Message](ctor func() T) Protobuf[T] {
	return Protobuf[T]{new: ctor}
}

func (c Protobuf[T]) Encode(v T) ([]byte, error) {
	return proto.MarshalOptions{Deterministic: true}.Marshal(v)
}
func (c Protobuf[T]) Decode(b []byte) (T, error) {
	m := c.new()
	err := proto.Unmarshal(b, m)
	return m, err
}

// Mapped adapts a Codec[M] to a Codec[V] through a pair of conversions.
// It lets plain Go values travel as protobuf messages.
type Mapped[V, M any] struct {
	Inner Codec[M]
	To    func(V) (M, error)
	From  func(M) (V, error)
}

func (c Mapped[V, M]) Encode(v V) ([]byte, error) {
	m, err := c.To(v)
	if err != nil {
		return nil, err
	}
	return c.Inner.Encode(m)
}

func (c Mapped[V, M]) Decode(b []byte) (V, error) {
	m, err := c.Inner.Decode(b)
	if err != nil {
		var zero V
		return zero, err
	}
	return c.From(m)
}
