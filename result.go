package gopals

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/unkn0wn-root/gopals/serde"
)

type Status string

const (
	StatusOK     Status = "OK"
	StatusFailed Status = "FAILED"
)

// Result is the outcome of one scenario in one run.
type Result struct {
	Scenario string        `json:"scenario" msgpack:"scenario" cbor:"scenario"`
	Op       Op            `json:"op" msgpack:"op" cbor:"op"`
	Status   Status        `json:"status" msgpack:"status" cbor:"status"`
	Message  string        `json:"message,omitempty" msgpack:"message,omitempty" cbor:"message,omitempty"`
	Run      uint64        `json:"run" msgpack:"run" cbor:"run"` // 0 when history is disabled
	Elapsed  time.Duration `json:"elapsed_ns" msgpack:"elapsed_ns" cbor:"elapsed_ns"`
	At       time.Time     `json:"at" msgpack:"at" cbor:"at"`
}

func (r Result) OK() bool { return r.Status == StatusOK }

// String renders "OK" or "FAILED(message)".
func (r Result) String() string {
	if r.OK() {
		return string(StatusOK)
	}
	return fmt.Sprintf("%s(%s)", StatusFailed, r.Message)
}

// ResultCodec returns the serializer for a named format. CBOR is
// deterministic so identical results produce identical records.
func ResultCodec(f serde.Format) (serde.Codec[Result], error) {
	switch f {
	case serde.FormatJSON, "":
		return serde.JSON[Result]{}, nil
	case serde.FormatMsgpack:
		return serde.Msgpack[Result]{}, nil
	case serde.FormatCBOR:
		return serde.CBOR[Result]{}, nil
	case serde.FormatProtobuf:
		return serde.Mapped[Result, *structpb.Struct]{
			Inner: serde.NewProtobuf(func() *structpb.Struct { return &structpb.Struct{} }),
			To:    resultToStruct,
			From:  resultFromStruct,
		}, nil
	default:
		return nil, fmt.Errorf("gopals: unknown result format %q", f)
	}
}

func resultToStruct(r Result) (*structpb.Struct, error) {
	m := map[string]any{
		"scenario":   r.Scenario,
		"op":         string(r.Op),
		"status":     string(r.Status),
		"run":        r.Run,
		"elapsed_ns": int64(r.Elapsed),
	}
	if r.Message != "" {
		m["message"] = r.Message
	}
	if !r.At.IsZero() {
		m["at"] = r.At.Format(time.RFC3339Nano)
	}
	return structpb.NewStruct(m)
}

func resultFromStruct(s *structpb.Struct) (Result, error) {
	f := s.GetFields()
	r := Result{
		Scenario: f["scenario"].GetStringValue(),
		Op:       Op(f["op"].GetStringValue()),
		Status:   Status(f["status"].GetStringValue()),
		Message:  f["message"].GetStringValue(),
		Run:      uint64(f["run"].GetNumberValue()),
		Elapsed:  time.Duration(f["elapsed_ns"].GetNumberValue()),
	}
	if at := f["at"].GetStringValue(); at != "" {
		t, err := time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return Result{}, fmt.Errorf("gopals: result time: %w", err)
		}
		r.At = t
	}
	return r, nil
}
