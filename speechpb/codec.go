package speechpb

import (
	"fmt"

	"google.golang.org/grpc/encoding"
)

type wireMessage interface {
	Marshal() ([]byte, error)
	Unmarshal([]byte) error
}

// Codec carries the messages of this package over gRPC. It reports the name
// "proto" so peers see the usual application/grpc+proto content type. It is
// not registered globally; use it with grpc.ForceCodec or
// grpc.ForceServerCodec.
type Codec struct{}

var _ encoding.Codec = Codec{}

func (Codec) Marshal(v any) ([]byte, error) {
	m, ok := v.(wireMessage)
	if !ok {
		return nil, fmt.Errorf("speechpb: cannot marshal %T", v)
	}
	return m.Marshal()
}

func (Codec) Unmarshal(data []byte, v any) error {
	m, ok := v.(wireMessage)
	if !ok {
		return fmt.Errorf("speechpb: cannot unmarshal into %T", v)
	}
	return m.Unmarshal(data)
}

func (Codec) Name() string {
	return "proto"
}
