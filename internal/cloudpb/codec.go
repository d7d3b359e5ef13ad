// Package cloudpb is the wire contract between the cloudstorage server and
// its clients: message types, the gRPC service descriptor and a client stub.
// Messages travel in the protobuf binary format through a gRPC codec
// registered under CodecName.
package cloudpb

import (
	"fmt"

	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/proto"
)

// CodecName is the gRPC content subtype ("application/grpc+cloudpb").
const CodecName = "cloudpb"

// message is implemented by every request and response in this package.
type message interface {
	appendWire(b []byte) []byte
	consumeWire(b []byte) error
}

type wireCodec struct{}

func (wireCodec) Marshal(v any) ([]byte, error) {
	switch m := v.(type) {
	case message:
		return m.appendWire(nil), nil
	case proto.Message:
		return proto.Marshal(m)
	default:
		return nil, fmt.Errorf("cloudpb: cannot marshal %T", v)
	}
}

func (wireCodec) Unmarshal(data []byte, v any) error {
	switch m := v.(type) {
	case message:
		return m.consumeWire(data)
	case proto.Message:
		return proto.Unmarshal(data, m)
	default:
		return fmt.Errorf("cloudpb: cannot unmarshal into %T", v)
	}
}

func (wireCodec) Name() string {
	return CodecName
}

func init() {
	encoding.RegisterCodec(wireCodec{})
}

// messageOverhead covers the filename, tags and length prefixes around the
// content.
const messageOverhead = 64 << 10

// MaxMessageSize is the gRPC message limit that fits a file of maxUpload
// bytes.
func MaxMessageSize(maxUpload int64) int {
	return int(maxUpload) + messageOverhead
}
