package cloudpb

import (
	"bytes"
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protowire"
)

// fieldFunc decodes the value of field num from b and reports how many bytes
// it used. Zero means the field is unknown and gets skipped.
type fieldFunc func(num protowire.Number, typ protowire.Type, b []byte) (int, error)

func consumeFields(b []byte, fn fieldFunc) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		n, err := fn(num, typ, b)
		if err != nil {
			return fmt.Errorf("cloudpb: field %d: %w", num, err)
		}
		if n == 0 {
			if n = protowire.ConsumeFieldValue(num, typ, b); n < 0 {
				return protowire.ParseError(n)
			}
		}
		b = b[n:]
	}
	return nil
}

func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendMessage(b []byte, num protowire.Number, m message) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, m.appendWire(nil))
}

func consumeBytes(typ protowire.Type, b []byte) ([]byte, int, error) {
	if typ != protowire.BytesType {
		return nil, 0, fmt.Errorf("wire type %d, want bytes", typ)
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return nil, 0, protowire.ParseError(n)
	}
	return v, n, nil
}

func consumeVarint(typ protowire.Type, b []byte) (uint64, int, error) {
	if typ != protowire.VarintType {
		return 0, 0, fmt.Errorf("wire type %d, want varint", typ)
	}
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, 0, protowire.ParseError(n)
	}
	return v, n, nil
}

func stringField(dst *string) func(protowire.Type, []byte) (int, error) {
	return func(typ protowire.Type, b []byte) (int, error) {
		v, n, err := consumeBytes(typ, b)
		if err == nil {
			*dst = string(v)
		}
		return n, err
	}
}

// bytesField copies the value out, since the input buffer may be reused.
func bytesField(dst *[]byte) func(protowire.Type, []byte) (int, error) {
	return func(typ protowire.Type, b []byte) (int, error) {
		v, n, err := consumeBytes(typ, b)
		if err == nil {
			*dst = bytes.Clone(v)
		}
		return n, err
	}
}

func messageField(m message) func(protowire.Type, []byte) (int, error) {
	return func(typ protowire.Type, b []byte) (int, error) {
		v, n, err := consumeBytes(typ, b)
		if err != nil {
			return n, err
		}
		return n, m.consumeWire(v)
	}
}

// fields maps field numbers to decoders.
type fields map[protowire.Number]func(protowire.Type, []byte) (int, error)

func (f fields) consume(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		dec, ok := f[num]
		if !ok {
			return 0, nil
		}
		return dec(typ, b)
	})
}

// timestamp has the layout of google.protobuf.Timestamp.
type timestamp struct {
	t *time.Time
}

func (ts timestamp) appendWire(b []byte) []byte {
	b = appendVarint(b, 1, uint64(ts.t.Unix()))
	return appendVarint(b, 2, uint64(int64(ts.t.Nanosecond())))
}

func (ts timestamp) consumeWire(b []byte) error {
	var secs, nanos uint64
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var n int
		var err error
		switch num {
		case 1:
			secs, n, err = consumeVarint(typ, b)
		case 2:
			nanos, n, err = consumeVarint(typ, b)
		}
		return n, err
	})
	if err != nil {
		return err
	}
	*ts.t = time.Unix(int64(secs), int64(int32(nanos))).UTC()
	return nil
}

func (m *LoginRequest) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.Username)
	return appendString(b, 2, m.Password)
}

func (m *LoginRequest) consumeWire(b []byte) error {
	*m = LoginRequest{}
	return fields{1: stringField(&m.Username), 2: stringField(&m.Password)}.consume(b)
}

func (m *LoginResponse) appendWire(b []byte) []byte {
	return appendString(b, 1, m.Token)
}

func (m *LoginResponse) consumeWire(b []byte) error {
	*m = LoginResponse{}
	return fields{1: stringField(&m.Token)}.consume(b)
}

func (m *LogoutRequest) appendWire(b []byte) []byte { return b }

func (m *LogoutRequest) consumeWire(b []byte) error { return fields{}.consume(b) }

func (m *LogoutResponse) appendWire(b []byte) []byte { return b }

func (m *LogoutResponse) consumeWire(b []byte) error { return fields{}.consume(b) }

func (m *FileInfo) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.Filename)
	b = appendVarint(b, 2, uint64(m.Size))
	if !m.UploadTime.IsZero() {
		b = appendMessage(b, 3, timestamp{&m.UploadTime})
	}
	return b
}

func (m *FileInfo) consumeWire(b []byte) error {
	*m = FileInfo{}
	return fields{
		1: stringField(&m.Filename),
		2: func(typ protowire.Type, b []byte) (int, error) {
			v, n, err := consumeVarint(typ, b)
			m.Size = int64(v)
			return n, err
		},
		3: messageField(timestamp{&m.UploadTime}),
	}.consume(b)
}

func (m *UploadRequest) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.Filename)
	return appendBytes(b, 2, m.Content)
}

func (m *UploadRequest) consumeWire(b []byte) error {
	*m = UploadRequest{}
	return fields{1: stringField(&m.Filename), 2: bytesField(&m.Content)}.consume(b)
}

func (m *UploadResponse) appendWire(b []byte) []byte {
	return appendMessage(b, 1, &m.File)
}

func (m *UploadResponse) consumeWire(b []byte) error {
	*m = UploadResponse{}
	return fields{1: messageField(&m.File)}.consume(b)
}

func (m *DownloadRequest) appendWire(b []byte) []byte {
	return appendString(b, 1, m.Filename)
}

func (m *DownloadRequest) consumeWire(b []byte) error {
	*m = DownloadRequest{}
	return fields{1: stringField(&m.Filename)}.consume(b)
}

func (m *DownloadResponse) appendWire(b []byte) []byte {
	return appendBytes(b, 1, m.Content)
}

func (m *DownloadResponse) consumeWire(b []byte) error {
	*m = DownloadResponse{}
	return fields{1: bytesField(&m.Content)}.consume(b)
}

func (m *RenameRequest) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.Filename)
	return appendString(b, 2, m.NewFilename)
}

func (m *RenameRequest) consumeWire(b []byte) error {
	*m = RenameRequest{}
	return fields{1: stringField(&m.Filename), 2: stringField(&m.NewFilename)}.consume(b)
}

func (m *RenameResponse) appendWire(b []byte) []byte {
	return appendMessage(b, 1, &m.File)
}

func (m *RenameResponse) consumeWire(b []byte) error {
	*m = RenameResponse{}
	return fields{1: messageField(&m.File)}.consume(b)
}

func (m *DeleteRequest) appendWire(b []byte) []byte {
	return appendString(b, 1, m.Filename)
}

func (m *DeleteRequest) consumeWire(b []byte) error {
	*m = DeleteRequest{}
	return fields{1: stringField(&m.Filename)}.consume(b)
}

func (m *DeleteResponse) appendWire(b []byte) []byte { return b }

func (m *DeleteResponse) consumeWire(b []byte) error { return fields{}.consume(b) }

func (m *ListRequest) appendWire(b []byte) []byte {
	return appendVarint(b, 1, uint64(int64(m.Limit)))
}

func (m *ListRequest) consumeWire(b []byte) error {
	*m = ListRequest{}
	return fields{
		1: func(typ protowire.Type, b []byte) (int, error) {
			v, n, err := consumeVarint(typ, b)
			m.Limit = int32(v)
			return n, err
		},
	}.consume(b)
}

func (m *ListResponse) appendWire(b []byte) []byte {
	for i := range m.Files {
		b = appendMessage(b, 1, &m.Files[i])
	}
	return b
}

func (m *ListResponse) consumeWire(b []byte) error {
	*m = ListResponse{}
	return fields{
		1: func(typ protowire.Type, b []byte) (int, error) {
			var f FileInfo
			n, err := messageField(&f)(typ, b)
			if err == nil {
				m.Files = append(m.Files, f)
			}
			return n, err
		},
	}.consume(b)
}
