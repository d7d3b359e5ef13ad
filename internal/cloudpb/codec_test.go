package cloudpb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/types/known/timestamppb"
)

func TestCodecRegistered(t *testing.T) {
	c := encoding.GetCodec(CodecName)
	require.NotNil(t, c)
	assert.Equal(t, CodecName, c.Name())
}

func TestCodec_BinaryContentSurvives(t *testing.T) {
	c := wireCodec{}
	in := &UploadRequest{Filename: "bin.dat", Content: []byte{0x00, 0xff, 0x10, '\n'}}

	b, err := c.Marshal(in)
	require.NoError(t, err)
	assert.Equal(t, []byte{
		0x0a, 0x07, 'b', 'i', 'n', '.', 'd', 'a', 't',
		0x12, 0x04, 0x00, 0xff, 0x10, '\n',
	}, b)

	out := &UploadRequest{}
	require.NoError(t, c.Unmarshal(b, out))
	assert.Equal(t, in, out)

	b[len(b)-1] = 'x'
	assert.Equal(t, byte('\n'), out.Content[3], "decoded content must not alias the input")
}

func TestCodec_RoundTrip(t *testing.T) {
	c := wireCodec{}
	at := time.Date(2026, 5, 1, 12, 30, 0, 123456789, time.UTC)

	tests := map[string]struct {
		in, out message
	}{
		"login":       {&LoginRequest{Username: "alice", Password: "pw"}, &LoginRequest{}},
		"token":       {&LoginResponse{Token: "t.o.k"}, &LoginResponse{}},
		"logout":      {&LogoutRequest{}, &LogoutRequest{}},
		"upload resp": {&UploadResponse{File: FileInfo{Filename: "a.txt", Size: 10, UploadTime: at}}, &UploadResponse{}},
		"download":    {&DownloadResponse{Content: []byte("hello")}, &DownloadResponse{}},
		"rename":      {&RenameRequest{Filename: "a.txt", NewFilename: "b.txt"}, &RenameRequest{}},
		"rename resp": {&RenameResponse{File: FileInfo{Filename: "b.txt"}}, &RenameResponse{}},
		"delete":      {&DeleteRequest{Filename: "a.txt"}, &DeleteRequest{}},
		"list limit":  {&ListRequest{Limit: -1}, &ListRequest{}},
		"list": {&ListResponse{Files: []FileInfo{
			{Filename: "a", Size: 1, UploadTime: at},
			{Filename: "b", Size: 0},
			{Filename: "c", Size: 3 << 30, UploadTime: time.Unix(0, 0).UTC()},
		}}, &ListResponse{}},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			b, err := c.Marshal(tt.in)
			require.NoError(t, err)
			require.NoError(t, c.Unmarshal(b, tt.out))
			assert.Equal(t, tt.in, tt.out)
		})
	}
}

func TestCodec_UploadTimeIsProtobufTimestamp(t *testing.T) {
	at := time.Date(2026, 5, 1, 12, 30, 0, 42, time.UTC)
	b, err := wireCodec{}.Marshal(&FileInfo{Filename: "a", UploadTime: at})
	require.NoError(t, err)

	var nested []byte
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		require.Positive(t, n)
		b = b[n:]
		if num == 3 {
			v, m := protowire.ConsumeBytes(b)
			require.Positive(t, m)
			nested = v
			break
		}
		b = b[protowire.ConsumeFieldValue(num, typ, b):]
	}
	require.NotNil(t, nested)

	ts := &timestamppb.Timestamp{}
	require.NoError(t, wireCodec{}.Unmarshal(nested, ts))
	assert.Equal(t, at, ts.AsTime())
}

func TestCodec_SkipsUnknownFields(t *testing.T) {
	var b []byte
	b = protowire.AppendTag(b, 9, protowire.VarintType)
	b = protowire.AppendVarint(b, 7)
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendString(b, "a.txt")
	b = protowire.AppendTag(b, 10, protowire.BytesType)
	b = protowire.AppendString(b, "ignored")

	out := &DeleteRequest{}
	require.NoError(t, wireCodec{}.Unmarshal(b, out))
	assert.Equal(t, "a.txt", out.Filename)
}

func TestCodec_Errors(t *testing.T) {
	c := wireCodec{}

	_, err := c.Marshal(struct{}{})
	assert.ErrorContains(t, err, "cannot marshal")
	assert.ErrorContains(t, c.Unmarshal(nil, &struct{}{}), "cannot unmarshal")

	truncated := []byte{0x0a, 0x07, 'b', 'i'}
	assert.Error(t, c.Unmarshal(truncated, &UploadRequest{}))

	var wrongType []byte
	wrongType = protowire.AppendTag(wrongType, 1, protowire.VarintType)
	wrongType = protowire.AppendVarint(wrongType, 1)
	assert.ErrorContains(t, c.Unmarshal(wrongType, &DeleteRequest{}), "field 1")
}

func TestCodec_ProtoMessagesPassThrough(t *testing.T) {
	c := wireCodec{}
	in := timestamppb.New(time.Unix(5, 6))

	b, err := c.Marshal(in)
	require.NoError(t, err)
	out := &timestamppb.Timestamp{}
	require.NoError(t, c.Unmarshal(b, out))
	assert.Equal(t, in.AsTime(), out.AsTime())
}

func TestServiceDesc(t *testing.T) {
	assert.Equal(t, ServiceName, ServiceDesc.ServiceName)

	names := map[string]bool{}
	for _, m := range ServiceDesc.Methods {
		names[m.MethodName] = true
		assert.NotNil(t, m.Handler)
	}
	for _, want := range []string{"Login", "Logout", "Upload", "Download", "Rename", "Delete", "List"} {
		assert.True(t, names[want], "missing method %s", want)
	}
}

func TestMaxMessageSize(t *testing.T) {
	assert.Equal(t, messageOverhead, MaxMessageSize(0))

	content := make([]byte, 3000)
	b, err := wireCodec{}.Marshal(&UploadRequest{Filename: "f", Content: content})
	require.NoError(t, err)
	assert.Less(t, len(b), MaxMessageSize(int64(len(content))))
}
