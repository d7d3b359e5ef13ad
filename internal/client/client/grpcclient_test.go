package client

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/cloudstorage/internal/cloudpb"
	"github.com/dmitrijs2005/cloudstorage/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

/*************
 * Fake cloudpb client
 *************/

type fakePB struct {
	// inputs captured
	lastLoginReq  *cloudpb.LoginRequest
	lastUploadReq *cloudpb.UploadRequest
	lastRenameReq *cloudpb.RenameRequest
	lastDeleteReq *cloudpb.DeleteRequest
	lastListReq   *cloudpb.ListRequest
	logoutCalls   int

	// outputs preset
	loginResp *cloudpb.LoginResponse
	err       error
}

func (f *fakePB) Login(ctx context.Context, in *cloudpb.LoginRequest, opts ...grpc.CallOption) (*cloudpb.LoginResponse, error) {
	f.lastLoginReq = in
	return f.loginResp, f.err
}

func (f *fakePB) Logout(ctx context.Context, in *cloudpb.LogoutRequest, opts ...grpc.CallOption) (*cloudpb.LogoutResponse, error) {
	f.logoutCalls++
	return &cloudpb.LogoutResponse{}, f.err
}

func (f *fakePB) Upload(ctx context.Context, in *cloudpb.UploadRequest, opts ...grpc.CallOption) (*cloudpb.UploadResponse, error) {
	f.lastUploadReq = in
	return &cloudpb.UploadResponse{File: cloudpb.FileInfo{Filename: in.Filename, Size: int64(len(in.Content))}}, f.err
}

func (f *fakePB) Download(ctx context.Context, in *cloudpb.DownloadRequest, opts ...grpc.CallOption) (*cloudpb.DownloadResponse, error) {
	return &cloudpb.DownloadResponse{Content: []byte("data:" + in.Filename)}, f.err
}

func (f *fakePB) Rename(ctx context.Context, in *cloudpb.RenameRequest, opts ...grpc.CallOption) (*cloudpb.RenameResponse, error) {
	f.lastRenameReq = in
	return &cloudpb.RenameResponse{File: cloudpb.FileInfo{Filename: in.NewFilename}}, f.err
}

func (f *fakePB) Delete(ctx context.Context, in *cloudpb.DeleteRequest, opts ...grpc.CallOption) (*cloudpb.DeleteResponse, error) {
	f.lastDeleteReq = in
	return &cloudpb.DeleteResponse{}, f.err
}

func (f *fakePB) List(ctx context.Context, in *cloudpb.ListRequest, opts ...grpc.CallOption) (*cloudpb.ListResponse, error) {
	f.lastListReq = in
	return &cloudpb.ListResponse{Files: []cloudpb.FileInfo{{Filename: "a"}, {Filename: "b"}}}, f.err
}

func newWithFake(f *fakePB) *GRPCClient {
	return &GRPCClient{client: f}
}

func TestGRPCClient_LoginStoresToken(t *testing.T) {
	f := &fakePB{loginResp: &cloudpb.LoginResponse{Token: "tok"}}
	c := newWithFake(f)

	token, err := c.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok", token)
	assert.Equal(t, "tok", c.currentToken())
	assert.Equal(t, "alice", f.lastLoginReq.Username)
	assert.Equal(t, "pw", f.lastLoginReq.Password)
}

func TestGRPCClient_LoginError(t *testing.T) {
	f := &fakePB{err: status.Error(codes.Unauthenticated, "unauthorized")}
	c := newWithFake(f)

	_, err := c.Login(context.Background(), "alice", "bad")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Empty(t, c.currentToken())
}

func TestGRPCClient_Logout(t *testing.T) {
	f := &fakePB{}
	c := newWithFake(f)

	assert.ErrorIs(t, c.Logout(context.Background()), ErrNotLoggedIn)
	assert.Equal(t, 0, f.logoutCalls)

	c.SetToken("tok")
	require.NoError(t, c.Logout(context.Background()))
	assert.Equal(t, 1, f.logoutCalls)
	assert.Empty(t, c.currentToken())
}

func TestGRPCClient_FileCalls(t *testing.T) {
	f := &fakePB{}
	c := newWithFake(f)
	ctx := context.Background()

	info, err := c.Upload(ctx, "a.txt", []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size)
	assert.Equal(t, "a.txt", f.lastUploadReq.Filename)

	data, err := c.Download(ctx, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "data:a.txt", string(data))

	info, err = c.Rename(ctx, "a.txt", "b.txt")
	require.NoError(t, err)
	assert.Equal(t, "b.txt", info.Filename)
	assert.Equal(t, "a.txt", f.lastRenameReq.Filename)

	require.NoError(t, c.Delete(ctx, "b.txt"))
	assert.Equal(t, "b.txt", f.lastDeleteReq.Filename)

	files, err := c.List(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, files, 2)
	assert.Equal(t, int32(3), f.lastListReq.Limit)
}

func TestGRPCClient_MapError(t *testing.T) {
	c := &GRPCClient{}

	tests := []struct {
		in   error
		want error
	}{
		{status.Error(codes.Unauthenticated, "x"), ErrUnauthorized},
		{status.Error(codes.PermissionDenied, "x"), ErrUnauthorized},
		{status.Error(codes.Unavailable, "x"), ErrUnavailable},
		{status.Error(codes.DeadlineExceeded, "x"), ErrUnavailable},
		{status.Error(codes.NotFound, "x"), ErrNotFound},
		{status.Error(codes.AlreadyExists, "x"), ErrAlreadyExists},
		{status.Error(codes.InvalidArgument, "x"), ErrInvalidInput},
	}
	for _, tt := range tests {
		assert.ErrorIs(t, c.mapError(tt.in), tt.want)
	}

	assert.NoError(t, c.mapError(nil))

	internal := status.Error(codes.Internal, "internal error")
	err := c.mapError(internal)
	require.Error(t, err)
	assert.True(t, errors.Is(err, internal))
}

func TestAccessTokenInterceptor(t *testing.T) {
	c := &GRPCClient{}

	var got metadata.MD
	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		got, _ = metadata.FromOutgoingContext(ctx)
		return nil
	}

	require.NoError(t, c.accessTokenInterceptor(context.Background(), cloudpb.ListMethod, nil, nil, nil, invoker))
	assert.Empty(t, got.Get(common.AuthTokenHeaderName))

	c.SetToken("tok")
	require.NoError(t, c.accessTokenInterceptor(context.Background(), cloudpb.ListMethod, nil, nil, nil, invoker))
	assert.Equal(t, []string{"tok"}, got.Get(common.AuthTokenHeaderName))

	got = nil
	require.NoError(t, c.accessTokenInterceptor(context.Background(), cloudpb.LoginMethod, nil, nil, nil, invoker))
	assert.Empty(t, got.Get(common.AuthTokenHeaderName))
}

func TestWithAccessToken_ReplacesExisting(t *testing.T) {
	ctx := metadata.AppendToOutgoingContext(context.Background(), common.AuthTokenHeaderName, "old", "x-other", "1")
	ctx = withAccessToken(ctx, "new")

	md, ok := metadata.FromOutgoingContext(ctx)
	require.True(t, ok)
	assert.Equal(t, []string{"new"}, md.Get(common.AuthTokenHeaderName))
	assert.Equal(t, []string{"1"}, md.Get("x-other"))
}

func TestNewGRPCClient_ClosesCleanly(t *testing.T) {
	c, err := NewGRPCClient("passthrough:///127.0.0.1:1", 1<<20)
	require.NoError(t, err)
	assert.NoError(t, c.Close())
}
