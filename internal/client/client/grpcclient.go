package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/cloudstorage/internal/cloudpb"
	"github.com/dmitrijs2005/cloudstorage/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      cloudpb.CloudStorageClient

	mu    sync.RWMutex
	token string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AuthTokenHeaderName)
	md.Set(common.AuthTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if token := s.currentToken(); token != "" && method != cloudpb.LoginMethod {
		ctx = withAccessToken(ctx, token)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

// NewGRPCClient connects to endpointURL. maxMsgSize bounds both directions
// and should match the server's limit.
func NewGRPCClient(endpointURL string, maxMsgSize int, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(maxMsgSize),
			grpc.MaxCallSendMsgSize(maxMsgSize),
		),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, dialOpts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = cloudpb.NewCloudStorageClient(conn)
	return c, nil
}

func (s *GRPCClient) currentToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *GRPCClient) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// Login returns a session token and uses it for the following calls.
func (s *GRPCClient) Login(ctx context.Context, username, password string) (string, error) {
	resp, err := s.client.Login(ctx, &cloudpb.LoginRequest{Username: username, Password: password})
	if err != nil {
		return "", s.mapError(err)
	}

	s.SetToken(resp.Token)
	return resp.Token, nil
}

// Logout revokes the current token and forgets it.
func (s *GRPCClient) Logout(ctx context.Context) error {
	if s.currentToken() == "" {
		return ErrNotLoggedIn
	}
	if _, err := s.client.Logout(ctx, &cloudpb.LogoutRequest{}); err != nil {
		return s.mapError(err)
	}

	s.SetToken("")
	return nil
}

func (s *GRPCClient) Upload(ctx context.Context, filename string, content []byte) (cloudpb.FileInfo, error) {
	resp, err := s.client.Upload(ctx, &cloudpb.UploadRequest{Filename: filename, Content: content})
	if err != nil {
		return cloudpb.FileInfo{}, s.mapError(err)
	}
	return resp.File, nil
}

func (s *GRPCClient) Download(ctx context.Context, filename string) ([]byte, error) {
	resp, err := s.client.Download(ctx, &cloudpb.DownloadRequest{Filename: filename})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Content, nil
}

func (s *GRPCClient) Rename(ctx context.Context, filename, newFilename string) (cloudpb.FileInfo, error) {
	resp, err := s.client.Rename(ctx, &cloudpb.RenameRequest{Filename: filename, NewFilename: newFilename})
	if err != nil {
		return cloudpb.FileInfo{}, s.mapError(err)
	}
	return resp.File, nil
}

func (s *GRPCClient) Delete(ctx context.Context, filename string) error {
	if _, err := s.client.Delete(ctx, &cloudpb.DeleteRequest{Filename: filename}); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCClient) List(ctx context.Context, limit int) ([]cloudpb.FileInfo, error) {
	resp, err := s.client.List(ctx, &cloudpb.ListRequest{Limit: int32(limit)})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Files, nil
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return ErrUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.NotFound:
		return ErrNotFound
	case codes.AlreadyExists:
		return ErrAlreadyExists
	case codes.InvalidArgument:
		return ErrInvalidInput
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
