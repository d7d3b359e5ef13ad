// Package grpc exposes the user and storage services over gRPC.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/cloudstorage/internal/cloudpb"
	"github.com/dmitrijs2005/cloudstorage/internal/logging"
	"github.com/dmitrijs2005/cloudstorage/internal/server/models"
	"google.golang.org/grpc"
)

type UserService interface {
	Login(ctx context.Context, username, password string) (string, error)
	Logout(ctx context.Context, token string) error
}

type FileService interface {
	Upload(ctx context.Context, token, filename string, content []byte) (models.FileSummary, error)
	Download(ctx context.Context, token, filename string) ([]byte, error)
	Rename(ctx context.Context, token, oldName, newName string) (models.FileSummary, error)
	Delete(ctx context.Context, token, filename string) error
	List(ctx context.Context, token string, limit int) ([]models.FileSummary, error)
}

type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (*models.User, error)
}

type GRPCServer struct {
	address    string
	users      UserService
	files      FileService
	gate       Authenticator
	logger     logging.Logger
	maxMsgSize int
}

// NewGRPCServer builds a server accepting uploads of up to maxUpload bytes.
func NewGRPCServer(address string, l logging.Logger, us UserService, fs FileService, gate Authenticator, maxUpload int64) *GRPCServer {
	return &GRPCServer{
		address:    address,
		users:      us,
		files:      fs,
		gate:       gate,
		logger:     l.With("module", "grpc_server"),
		maxMsgSize: cloudpb.MaxMessageSize(maxUpload),
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(s.accessTokenInterceptor),
		grpc.MaxRecvMsgSize(s.maxMsgSize),
		grpc.MaxSendMsgSize(s.maxMsgSize),
	)
	cloudpb.RegisterCloudStorageServer(srv, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)
	return s.serve(ctx, listen)
}

func (s *GRPCServer) serve(ctx context.Context, listen net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	if err := srv.Serve(listen); err != nil {
		return err
	}
	return nil
}
