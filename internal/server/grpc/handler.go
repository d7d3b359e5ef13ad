package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/cloudstorage/internal/cloudpb"
	"github.com/dmitrijs2005/cloudstorage/internal/common"
	"github.com/dmitrijs2005/cloudstorage/internal/server/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus maps service errors to fixed, detail-free statuses.
func toStatus(err error) error {
	switch {
	case errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.Unauthenticated, "unauthorized")
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, common.ErrorAlreadyExists):
		return status.Error(codes.AlreadyExists, "already exists")
	case errors.Is(err, common.ErrorInvalidInput):
		return status.Error(codes.InvalidArgument, "invalid input")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

func fileInfo(f models.FileSummary) cloudpb.FileInfo {
	return cloudpb.FileInfo{Filename: f.Filename, Size: f.Size, UploadTime: f.UploadTime}
}

func (s *GRPCServer) Login(ctx context.Context, req *cloudpb.LoginRequest) (*cloudpb.LoginResponse, error) {
	token, err := s.users.Login(ctx, req.Username, req.Password)
	if err != nil {
		return nil, toStatus(err)
	}

	s.logger.Info(ctx, "Logged in", "username", req.Username)
	return &cloudpb.LoginResponse{Token: token}, nil
}

func (s *GRPCServer) Logout(ctx context.Context, req *cloudpb.LogoutRequest) (*cloudpb.LogoutResponse, error) {
	if err := s.users.Logout(ctx, tokenFromContext(ctx)); err != nil {
		return nil, toStatus(err)
	}
	return &cloudpb.LogoutResponse{}, nil
}

func (s *GRPCServer) Upload(ctx context.Context, req *cloudpb.UploadRequest) (*cloudpb.UploadResponse, error) {
	f, err := s.files.Upload(ctx, tokenFromContext(ctx), req.Filename, req.Content)
	if err != nil {
		return nil, toStatus(err)
	}
	return &cloudpb.UploadResponse{File: fileInfo(f)}, nil
}

func (s *GRPCServer) Download(ctx context.Context, req *cloudpb.DownloadRequest) (*cloudpb.DownloadResponse, error) {
	data, err := s.files.Download(ctx, tokenFromContext(ctx), req.Filename)
	if err != nil {
		return nil, toStatus(err)
	}
	return &cloudpb.DownloadResponse{Content: data}, nil
}

func (s *GRPCServer) Rename(ctx context.Context, req *cloudpb.RenameRequest) (*cloudpb.RenameResponse, error) {
	f, err := s.files.Rename(ctx, tokenFromContext(ctx), req.Filename, req.NewFilename)
	if err != nil {
		return nil, toStatus(err)
	}
	return &cloudpb.RenameResponse{File: fileInfo(f)}, nil
}

func (s *GRPCServer) Delete(ctx context.Context, req *cloudpb.DeleteRequest) (*cloudpb.DeleteResponse, error) {
	if err := s.files.Delete(ctx, tokenFromContext(ctx), req.Filename); err != nil {
		return nil, toStatus(err)
	}
	return &cloudpb.DeleteResponse{}, nil
}

func (s *GRPCServer) List(ctx context.Context, req *cloudpb.ListRequest) (*cloudpb.ListResponse, error) {
	files, err := s.files.List(ctx, tokenFromContext(ctx), int(req.Limit))
	if err != nil {
		return nil, toStatus(err)
	}

	out := make([]cloudpb.FileInfo, 0, len(files))
	for _, f := range files {
		out = append(out, fileInfo(f))
	}
	return &cloudpb.ListResponse{Files: out}, nil
}
