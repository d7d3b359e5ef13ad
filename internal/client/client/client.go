package client

import (
	"context"

	"github.com/dmitrijs2005/cloudstorage/internal/cloudpb"
)

// Client is the remote cloud storage as seen by the CLI.
type Client interface {
	Close() error
	SetToken(token string)
	Login(ctx context.Context, username, password string) (string, error)
	Logout(ctx context.Context) error
	Upload(ctx context.Context, filename string, content []byte) (cloudpb.FileInfo, error)
	Download(ctx context.Context, filename string) ([]byte, error)
	Rename(ctx context.Context, filename, newFilename string) (cloudpb.FileInfo, error)
	Delete(ctx context.Context, filename string) error
	List(ctx context.Context, limit int) ([]cloudpb.FileInfo, error)
}
