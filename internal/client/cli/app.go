// Package cli implements the cloudstorage command line client on cobra.
package cli

import (
	"bufio"
	"context"
	"io"
	"time"

	"github.com/dmitrijs2005/cloudstorage/internal/client/client"
	"github.com/dmitrijs2005/cloudstorage/internal/client/config"
	"github.com/dmitrijs2005/cloudstorage/internal/cloudpb"
	"github.com/spf13/afero"
)

// Dialer opens a connection to the server described by cfg.
type Dialer func(cfg *config.Config) (client.Client, error)

// DialGRPC is the Dialer used outside tests.
func DialGRPC(cfg *config.Config) (client.Client, error) {
	return client.NewGRPCClient(cfg.ServerEndpointAddr, cloudpb.MaxMessageSize(cfg.MaxUploadBytes))
}

type App struct {
	fs     afero.Fs
	in     *bufio.Reader
	out    io.Writer
	dial   Dialer
	now    func() time.Time
	config *config.Config
}

func NewApp(fsys afero.Fs, in io.Reader, out io.Writer, dial Dialer) *App {
	return &App{fs: fsys, in: bufio.NewReader(in), out: out, dial: dial, now: time.Now}
}

func (a *App) tokenStore() *client.TokenStore {
	return client.NewTokenStore(a.fs, a.config.TokenFile)
}

// session dials the server with the saved token attached. The caller must
// run the returned cleanup.
func (a *App) session(ctx context.Context, needToken bool) (client.Client, context.Context, func(), error) {
	var token string
	if needToken {
		t, err := a.tokenStore().Load()
		if err != nil {
			return nil, nil, nil, err
		}
		token = t
	}

	c, err := a.dial(a.config)
	if err != nil {
		return nil, nil, nil, err
	}
	c.SetToken(token)

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	cleanup := func() {
		cancel()
		_ = c.Close()
	}
	return c, ctx, cleanup, nil
}
