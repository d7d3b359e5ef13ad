package server

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/cloudstorage/internal/logging"
	"github.com/dmitrijs2005/cloudstorage/internal/server/blobs"
	"github.com/dmitrijs2005/cloudstorage/internal/server/config"
	"github.com/dmitrijs2005/cloudstorage/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	c := &config.Config{}
	c.LoadDefaults()
	c.EndpointAddrGRPC = "127.0.0.1:0"
	c.UploadDir = t.TempDir()
	c.SecretKey = "test-secret"
	return c
}

func TestNewBackend(t *testing.T) {
	c := testConfig(t)

	b, err := newBackend(context.Background(), c)
	require.NoError(t, err)
	assert.IsType(t, &blobs.FSBackend{}, b)

	c.StorageBackend = config.BackendS3
	b, err = newBackend(context.Background(), c)
	require.NoError(t, err)
	assert.IsType(t, &blobs.S3Backend{}, b)

	c.StorageBackend = "tape"
	_, err = newBackend(context.Background(), c)
	assert.Error(t, err)
}

func TestAssemble_EmptySecretFails(t *testing.T) {
	c := testConfig(t)

	_, err := assemble(context.Background(), c, nil, repomanager.NewPostgresRepositoryManager(), nil, logging.Discard())
	assert.Error(t, err)
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	c := testConfig(t)
	app, err := assemble(context.Background(), c, db, repomanager.NewPostgresRepositoryManager(), []byte(c.SecretKey), logging.Discard())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("app did not stop after cancel")
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApp_RunReportsListenError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	c := testConfig(t)
	c.EndpointAddrGRPC = "127.0.0.1:99999"
	app, err := assemble(context.Background(), c, db, repomanager.NewPostgresRepositoryManager(), []byte(c.SecretKey), logging.Discard())
	require.NoError(t, err)

	assert.Error(t, app.Run(context.Background()))
}
