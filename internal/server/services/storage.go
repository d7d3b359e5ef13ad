package services

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/dmitrijs2005/cloudstorage/internal/common"
	"github.com/dmitrijs2005/cloudstorage/internal/logging"
	"github.com/dmitrijs2005/cloudstorage/internal/server/access"
	"github.com/dmitrijs2005/cloudstorage/internal/server/models"
)

type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (*models.User, error)
}

// Engine is the storage engine as seen by StorageService.
type Engine interface {
	Put(ctx context.Context, ownerID, filename string, r io.Reader, declaredSize int64) (*models.File, error)
	Get(ctx context.Context, ownerID, filename string) ([]byte, error)
	Rename(ctx context.Context, ownerID, oldName, newName string) (*models.File, error)
	SoftDelete(ctx context.Context, ownerID, filename string) error
	List(ctx context.Context, ownerID string, limit int) ([]*models.File, error)
}

// StorageService resolves the caller and runs the storage operation. Expected
// outcomes come back as their bare common sentinel; storage and unknown
// failures are logged and come back as common.ErrorStorage or
// common.ErrorInternal without detail.
type StorageService struct {
	gate   Authenticator
	engine Engine
	logger logging.Logger
}

func NewStorageService(gate Authenticator, engine Engine, logger logging.Logger) *StorageService {
	return &StorageService{gate: gate, engine: engine, logger: logger.With("module", "files")}
}

// identify prefers the user an interceptor already put in ctx.
func (s *StorageService) identify(ctx context.Context, token string) (*models.User, error) {
	if u, ok := access.UserFromContext(ctx); ok {
		return u, nil
	}
	return s.gate.Authenticate(ctx, token)
}

var expected = []error{
	common.ErrorUnauthorized,
	common.ErrorNotFound,
	common.ErrorAlreadyExists,
	common.ErrorInvalidInput,
}

func (s *StorageService) fail(ctx context.Context, op, owner, filename string, err error) error {
	for _, kind := range expected {
		if errors.Is(err, kind) {
			return kind
		}
	}

	s.logger.Error(ctx, "storage operation failed", "op", op, "owner", owner, "filename", filename, "error", err)
	if errors.Is(err, common.ErrorStorage) {
		return common.ErrorStorage
	}
	return common.ErrorInternal
}

func (s *StorageService) Upload(ctx context.Context, token, filename string, content []byte) (models.FileSummary, error) {
	u, err := s.identify(ctx, token)
	if err != nil {
		return models.FileSummary{}, s.fail(ctx, "upload", "", filename, err)
	}

	f, err := s.engine.Put(ctx, u.ID, filename, bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return models.FileSummary{}, s.fail(ctx, "upload", u.ID, filename, err)
	}

	s.logger.Info(ctx, "file uploaded", "owner", u.ID, "filename", filename, "size", f.Size)
	return f.Summary(), nil
}

func (s *StorageService) Download(ctx context.Context, token, filename string) ([]byte, error) {
	u, err := s.identify(ctx, token)
	if err != nil {
		return nil, s.fail(ctx, "download", "", filename, err)
	}

	data, err := s.engine.Get(ctx, u.ID, filename)
	if err != nil {
		return nil, s.fail(ctx, "download", u.ID, filename, err)
	}
	return data, nil
}

func (s *StorageService) Rename(ctx context.Context, token, oldName, newName string) (models.FileSummary, error) {
	u, err := s.identify(ctx, token)
	if err != nil {
		return models.FileSummary{}, s.fail(ctx, "rename", "", oldName, err)
	}

	f, err := s.engine.Rename(ctx, u.ID, oldName, newName)
	if err != nil {
		return models.FileSummary{}, s.fail(ctx, "rename", u.ID, oldName, err)
	}

	s.logger.Info(ctx, "file renamed", "owner", u.ID, "from", oldName, "to", newName)
	return f.Summary(), nil
}

func (s *StorageService) Delete(ctx context.Context, token, filename string) error {
	u, err := s.identify(ctx, token)
	if err != nil {
		return s.fail(ctx, "delete", "", filename, err)
	}

	if err := s.engine.SoftDelete(ctx, u.ID, filename); err != nil {
		return s.fail(ctx, "delete", u.ID, filename, err)
	}

	s.logger.Info(ctx, "file deleted", "owner", u.ID, "filename", filename)
	return nil
}

func (s *StorageService) List(ctx context.Context, token string, limit int) ([]models.FileSummary, error) {
	u, err := s.identify(ctx, token)
	if err != nil {
		return nil, s.fail(ctx, "list", "", "", err)
	}

	files, err := s.engine.List(ctx, u.ID, limit)
	if err != nil {
		return nil, s.fail(ctx, "list", u.ID, "", err)
	}

	out := make([]models.FileSummary, 0, len(files))
	for _, f := range files {
		out = append(out, f.Summary())
	}
	return out, nil
}
