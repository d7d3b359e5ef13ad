// Package storage keeps blobs and file records consistent for each
// (owner, filename).
//
// Upload stages the bytes, then inserts the record and moves the blob into
// place inside one transaction that commits only after the move. Rename
// updates the record and moves the blob the same way. A failed move rolls
// the record back and clears whatever half of the move happened; a failed
// commit undoes the move. Both cleanups are best effort.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/cloudstorage/internal/common"
	"github.com/dmitrijs2005/cloudstorage/internal/dbx"
	"github.com/dmitrijs2005/cloudstorage/internal/logging"
	"github.com/dmitrijs2005/cloudstorage/internal/server/blobs"
	"github.com/dmitrijs2005/cloudstorage/internal/server/models"
	"github.com/dmitrijs2005/cloudstorage/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// DefaultMaxUploadBytes is used when Options.MaxUploadBytes is not set.
const DefaultMaxUploadBytes int64 = 32 << 20

type Options struct {
	MaxUploadBytes int64
}

type txRunner func(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error

type Engine struct {
	db      *sql.DB
	repos   repomanager.RepositoryManager
	blobs   blobs.Backend
	locks   *keyedMutex
	logger  logging.Logger
	maxSize int64

	withTx txRunner
	now    func() time.Time
	newID  func() string
}

// NewEngine prepares the backend root. An Init failure is returned as is and
// must stop the server.
func NewEngine(ctx context.Context, db *sql.DB, repos repomanager.RepositoryManager, backend blobs.Backend, opts Options, logger logging.Logger) (*Engine, error) {
	if err := backend.Init(ctx); err != nil {
		return nil, err
	}

	maxSize := opts.MaxUploadBytes
	if maxSize <= 0 {
		maxSize = DefaultMaxUploadBytes
	}

	return &Engine{
		db:      db,
		repos:   repos,
		blobs:   backend,
		locks:   newKeyedMutex(),
		logger:  logger.With("module", "storage"),
		maxSize: maxSize,
		withTx: func(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
			return dbx.WithTx(ctx, db, nil, fn)
		},
		now:   time.Now,
		newID: uuid.NewString,
	}, nil
}

// MaxUploadBytes is the largest accepted upload.
func (e *Engine) MaxUploadBytes() int64 {
	return e.maxSize
}

// storageErr hides the cause's sentinel so a backend not-found never reads
// as a missing record.
func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", common.ErrorStorage, op, err)
}

// Put stores r as filename for ownerID. declaredSize < 0 means unknown;
// otherwise the stored length must match it.
func (e *Engine) Put(ctx context.Context, ownerID, filename string, r io.Reader, declaredSize int64) (*models.File, error) {
	if err := ValidateFilename(filename); err != nil {
		return nil, err
	}
	if declaredSize > e.maxSize {
		return nil, blobs.ErrTooLarge
	}

	unlock := e.locks.Lock(lockKey(ownerID, filename))
	defer unlock()

	if err := e.ensureFree(ctx, ownerID, filename); err != nil {
		return nil, err
	}

	file := &models.File{
		ID:       e.newID(),
		OwnerID:  ownerID,
		Filename: filename,
	}
	file.StoragePath = storageKey(ownerID, file.ID, filename)

	taken, err := e.blobs.Exists(ctx, file.StoragePath)
	if err != nil {
		return nil, storageErr("stat target", err)
	}
	if taken {
		return nil, fmt.Errorf("blob %s already on disk: %w", file.StoragePath, common.ErrorAlreadyExists)
	}

	tmpKey, n, err := e.blobs.WriteTemp(ctx, r, e.maxSize)
	if err != nil {
		if errors.Is(err, blobs.ErrTooLarge) {
			return nil, err
		}
		return nil, storageErr("write temp", err)
	}
	defer e.discard(ctx, tmpKey)

	if n == 0 {
		return nil, fmt.Errorf("%w: empty upload", common.ErrorInvalidInput)
	}
	if declaredSize >= 0 && n != declaredSize {
		return nil, fmt.Errorf("%w: got %d bytes, declared %d", common.ErrorInvalidInput, n, declaredSize)
	}

	file.Size = n
	file.UploadTime = e.now().UTC().Truncate(time.Microsecond)

	var moveFailed bool
	err = e.withTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := e.repos.Files(tx).Create(ctx, file); err != nil {
			return err
		}
		if err := e.blobs.Move(ctx, tmpKey, file.StoragePath); err != nil {
			if errors.Is(err, common.ErrorAlreadyExists) {
				return err
			}
			moveFailed = true
			return storageErr("move into place", err)
		}
		return nil
	})
	if err != nil {
		// The key was free under the lock, so whatever a failed move or a
		// failed commit left there belongs to this upload.
		if moveFailed || errors.Is(err, dbx.ErrCommit) {
			e.discard(ctx, file.StoragePath)
		}
		return nil, err
	}

	return file, nil
}

// ensureFree fails with common.ErrorAlreadyExists when ownerID has a live
// file called filename. The unique index is the final arbiter; this only
// fails fast.
func (e *Engine) ensureFree(ctx context.Context, ownerID, filename string) error {
	_, err := e.repos.Files(e.db).FindLive(ctx, ownerID, filename)
	switch {
	case err == nil:
		return fmt.Errorf("file %q: %w", filename, common.ErrorAlreadyExists)
	case errors.Is(err, common.ErrorNotFound):
		return nil
	default:
		return fmt.Errorf("lookup %q: %w", filename, err)
	}
}

func (e *Engine) findLive(ctx context.Context, ownerID, filename string) (*models.File, error) {
	f, err := e.repos.Files(e.db).FindLive(ctx, ownerID, filename)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("file %q: %w", filename, common.ErrorNotFound)
		}
		return nil, fmt.Errorf("lookup %q: %w", filename, err)
	}
	return f, nil
}

// discard removes a blob that must not survive. It outlives ctx cancellation.
func (e *Engine) discard(ctx context.Context, key string) {
	if err := e.blobs.Remove(context.WithoutCancel(ctx), key); err != nil {
		e.logger.Warn(ctx, "blob cleanup failed", "key", key, "error", err)
	}
}

// Get returns the full content of the live file.
func (e *Engine) Get(ctx context.Context, ownerID, filename string) ([]byte, error) {
	if err := ValidateFilename(filename); err != nil {
		return nil, err
	}

	unlock := e.locks.Lock(lockKey(ownerID, filename))
	defer unlock()

	f, err := e.findLive(ctx, ownerID, filename)
	if err != nil {
		return nil, err
	}

	data, err := e.blobs.Read(ctx, f.StoragePath)
	if err != nil {
		return nil, storageErr("read", err)
	}
	return data, nil
}

// Rename moves a live file to a new name. On any failure the old name keeps
// resolving to the original content.
func (e *Engine) Rename(ctx context.Context, ownerID, oldName, newName string) (*models.File, error) {
	if err := ValidateFilename(oldName); err != nil {
		return nil, err
	}
	if err := ValidateFilename(newName); err != nil {
		return nil, err
	}

	unlock := e.locks.Lock(lockKey(ownerID, oldName), lockKey(ownerID, newName))
	defer unlock()

	if err := e.ensureFree(ctx, ownerID, newName); err != nil {
		return nil, err
	}

	f, err := e.findLive(ctx, ownerID, oldName)
	if err != nil {
		return nil, err
	}

	oldKey := f.StoragePath
	newKey := storageKey(ownerID, f.ID, newName)

	taken, err := e.blobs.Exists(ctx, newKey)
	if err != nil {
		return nil, storageErr("stat target", err)
	}
	if taken {
		return nil, fmt.Errorf("blob %s already on disk: %w", newKey, common.ErrorAlreadyExists)
	}

	var moveFailed bool
	err = e.withTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := e.repos.Files(tx).Rename(ctx, f.ID, newName, newKey); err != nil {
			return err
		}
		if err := e.blobs.Move(ctx, oldKey, newKey); err != nil {
			if errors.Is(err, common.ErrorAlreadyExists) {
				return err
			}
			moveFailed = true
			return storageErr("move", err)
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, dbx.ErrCommit):
			e.moveBack(ctx, ownerID, newKey, oldKey)
		case moveFailed:
			e.undoPartialMove(ctx, ownerID, oldKey, newKey)
		}
		return nil, err
	}

	f.Filename = newName
	f.StoragePath = newKey
	return f, nil
}

func (e *Engine) moveBack(ctx context.Context, ownerID, from, to string) {
	if err := e.blobs.Move(context.WithoutCancel(ctx), from, to); err != nil {
		e.logger.Error(ctx, "rename rollback failed", "owner", ownerID, "from", from, "to", to, "error", err)
	}
}

// undoPartialMove handles a move that failed after copying. If the source
// survived, the copy is dropped; otherwise the copy is moved back.
func (e *Engine) undoPartialMove(ctx context.Context, ownerID, oldKey, newKey string) {
	ctx = context.WithoutCancel(ctx)

	copied, err := e.blobs.Exists(ctx, newKey)
	if err != nil {
		e.logger.Error(ctx, "rename rollback failed", "owner", ownerID, "key", newKey, "error", err)
		return
	}
	if !copied {
		return
	}

	kept, err := e.blobs.Exists(ctx, oldKey)
	if err != nil {
		e.logger.Error(ctx, "rename rollback failed", "owner", ownerID, "key", oldKey, "error", err)
		return
	}
	if kept {
		e.discard(ctx, newKey)
		return
	}
	e.moveBack(ctx, ownerID, newKey, oldKey)
}

// SoftDelete tombstones the live file. Its blob stays where it is.
func (e *Engine) SoftDelete(ctx context.Context, ownerID, filename string) error {
	if err := ValidateFilename(filename); err != nil {
		return err
	}

	unlock := e.locks.Lock(lockKey(ownerID, filename))
	defer unlock()

	f, err := e.findLive(ctx, ownerID, filename)
	if err != nil {
		return err
	}

	if err := e.repos.Files(e.db).MarkDeleted(ctx, f.ID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("file %q: %w", filename, common.ErrorNotFound)
		}
		return fmt.Errorf("mark deleted %q: %w", filename, err)
	}
	return nil
}

// List returns at most limit live files of ownerID, newest first.
func (e *Engine) List(ctx context.Context, ownerID string, limit int) ([]*models.File, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", common.ErrorInvalidInput, limit)
	}

	files, err := e.repos.Files(e.db).ListLive(ctx, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	if len(files) > limit {
		files = files[:limit]
	}
	return files, nil
}
