package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/dmitrijs2005/cloudstorage/internal/common"
	"github.com/dmitrijs2005/cloudstorage/internal/dbx"
	"github.com/dmitrijs2005/cloudstorage/internal/server/models"
	"github.com/dmitrijs2005/cloudstorage/internal/server/repositories/files"
	"github.com/dmitrijs2005/cloudstorage/internal/server/repositories/users"
	"github.com/spf13/afero"
)

// memFiles is an in-memory files.Repository with the live-name unique rule.
type memFiles struct {
	mu   sync.Mutex
	rows map[string]models.File

	createErr error
}

func newMemFiles() *memFiles {
	return &memFiles{rows: map[string]models.File{}}
}

func (m *memFiles) liveByName(ownerID, filename string) (models.File, bool) {
	for _, f := range m.rows {
		if f.OwnerID == ownerID && f.Filename == filename && !f.Deleted {
			return f, true
		}
	}
	return models.File{}, false
}

func (m *memFiles) Create(_ context.Context, f *models.File) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.liveByName(f.OwnerID, f.Filename); ok {
		return common.ErrorAlreadyExists
	}
	m.rows[f.ID] = *f
	return nil
}

func (m *memFiles) FindLive(_ context.Context, ownerID, filename string) (*models.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.liveByName(ownerID, filename)
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &f, nil
}

func (m *memFiles) Rename(_ context.Context, id, filename, storagePath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.rows[id]
	if !ok || f.Deleted {
		return common.ErrorNotFound
	}
	if other, ok := m.liveByName(f.OwnerID, filename); ok && other.ID != id {
		return common.ErrorAlreadyExists
	}
	f.Filename = filename
	f.StoragePath = storagePath
	m.rows[id] = f
	return nil
}

func (m *memFiles) MarkDeleted(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.rows[id]
	if !ok || f.Deleted {
		return common.ErrorNotFound
	}
	f.Deleted = true
	m.rows[id] = f
	return nil
}

func (m *memFiles) ListLive(_ context.Context, ownerID string, limit int) ([]*models.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.File
	for _, f := range m.rows {
		if f.OwnerID == ownerID && !f.Deleted {
			f := f
			out = append(out, &f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadTime.After(out[j].UploadTime) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memFiles) snapshot() map[string]models.File {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := make(map[string]models.File, len(m.rows))
	for k, v := range m.rows {
		s[k] = v
	}
	return s
}

func (m *memFiles) restore(s map[string]models.File) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = s
}

func (m *memFiles) all() []models.File {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.File, 0, len(m.rows))
	for _, f := range m.rows {
		out = append(out, f)
	}
	return out
}

type memRepos struct {
	files *memFiles
}

func (r *memRepos) RunMigrations(context.Context, *sql.DB) error { return nil }
func (r *memRepos) Users(dbx.DBTX) users.Repository { return nil }
func (r *memRepos) Files(dbx.DBTX) files.Repository { return r.files }

// memTx gives memFiles transaction semantics: a failing fn or commit restores
// the state seen at begin. mu serializes transactions like row locks would.
type memTx struct {
	mu        sync.Mutex
	files     *memFiles
	commitErr error
}

func (t *memTx) run(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := t.files.snapshot()
	if err := fn(ctx, nil); err != nil {
		t.files.restore(snap)
		return err
	}
	if t.commitErr != nil {
		t.files.restore(snap)
		return fmt.Errorf("%w: %w", dbx.ErrCommit, t.commitErr)
	}
	return nil
}

// faultyFs injects failures into an afero.Fs.
type faultyFs struct {
	afero.Fs

	mu        sync.Mutex
	renameErr error
	readErr   error
	// partial makes the next Rename do part of the work and then fail once:
	// "copy" writes the target and keeps the source, "move" completes it.
	partial string
}

func (f *faultyFs) setRenameErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.renameErr = err
}

func (f *faultyFs) setPartialRename(mode string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.partial = mode
	f.renameErr = err
}

func (f *faultyFs) setReadErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readErr = err
}

func (f *faultyFs) Rename(oldname, newname string) error {
	f.mu.Lock()
	err, partial := f.renameErr, f.partial
	if partial != "" {
		f.renameErr, f.partial = nil, ""
	}
	f.mu.Unlock()
	if err == nil {
		return f.Fs.Rename(oldname, newname)
	}
	switch partial {
	case "copy":
		data, rerr := afero.ReadFile(f.Fs, oldname)
		if rerr != nil {
			return rerr
		}
		if werr := afero.WriteFile(f.Fs, newname, data, 0o600); werr != nil {
			return werr
		}
	case "move":
		if merr := f.Fs.Rename(oldname, newname); merr != nil {
			return merr
		}
	}
	return &os.LinkError{Op: "rename", Old: oldname, New: newname, Err: err}
}

func (f *faultyFs) Open(name string) (afero.File, error) {
	f.mu.Lock()
	err := f.readErr
	f.mu.Unlock()
	if err != nil && !strings.Contains(name, ".tmp") {
		return nil, &os.PathError{Op: "open", Path: name, Err: err}
	}
	return f.Fs.Open(name)
}
