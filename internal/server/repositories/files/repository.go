package files

import (
	"context"

	"github.com/dmitrijs2005/cloudstorage/internal/server/models"
)

// Repository is the file metadata store. All lookups only see live records;
// soft-deleted tombstones are invisible to them.
type Repository interface {
	// Create inserts a live record. A live record with the same owner and
	// filename yields common.ErrorAlreadyExists.
	Create(ctx context.Context, file *models.File) error
	// FindLive returns common.ErrorNotFound when the owner has no live file
	// with that name.
	FindLive(ctx context.Context, ownerID, filename string) (*models.File, error)
	// Rename updates filename and storage path of a live record.
	Rename(ctx context.Context, id, filename, storagePath string) error
	MarkDeleted(ctx context.Context, id string) error
	// ListLive returns at most limit live records, newest first.
	ListLive(ctx context.Context, ownerID string, limit int) ([]*models.File, error)
}
