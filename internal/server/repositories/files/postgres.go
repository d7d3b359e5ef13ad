package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/cloudstorage/internal/common"
	"github.com/dmitrijs2005/cloudstorage/internal/dbx"
	"github.com/dmitrijs2005/cloudstorage/internal/server/models"
)

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, file *models.File) error {
	query :=
		`INSERT INTO files (id, user_id, filename, size, upload_time, storage_path, deleted)
		 VALUES ($1, $2, $3, $4, $5, $6, false)`

	_, err := r.db.ExecContext(ctx, query,
		file.ID, file.OwnerID, file.Filename, file.Size, file.UploadTime, file.StoragePath)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) FindLive(ctx context.Context, ownerID, filename string) (*models.File, error) {
	query :=
		`SELECT id, user_id, filename, size, upload_time, storage_path, deleted FROM files
		 WHERE user_id = $1 AND filename = $2 AND NOT deleted`

	f := &models.File{}
	err := r.db.QueryRowContext(ctx, query, ownerID, filename).
		Scan(&f.ID, &f.OwnerID, &f.Filename, &f.Size, &f.UploadTime, &f.StoragePath, &f.Deleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return f, nil
}

func (r *PostgresRepository) Rename(ctx context.Context, id, filename, storagePath string) error {
	query :=
		`UPDATE files SET filename = $2, storage_path = $3
		 WHERE id = $1 AND NOT deleted`

	res, err := r.db.ExecContext(ctx, query, id, filename, storagePath)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}

	return expectOneRow(res)
}

func (r *PostgresRepository) MarkDeleted(ctx context.Context, id string) error {
	query := `UPDATE files SET deleted = true WHERE id = $1 AND NOT deleted`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return expectOneRow(res)
}

func (r *PostgresRepository) ListLive(ctx context.Context, ownerID string, limit int) ([]*models.File, error) {
	query :=
		`SELECT id, user_id, filename, size, upload_time, storage_path, deleted FROM files
		 WHERE user_id = $1 AND NOT deleted
		 ORDER BY upload_time DESC
		 LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	result := make([]*models.File, 0)
	for rows.Next() {
		f := &models.File{}
		if err := rows.Scan(&f.ID, &f.OwnerID, &f.Filename, &f.Size, &f.UploadTime, &f.StoragePath, &f.Deleted); err != nil {
			return nil, err
		}
		result = append(result, f)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}

	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
