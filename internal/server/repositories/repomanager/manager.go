package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/cloudstorage/internal/dbx"
	"github.com/dmitrijs2005/cloudstorage/internal/server/repositories/files"
	"github.com/dmitrijs2005/cloudstorage/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so the same code path
// works both on the pool and inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Files(db dbx.DBTX) files.Repository
}
