package repomanager

import (
	"context"
	"database/sql"

	"github.com/wavelength-app/wavelength/internal/dbx"
	"github.com/wavelength-app/wavelength/internal/server/repositories/users"
)

// RepositoryManager vends repository implementations bound to a database
// handle and exposes a schema migration hook.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
}
