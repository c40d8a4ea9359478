// Package repomanager provides a facade over the persistence layer: it hands
// out repositories bound to a DB handle (or transaction) and runs schema
// migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/clipstream/clipstream/internal/dbx"
	"github.com/clipstream/clipstream/internal/server/repositories/accounts"
	"github.com/clipstream/clipstream/internal/server/repositories/subscriptions"
)

// RepositoryManager produces repository implementations bound to the given
// DBTX, so the same repository code runs inside and outside transactions.
type RepositoryManager interface {
	Accounts(db dbx.DBTX) accounts.Repository
	Subscriptions(db dbx.DBTX) subscriptions.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
