package repomanager

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/clipstream/clipstream/internal/dbx"
	"github.com/clipstream/clipstream/internal/server/auth"
	"github.com/clipstream/clipstream/internal/server/migrations"
	"github.com/clipstream/clipstream/internal/server/repositories/accounts"
	"github.com/clipstream/clipstream/internal/server/repositories/subscriptions"
)

// PostgresRepositoryManager wires the Postgres repository implementations.
// It carries the password hasher so every accounts repository it hands out
// hashes on write.
type PostgresRepositoryManager struct {
	hasher auth.PasswordHasher
}

func NewPostgresRepositoryManager(hasher auth.PasswordHasher) *PostgresRepositoryManager {
	return &PostgresRepositoryManager{hasher: hasher}
}

func (m *PostgresRepositoryManager) Accounts(db dbx.DBTX) accounts.Repository {
	return accounts.NewPostgresRepository(db, m.hasher)
}

func (m *PostgresRepositoryManager) Subscriptions(db dbx.DBTX) subscriptions.Repository {
	return subscriptions.NewPostgresRepository(db)
}

// RunMigrations applies the embedded goose migrations.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}
