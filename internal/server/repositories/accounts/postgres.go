package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clipstream/clipstream/internal/common"
	"github.com/clipstream/clipstream/internal/dbx"
	"github.com/clipstream/clipstream/internal/server/auth"
	"github.com/clipstream/clipstream/internal/server/models"
)

const accountColumns = `id, username, email, full_name, hashed_password, avatar_url, cover_image_url, refresh_token, created_at, updated_at`

// PostgresRepository implements Repository over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx). It owns password hashing on writes.
type PostgresRepository struct {
	db     dbx.DBTX
	hasher auth.PasswordHasher
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX, hasher auth.PasswordHasher) *PostgresRepository {
	return &PostgresRepository{db: db, hasher: hasher}
}

func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	digest, err := r.hasher.Hash(account.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	account.Password = ""
	account.HashedPassword = digest

	query := `
		INSERT INTO accounts (username, email, full_name, hashed_password, avatar_url, cover_image_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err = r.db.QueryRowContext(ctx, query,
		account.Username, account.Email, account.FullName,
		account.HashedPassword, account.AvatarURL, account.CoverImageURL,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.ErrDuplicate
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

func (r *PostgresRepository) GetByEmailOrUsername(ctx context.Context, identifier string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1 OR username = $1`
	return r.getOne(ctx, query, identifier)
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE username = $1`
	return r.getOne(ctx, query, username)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg string) (*models.Account, error) {
	account := &models.Account{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&account.ID, &account.Username, &account.Email, &account.FullName,
		&account.HashedPassword, &account.AvatarURL, &account.CoverImageURL,
		&account.RefreshToken, &account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return account, nil
}

func (r *PostgresRepository) UpdateRefreshToken(ctx context.Context, accountID, token string) error {
	query := `UPDATE accounts SET refresh_token = $2, updated_at = now() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, accountID, token)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireRowsAffected(res, common.ErrNotFound)
}

func (r *PostgresRepository) SwapRefreshToken(ctx context.Context, accountID, presented, next string) error {
	query := `UPDATE accounts SET refresh_token = $3, updated_at = now() WHERE id = $1 AND refresh_token = $2`
	res, err := r.db.ExecContext(ctx, query, accountID, presented, next)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireRowsAffected(res, common.ErrTokenMismatch)
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, accountID, plaintext string) error {
	digest, err := r.hasher.Hash(plaintext)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	query := `UPDATE accounts SET hashed_password = $2, updated_at = now() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, accountID, digest)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireRowsAffected(res, common.ErrNotFound)
}

func (r *PostgresRepository) AppendWatchHistory(ctx context.Context, accountID, contentID string) error {
	query := `INSERT INTO watch_history (account_id, content_id) VALUES ($1, $2)`
	if _, err := r.db.ExecContext(ctx, query, accountID, contentID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) WatchHistory(ctx context.Context, accountID string) ([]models.WatchHistoryEntry, error) {
	query := `SELECT content_id, watched_at FROM watch_history WHERE account_id = $1 ORDER BY watched_at DESC`
	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var history []models.WatchHistoryEntry
	for rows.Next() {
		var entry models.WatchHistoryEntry
		if err := rows.Scan(&entry.ContentID, &entry.WatchedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		history = append(history, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return history, nil
}

func requireRowsAffected(res sql.Result, missing error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return missing
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
