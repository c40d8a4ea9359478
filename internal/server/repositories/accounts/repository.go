// Package accounts declares the credential-store contract: persistence of
// account records, refresh-token state, and watch history.
package accounts

import (
	"context"

	"github.com/clipstream/clipstream/internal/server/models"
)

// Repository defines the operations the authentication core needs from the
// credential store. Implementations hash Account.Password transparently on
// any write that changes the password field, and never on writes that don't.
type Repository interface {
	// Create inserts a new account. Username and email are expected
	// lowercase-normalized by the caller; a uniqueness violation on either
	// returns common.ErrDuplicate.
	Create(ctx context.Context, account *models.Account) (*models.Account, error)

	// GetByEmailOrUsername resolves an account by either identifier.
	// Returns common.ErrNotFound when absent.
	GetByEmailOrUsername(ctx context.Context, identifier string) (*models.Account, error)

	// GetByUsername resolves an account by its (lowercase) username.
	GetByUsername(ctx context.Context, username string) (*models.Account, error)

	// GetByID resolves an account by its id.
	GetByID(ctx context.Context, id string) (*models.Account, error)

	// UpdateRefreshToken sets (or, with an empty token, clears) the stored
	// refresh token. Only that column is touched; no other validation runs.
	UpdateRefreshToken(ctx context.Context, accountID, token string) error

	// SwapRefreshToken replaces the stored refresh token only if it still
	// equals presented (compare-and-swap). Returns common.ErrTokenMismatch
	// when the stored value changed underneath the caller.
	SwapRefreshToken(ctx context.Context, accountID, presented, next string) error

	// UpdatePassword re-hashes and stores a new password for the account.
	UpdatePassword(ctx context.Context, accountID, plaintext string) error

	// AppendWatchHistory records that the account watched the given content.
	AppendWatchHistory(ctx context.Context, accountID, contentID string) error

	// WatchHistory returns the account's watch history, most recent first.
	WatchHistory(ctx context.Context, accountID string) ([]models.WatchHistoryEntry, error)
}
