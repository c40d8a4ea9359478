package subscriptions

import (
	"context"
	"fmt"

	"github.com/clipstream/clipstream/internal/dbx"
)

// PostgresRepository implements Repository over dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, subscriberID, channelID string) error {
	query := `INSERT INTO subscriptions (subscriber_id, channel_id) VALUES ($1, $2)`
	if _, err := r.db.ExecContext(ctx, query, subscriberID, channelID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, subscriberID, channelID string) error {
	query := `DELETE FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2`
	if _, err := r.db.ExecContext(ctx, query, subscriberID, channelID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) CountSubscribers(ctx context.Context, channelID string) (int64, error) {
	query := `SELECT COUNT(*) FROM subscriptions WHERE channel_id = $1`
	return r.count(ctx, query, channelID)
}

func (r *PostgresRepository) CountSubscribedTo(ctx context.Context, subscriberID string) (int64, error) {
	query := `SELECT COUNT(*) FROM subscriptions WHERE subscriber_id = $1`
	return r.count(ctx, query, subscriberID)
}

func (r *PostgresRepository) IsSubscribed(ctx context.Context, channelID, subscriberID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM subscriptions WHERE channel_id = $1 AND subscriber_id = $2)`
	var subscribed bool
	if err := r.db.QueryRowContext(ctx, query, channelID, subscriberID).Scan(&subscribed); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return subscribed, nil
}

func (r *PostgresRepository) count(ctx context.Context, query string, arg string) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, query, arg).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
