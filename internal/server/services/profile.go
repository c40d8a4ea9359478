package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/clipstream/clipstream/internal/common"
	"github.com/clipstream/clipstream/internal/logging"
	"github.com/clipstream/clipstream/internal/server/models"
	"github.com/clipstream/clipstream/internal/server/repositories/repomanager"
)

// ProfileService aggregates public channel profiles and manages the
// viewer-to-channel subscription edges behind them.
type ProfileService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	logger logging.Logger
}

func NewProfileService(db *sql.DB, repos repomanager.RepositoryManager, logger logging.Logger) *ProfileService {
	return &ProfileService{db: db, repos: repos, logger: logger}
}

// GetChannelProfile assembles the public profile of the channel behind
// username: identity fields plus subscriber counts. When viewerID is empty
// the viewer is anonymous and IsSubscribed stays false without a lookup.
func (s *ProfileService) GetChannelProfile(ctx context.Context, username, viewerID string) (*models.ChannelProfile, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, common.E(common.ErrValidation, "username is required")
	}

	account, err := s.repos.Accounts(s.db).GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.E(common.ErrNotFound, "channel not found")
		}
		s.logger.Error(ctx, "channel lookup failed", "error", err)
		return nil, common.ErrInternal
	}

	subs := s.repos.Subscriptions(s.db)

	subscribers, err := subs.CountSubscribers(ctx, account.ID)
	if err != nil {
		s.logger.Error(ctx, "counting subscribers failed", "error", err)
		return nil, common.ErrInternal
	}
	subscribedTo, err := subs.CountSubscribedTo(ctx, account.ID)
	if err != nil {
		s.logger.Error(ctx, "counting subscriptions failed", "error", err)
		return nil, common.ErrInternal
	}

	var isSubscribed bool
	if viewerID != "" {
		isSubscribed, err = subs.IsSubscribed(ctx, account.ID, viewerID)
		if err != nil {
			s.logger.Error(ctx, "subscription check failed", "error", err)
			return nil, common.ErrInternal
		}
	}

	return &models.ChannelProfile{
		Username:          account.Username,
		FullName:          account.FullName,
		AvatarURL:         account.AvatarURL,
		CoverImageURL:     account.CoverImageURL,
		SubscribersCount:  subscribers,
		SubscribedToCount: subscribedTo,
		IsSubscribed:      isSubscribed,
	}, nil
}

// Subscribe adds a subscription edge from the viewer to the channel named by
// username. Subscribing to your own channel is rejected.
func (s *ProfileService) Subscribe(ctx context.Context, subscriberID, username string) error {
	channel, err := s.resolveChannel(ctx, username)
	if err != nil {
		return err
	}
	if channel.ID == subscriberID {
		return common.E(common.ErrValidation, "cannot subscribe to yourself")
	}

	if err := s.repos.Subscriptions(s.db).Create(ctx, subscriberID, channel.ID); err != nil {
		s.logger.Error(ctx, "creating subscription failed", "error", err)
		return common.ErrInternal
	}
	return nil
}

// Unsubscribe removes the viewer's subscription edges to the channel named
// by username. Unsubscribing when not subscribed is a no-op.
func (s *ProfileService) Unsubscribe(ctx context.Context, subscriberID, username string) error {
	channel, err := s.resolveChannel(ctx, username)
	if err != nil {
		return err
	}

	if err := s.repos.Subscriptions(s.db).Delete(ctx, subscriberID, channel.ID); err != nil {
		s.logger.Error(ctx, "deleting subscription failed", "error", err)
		return common.ErrInternal
	}
	return nil
}

// RecordView appends the content to the account's watch history.
func (s *ProfileService) RecordView(ctx context.Context, accountID, contentID string) error {
	if contentID == "" {
		return common.E(common.ErrValidation, "content id is required")
	}
	if err := s.repos.Accounts(s.db).AppendWatchHistory(ctx, accountID, contentID); err != nil {
		s.logger.Error(ctx, "recording view failed", "error", err)
		return common.ErrInternal
	}
	return nil
}

// WatchHistory returns the account's watch history, most recent first.
func (s *ProfileService) WatchHistory(ctx context.Context, accountID string) ([]models.WatchHistoryEntry, error) {
	history, err := s.repos.Accounts(s.db).WatchHistory(ctx, accountID)
	if err != nil {
		s.logger.Error(ctx, "loading watch history failed", "error", err)
		return nil, common.ErrInternal
	}
	return history, nil
}

func (s *ProfileService) resolveChannel(ctx context.Context, username string) (*models.Account, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, common.E(common.ErrValidation, "username is required")
	}

	channel, err := s.repos.Accounts(s.db).GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.E(common.ErrNotFound, "channel not found")
		}
		s.logger.Error(ctx, "channel lookup failed", "error", err)
		return nil, common.ErrInternal
	}
	return channel, nil
}
