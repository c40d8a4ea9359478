// Package subscriptions declares the relationship-store contract for
// subscriber/channel edges.
package subscriptions

import "context"

// Repository defines edge queries and mutations over subscriber/channel
// relationships. No uniqueness is enforced on (subscriber, channel) pairs;
// counts are counts of edges.
type Repository interface {
	// Create inserts a subscriber → channel edge.
	Create(ctx context.Context, subscriberID, channelID string) error

	// Delete removes all edges from subscriber to channel. Deleting when no
	// edge exists is not an error.
	Delete(ctx context.Context, subscriberID, channelID string) error

	// CountSubscribers counts edges pointing at the channel.
	CountSubscribers(ctx context.Context, channelID string) (int64, error)

	// CountSubscribedTo counts edges originating from the subscriber.
	CountSubscribedTo(ctx context.Context, subscriberID string) (int64, error)

	// IsSubscribed reports whether subscriberID has an edge to channelID.
	IsSubscribed(ctx context.Context, channelID, subscriberID string) (bool, error)
}
