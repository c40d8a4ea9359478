package models

import "time"

// Subscription is a directed edge: subscriber follows channel. Duplicate
// (subscriber, channel) edges are not rejected by the schema; counts are
// counts of edges.
type Subscription struct {
	ID           string
	SubscriberID string
	ChannelID    string
	CreatedAt    time.Time
}
