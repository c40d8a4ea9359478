package models

import "time"

// ChannelProfile is the public view of a channel: identity fields plus
// aggregate subscription counts and the viewer's relationship to it.
type ChannelProfile struct {
	FullName          string `json:"fullName"`
	Username          string `json:"username"`
	AvatarURL         string `json:"avatarUrl"`
	CoverImageURL     string `json:"coverImageUrl,omitempty"`
	SubscribersCount  int64  `json:"subscribersCount"`
	SubscribedToCount int64  `json:"subscribedToCount"`
	IsSubscribed      bool   `json:"isSubscribed"`
}

// WatchHistoryEntry is one row of an account's ordered watch history.
type WatchHistoryEntry struct {
	ContentID string    `json:"contentId"`
	WatchedAt time.Time `json:"watchedAt"`
}
