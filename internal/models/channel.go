package models

import "time"

// Channel is a curated upstream channel the playback client is allowed to browse.
// ChannelID is the platform-assigned id (e.g. "UC5PYHgAzJ1jQzoyDQjOA1RA").
type Channel struct {
	ID          int64     `json:"id,omitempty"`
	ChannelID   string    `json:"channel_id"`
	DisplayName string    `json:"channel_name"`
	Description string    `json:"description,omitempty"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}
