package models

import "time"

// BlockedVideo marks a single video the playback client must filter out.
type BlockedVideo struct {
	VideoID   string    `json:"video_id"`
	Reason    string    `json:"reason,omitempty"`
	BlockedAt time.Time `json:"blocked_at"`
}

// BlockedChannel marks an entire channel the playback client must filter out.
type BlockedChannel struct {
	ChannelID string    `json:"channel_id"`
	Reason    string    `json:"reason,omitempty"`
	BlockedAt time.Time `json:"blocked_at"`
}

// BlockedList is the combined block list returned to the client in one call.
type BlockedList struct {
	Videos   []BlockedVideo   `json:"videos"`
	Channels []BlockedChannel `json:"channels"`
}
