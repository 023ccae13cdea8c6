package models

import "time"

// GroupVideo is one ordered member of a group. (GroupID, VideoID) is unique
// per group; Position is assigned at insert time (max+1, starting at 1) and
// is not re-packed after deletions.
type GroupVideo struct {
	ID        int64     `json:"id,omitempty"`
	GroupID   string    `json:"group_id,omitempty"`
	VideoID   string    `json:"video_id"`
	Title     string    `json:"title"`
	Thumbnail string    `json:"thumbnail,omitempty"`
	Duration  int       `json:"duration,omitempty"`
	Uploader  string    `json:"uploader,omitempty"`
	Position  int       `json:"position"`
	AddedAt   time.Time `json:"added_at,omitempty"`
}
