package models

import "time"

// Group is a named, ordered collection of videos curated for the playback
// client. Thumbnail is derived: it always mirrors the thumbnail of the
// group's first member by position, or is empty for an empty group.
type Group struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Thumbnail   string       `json:"thumbnail,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	Videos      []GroupVideo `json:"videos,omitempty"`
}

// GroupSummary is a group row with its member count instead of the full
// video list. Used by the catalog listing endpoint.
type GroupSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
	VideoCount  int       `json:"video_count"`
	CreatedAt   time.Time `json:"created_at"`
}
