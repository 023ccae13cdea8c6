package models

import "time"

// Schedule is a quiet-time window during which the playback client shows a
// message instead of the catalog. Times are wall-clock "HH:MM" with no
// timezone. Overlapping schedules are allowed; the client resolves conflicts.
type Schedule struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	StartTime    string    `json:"start_time"`
	EndTime      string    `json:"end_time"`
	Message      string    `json:"message,omitempty"`
	VoiceEnabled bool      `json:"voice_enabled"`
	VoiceRepeat  int       `json:"voice_repeat"`
	Days         []string  `json:"days"`
	CreatedAt    time.Time `json:"created_at"`
}
