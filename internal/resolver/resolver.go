// Package resolver wraps the upstream video platform lookup capability.
// Implementations turn platform ids into stream candidates and flattened
// metadata listings; they never persist anything.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for resolution operations.
var (
	// ErrUpstream indicates the upstream lookup failed or returned nothing.
	ErrUpstream = errors.New("resolver: upstream lookup failed")
	// ErrNoPlayableStream indicates no candidate stream could be selected.
	ErrNoPlayableStream = errors.New("resolver: no playable stream")
)

// StreamCandidate is one playable format reported by the upstream extractor.
type StreamCandidate struct {
	URL      string
	HasAudio bool
	HasVideo bool
}

// VideoDetail is a full extraction result for a single video, including the
// ranked stream candidates.
type VideoDetail struct {
	VideoID     string
	Title       string
	Description string
	Duration    int
	Thumbnail   string
	Uploader    string
	ViewCount   int64
	// BestURL is the extractor's canonical stream URL when it supplies one.
	BestURL    string
	Candidates []StreamCandidate
}

// Entry is a flattened (metadata-only) listing entry. No stream resolution
// has happened for it.
type Entry struct {
	VideoID   string `json:"video_id"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
	Duration  int    `json:"duration"`
	Uploader  string `json:"uploader"`
}

// Listing is the result of a flattened channel or playlist lookup.
type Listing struct {
	Title   string
	Entries []Entry
}

// RefKind distinguishes the two channel addressing forms.
type RefKind int

const (
	// RefChannelID addresses a channel by its canonical platform id ("UC…").
	RefChannelID RefKind = iota
	// RefHandle addresses a channel by its handle-style name ("@blippi" or "blippi").
	RefHandle
)

// ChannelRef is a channel reference resolved once into a tagged form, so the
// id-vs-handle routing decision is made in exactly one place.
type ChannelRef struct {
	Kind  RefKind
	Value string
}

// ParseChannelRef classifies a raw channel reference. Canonical ids start
// with "UC"; anything else is treated as a handle, with a leading "@"
// stripped.
func ParseChannelRef(raw string) (ChannelRef, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ChannelRef{}, fmt.Errorf("empty channel reference")
	}
	if strings.HasPrefix(raw, "UC") {
		return ChannelRef{Kind: RefChannelID, Value: raw}, nil
	}
	return ChannelRef{Kind: RefHandle, Value: strings.TrimPrefix(raw, "@")}, nil
}

// URL returns the upstream videos-page URL for the reference.
func (r ChannelRef) URL() string {
	if r.Kind == RefChannelID {
		return "https://www.youtube.com/channel/" + r.Value + "/videos"
	}
	return "https://www.youtube.com/@" + r.Value + "/videos"
}

// String returns the raw reference value for cache keys and logs.
func (r ChannelRef) String() string { return r.Value }

// ThumbnailURL is the deterministic fallback thumbnail for a video id, used
// whenever the upstream listing omits one.
func ThumbnailURL(videoID string) string {
	return "https://i.ytimg.com/vi/" + videoID + "/hqdefault.jpg"
}

// Resolver is the upstream lookup contract. Implementations must bound each
// call with a timeout so a hung upstream cannot block a request slot.
type Resolver interface {
	// ResolveVideo performs a full extraction for one video, including
	// stream candidates.
	ResolveVideo(ctx context.Context, videoID string) (*VideoDetail, error)
	// ListChannel performs a flattened lookup of a channel's videos page.
	ListChannel(ctx context.Context, ref ChannelRef, maxResults int) (*Listing, error)
	// ListPlaylist performs a flattened lookup of a playlist.
	ListPlaylist(ctx context.Context, playlistID string, maxResults int) (*Listing, error)
	// LookupVideo performs a flattened single-video metadata lookup.
	LookupVideo(ctx context.Context, videoID string) (*Entry, error)
}
