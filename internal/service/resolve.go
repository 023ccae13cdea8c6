// Package service orchestrates the resolver, the resolution cache, and the
// catalog store behind the HTTP layer.
package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jjutv/vidgate/internal/memocache"
	"github.com/jjutv/vidgate/internal/resolver"
	"github.com/jjutv/vidgate/internal/store"
)

// ExtractResult is the response payload for a single-video resolution.
type ExtractResult struct {
	VideoID     string    `json:"video_id"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Duration    int       `json:"duration"`
	Thumbnail   string    `json:"thumbnail"`
	Description string    `json:"description"`
	Uploader    string    `json:"uploader"`
	ViewCount   int64     `json:"view_count"`
	ExtractedAt time.Time `json:"extracted_at"`
}

// VideoListing is one entry of a channel or playlist listing. URL is the
// watch-page link, not a resolved stream; the client resolves on playback.
type VideoListing struct {
	VideoID   string `json:"video_id"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
	URL       string `json:"url"`
	Duration  int    `json:"duration"`
	Uploader  string `json:"uploader"`
}

// ChannelVideosResult is the response payload for a channel lookup.
type ChannelVideosResult struct {
	Videos    []VideoListing `json:"videos"`
	FetchedAt time.Time      `json:"fetched_at"`
}

// PlaylistResult is the response payload for a playlist lookup.
type PlaylistResult struct {
	PlaylistID    string         `json:"playlist_id"`
	PlaylistTitle string         `json:"playlist_title"`
	Videos        []VideoListing `json:"videos"`
	FetchedAt     time.Time      `json:"fetched_at"`
}

// ResolveVideo resolves a playable stream URL for one video, memoized for
// the cache's TTL window.
func ResolveVideo(ctx context.Context, c *memocache.Cache, r resolver.Resolver, videoID string) (*ExtractResult, error) {
	key := memocache.VideoKey(videoID)
	if v, ok := c.Get(key); ok {
		if res, ok := v.(*ExtractResult); ok {
			return res, nil
		}
	}

	detail, err := r.ResolveVideo(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", videoID, err)
	}
	url, err := resolver.SelectStream(detail)
	if err != nil {
		// A selection failure never pollutes the cache.
		return nil, fmt.Errorf("resolve %s: %w", videoID, err)
	}

	res := &ExtractResult{
		VideoID:     videoID,
		URL:         url,
		Title:       detail.Title,
		Duration:    detail.Duration,
		Thumbnail:   detail.Thumbnail,
		Description: detail.Description,
		Uploader:    detail.Uploader,
		ViewCount:   detail.ViewCount,
		ExtractedAt: time.Now(),
	}
	c.Put(key, res)
	return res, nil
}

// ListChannelVideos performs a flattened listing of one channel, memoized.
func ListChannelVideos(ctx context.Context, c *memocache.Cache, r resolver.Resolver, ref resolver.ChannelRef, maxResults int) (*ChannelVideosResult, error) {
	if maxResults <= 0 {
		maxResults = 50
	}
	key := memocache.ChannelKey(ref.String(), maxResults, nil)
	if v, ok := c.Get(key); ok {
		if res, ok := v.(*ChannelVideosResult); ok {
			return res, nil
		}
	}

	listing, err := r.ListChannel(ctx, ref, maxResults)
	if err != nil {
		return nil, fmt.Errorf("list channel %s: %w", ref, err)
	}

	res := &ChannelVideosResult{
		Videos:    toVideoListings(listing.Entries, maxResults),
		FetchedAt: time.Now(),
	}
	c.Put(key, res)
	return res, nil
}

// ListCatalogVideos lists the latest videos across the curated channels (or
// a single one selected by index), memoized. Upstream failures are tolerated
// per channel: a channel that cannot be fetched is logged and skipped, and
// the batch continues with the remaining channels.
func ListCatalogVideos(ctx context.Context, c *memocache.Cache, s store.Store, r resolver.Resolver, maxResults int, channelIndex *int) (*ChannelVideosResult, error) {
	if maxResults <= 0 {
		maxResults = 50
	}
	key := memocache.ChannelKey("*", maxResults, channelIndex)
	if v, ok := c.Get(key); ok {
		if res, ok := v.(*ChannelVideosResult); ok {
			return res, nil
		}
	}

	channels, err := s.ListChannels(ctx)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	if channelIndex != nil {
		i := *channelIndex
		if i < 0 || i >= len(channels) {
			return nil, fmt.Errorf("channel index %d out of range: %w", i, store.ErrInvalid)
		}
		channels = channels[i : i+1]
	}

	var videos []VideoListing
	for _, ch := range channels {
		ref, err := resolver.ParseChannelRef(ch.ChannelID)
		if err != nil {
			log.Printf("catalog: skipping channel %q: %v", ch.ChannelID, err)
			continue
		}
		listing, err := r.ListChannel(ctx, ref, maxResults)
		if err != nil {
			log.Printf("catalog: channel %s fetch failed: %v", ch.ChannelID, err)
			continue
		}
		videos = append(videos, toVideoListings(listing.Entries, maxResults)...)
	}
	if len(videos) > maxResults {
		videos = videos[:maxResults]
	}

	res := &ChannelVideosResult{Videos: videos, FetchedAt: time.Now()}
	c.Put(key, res)
	return res, nil
}

// ResolvePlaylist performs a flattened playlist lookup, memoized.
func ResolvePlaylist(ctx context.Context, c *memocache.Cache, r resolver.Resolver, playlistID string, maxResults int) (*PlaylistResult, error) {
	if maxResults <= 0 {
		maxResults = 50
	}
	key := memocache.PlaylistKey(playlistID, maxResults)
	if v, ok := c.Get(key); ok {
		if res, ok := v.(*PlaylistResult); ok {
			return res, nil
		}
	}

	listing, err := r.ListPlaylist(ctx, playlistID, maxResults)
	if err != nil {
		return nil, fmt.Errorf("list playlist %s: %w", playlistID, err)
	}

	res := &PlaylistResult{
		PlaylistID:    playlistID,
		PlaylistTitle: listing.Title,
		Videos:        toVideoListings(listing.Entries, maxResults),
		FetchedAt:     time.Now(),
	}
	c.Put(key, res)
	return res, nil
}

func toVideoListings(entries []resolver.Entry, maxResults int) []VideoListing {
	videos := make([]VideoListing, 0, len(entries))
	for _, e := range entries {
		if e.VideoID == "" {
			continue
		}
		videos = append(videos, VideoListing{
			VideoID:   e.VideoID,
			Title:     e.Title,
			Thumbnail: e.Thumbnail,
			URL:       "https://www.youtube.com/watch?v=" + e.VideoID,
			Duration:  e.Duration,
			Uploader:  e.Uploader,
		})
		if maxResults > 0 && len(videos) >= maxResults {
			break
		}
	}
	return videos
}
