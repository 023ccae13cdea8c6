package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jjutv/vidgate/internal/models"
	"github.com/jjutv/vidgate/internal/resolver"
	"github.com/jjutv/vidgate/internal/store"
)

// GroupSource describes where a group's videos come from: an explicit id
// list, a playlist, or a channel. At most one of the three is used, checked
// in that order of precedence.
type GroupSource struct {
	VideoIDs   []string
	PlaylistID string
	ChannelRef string
	MaxResults int
}

func (src GroupSource) empty() bool {
	return len(src.VideoIDs) == 0 && src.PlaylistID == "" && src.ChannelRef == ""
}

// EnrichFailure records a single video id whose metadata lookup failed
// during manual-id enrichment. The video is still added with placeholder
// metadata; the failure is reported so the operator can see what degraded.
type EnrichFailure struct {
	VideoID string `json:"video_id"`
	Reason  string `json:"reason"`
}

// BatchResult reports the outcome of a bulk add: how many rows were
// actually inserted (duplicates excluded), the inserted rows, and any
// per-item enrichment failures. Partial success is by design.
type BatchResult struct {
	Added    int                 `json:"added_count"`
	Videos   []models.GroupVideo `json:"videos,omitempty"`
	Failures []EnrichFailure     `json:"failures,omitempty"`
}

// CreateGroup creates a group and optionally populates it from src. The
// source is fetched before the group is created, so a failed playlist or
// channel lookup leaves no half-made group behind.
func CreateGroup(ctx context.Context, s store.Store, r resolver.Resolver, name, description string, src GroupSource) (*models.Group, *BatchResult, error) {
	var (
		drafts   []models.GroupVideo
		failures []EnrichFailure
		err      error
	)
	if !src.empty() {
		drafts, failures, err = collectVideos(ctx, r, src)
		if err != nil {
			return nil, nil, err
		}
	}

	g, err := s.CreateGroup(ctx, name, description)
	if err != nil {
		return nil, nil, err
	}

	result := &BatchResult{Failures: failures}
	if len(drafts) > 0 {
		added, rows, err := s.AddGroupVideos(ctx, g.ID, drafts)
		if err != nil {
			return nil, nil, err
		}
		result.Added = added
		result.Videos = rows
		g.Videos = rows
		if len(rows) > 0 {
			g.Thumbnail = rows[0].Thumbnail
		}
	}
	log.Printf("catalog: created group %q (%s) with %d videos", name, g.ID, result.Added)
	return g, result, nil
}

// AddVideosToGroup appends videos from src to an existing group. The
// group's membership set is loaded once up front and all candidates are
// filtered against it in memory, so the batch performs a single store write
// with no interleaved re-reads.
func AddVideosToGroup(ctx context.Context, s store.Store, r resolver.Resolver, groupID string, src GroupSource) (*BatchResult, error) {
	if src.empty() {
		return nil, fmt.Errorf("video_ids, playlist_id, or channel_id is required: %w", store.ErrInvalid)
	}

	existing, err := s.GroupVideoIDs(ctx, groupID)
	if err != nil {
		return nil, err
	}

	drafts, failures, err := collectVideos(ctx, r, src)
	if err != nil {
		return nil, err
	}

	fresh := drafts[:0]
	for _, d := range drafts {
		if _, dup := existing[d.VideoID]; dup {
			continue
		}
		existing[d.VideoID] = struct{}{}
		fresh = append(fresh, d)
	}

	result := &BatchResult{Failures: failures}
	if len(fresh) > 0 {
		added, rows, err := s.AddGroupVideos(ctx, groupID, fresh)
		if err != nil {
			return nil, err
		}
		result.Added = added
		result.Videos = rows
	}
	log.Printf("catalog: added %d videos to group %s", result.Added, groupID)
	return result, nil
}

// collectVideos turns a GroupSource into GroupVideo drafts. Playlist and
// channel lookups are all-or-nothing (the whole adapter call failed);
// manual id enrichment degrades per id to a placeholder record instead of
// aborting the batch.
func collectVideos(ctx context.Context, r resolver.Resolver, src GroupSource) ([]models.GroupVideo, []EnrichFailure, error) {
	maxResults := src.MaxResults
	if maxResults <= 0 {
		maxResults = 50
	}

	switch {
	case len(src.VideoIDs) > 0:
		return enrichVideoIDs(ctx, r, src.VideoIDs)

	case src.PlaylistID != "":
		listing, err := r.ListPlaylist(ctx, src.PlaylistID, maxResults)
		if err != nil {
			return nil, nil, fmt.Errorf("fetch playlist %s: %w", src.PlaylistID, err)
		}
		return draftsFromListing(listing, maxResults), nil, nil

	default:
		ref, err := resolver.ParseChannelRef(src.ChannelRef)
		if err != nil {
			return nil, nil, fmt.Errorf("%v: %w", err, store.ErrInvalid)
		}
		listing, err := r.ListChannel(ctx, ref, maxResults)
		if err != nil {
			return nil, nil, fmt.Errorf("fetch channel %s: %w", ref, err)
		}
		return draftsFromListing(listing, maxResults), nil, nil
	}
}

// enrichVideoIDs looks up each id individually in flattened mode. A failed
// lookup yields a placeholder draft plus a failure record; partial success
// is preferred over all-or-nothing.
func enrichVideoIDs(ctx context.Context, r resolver.Resolver, ids []string) ([]models.GroupVideo, []EnrichFailure, error) {
	var drafts []models.GroupVideo
	var failures []EnrichFailure
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		entry, err := r.LookupVideo(ctx, id)
		if err != nil {
			log.Printf("catalog: lookup %s failed, using placeholder: %v", id, err)
			failures = append(failures, EnrichFailure{VideoID: id, Reason: err.Error()})
			drafts = append(drafts, models.GroupVideo{
				VideoID:   id,
				Title:     "Unknown Title",
				Thumbnail: resolver.ThumbnailURL(id),
				Uploader:  "Unknown",
			})
			continue
		}
		drafts = append(drafts, draftFromEntry(*entry))
	}
	return drafts, failures, nil
}

func draftsFromListing(listing *resolver.Listing, maxResults int) []models.GroupVideo {
	drafts := make([]models.GroupVideo, 0, len(listing.Entries))
	for _, e := range listing.Entries {
		if e.VideoID == "" {
			continue
		}
		drafts = append(drafts, draftFromEntry(e))
		if maxResults > 0 && len(drafts) >= maxResults {
			break
		}
	}
	return drafts
}

func draftFromEntry(e resolver.Entry) models.GroupVideo {
	thumb := e.Thumbnail
	if thumb == "" {
		thumb = resolver.ThumbnailURL(e.VideoID)
	}
	title := e.Title
	if title == "" {
		title = "Unknown Title"
	}
	uploader := e.Uploader
	if uploader == "" {
		uploader = "Unknown"
	}
	return models.GroupVideo{
		VideoID:   e.VideoID,
		Title:     title,
		Thumbnail: thumb,
		Duration:  e.Duration,
		Uploader:  uploader,
	}
}
