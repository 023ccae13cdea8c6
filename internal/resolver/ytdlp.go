package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"time"
)

// Ytdlp resolves videos by shelling out to the yt-dlp executable with JSON
// output. Every invocation is bounded by Timeout.
type Ytdlp struct {
	// Path is the yt-dlp executable; defaults to "yt-dlp" from PATH.
	Path string
	// UserAgent is passed through to the extractor when set.
	UserAgent string
	// CookiesFile is an optional Netscape-format cookies file for upstream
	// authentication.
	CookiesFile string
	// Timeout bounds each subprocess invocation.
	Timeout time.Duration
}

var _ Resolver = (*Ytdlp)(nil)

// NewYtdlp returns a resolver with the given executable path and timeout.
func NewYtdlp(path string, timeout time.Duration) *Ytdlp {
	if path == "" {
		path = "yt-dlp"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Ytdlp{Path: path, Timeout: timeout}
}

// ytdlpInfo mirrors the subset of yt-dlp's -J output we consume. The same
// shape covers single videos (formats populated) and flat listings (entries
// populated).
type ytdlpInfo struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Duration    float64       `json:"duration"`
	Thumbnail   string        `json:"thumbnail"`
	Uploader    string        `json:"uploader"`
	ViewCount   int64         `json:"view_count"`
	URL         string        `json:"url"`
	Formats     []ytdlpFormat `json:"formats"`
	Entries     []ytdlpInfo   `json:"entries"`
}

type ytdlpFormat struct {
	URL    string `json:"url"`
	ACodec string `json:"acodec"`
	VCodec string `json:"vcodec"`
}

// ResolveVideo runs a full extraction for one video.
func (y *Ytdlp) ResolveVideo(ctx context.Context, videoID string) (*VideoDetail, error) {
	info, err := y.run(ctx, "https://www.youtube.com/watch?v="+videoID, false, 0)
	if err != nil {
		return nil, err
	}

	d := &VideoDetail{
		VideoID:     videoID,
		Title:       info.Title,
		Description: info.Description,
		Duration:    int(info.Duration),
		Thumbnail:   info.Thumbnail,
		Uploader:    info.Uploader,
		ViewCount:   info.ViewCount,
		BestURL:     info.URL,
	}
	for _, f := range info.Formats {
		d.Candidates = append(d.Candidates, StreamCandidate{
			URL:      f.URL,
			HasAudio: f.ACodec != "" && f.ACodec != "none",
			HasVideo: f.VCodec != "" && f.VCodec != "none",
		})
	}
	return d, nil
}

// ListChannel performs a flattened lookup of a channel's videos page.
func (y *Ytdlp) ListChannel(ctx context.Context, ref ChannelRef, maxResults int) (*Listing, error) {
	info, err := y.run(ctx, ref.URL(), true, maxResults)
	if err != nil {
		return nil, err
	}
	return toListing(info, maxResults), nil
}

// ListPlaylist performs a flattened lookup of a playlist.
func (y *Ytdlp) ListPlaylist(ctx context.Context, playlistID string, maxResults int) (*Listing, error) {
	info, err := y.run(ctx, "https://www.youtube.com/playlist?list="+playlistID, true, maxResults)
	if err != nil {
		return nil, err
	}
	return toListing(info, maxResults), nil
}

// LookupVideo performs a flattened single-video metadata lookup.
func (y *Ytdlp) LookupVideo(ctx context.Context, videoID string) (*Entry, error) {
	info, err := y.run(ctx, "https://www.youtube.com/watch?v="+videoID, true, 0)
	if err != nil {
		return nil, err
	}
	e := entryFromInfo(*info)
	if e.VideoID == "" {
		e.VideoID = videoID
		e.Thumbnail = ThumbnailURL(videoID)
	}
	return &e, nil
}

func toListing(info *ytdlpInfo, maxResults int) *Listing {
	l := &Listing{Title: info.Title}
	for _, raw := range info.Entries {
		if raw.ID == "" {
			continue
		}
		l.Entries = append(l.Entries, entryFromInfo(raw))
		if maxResults > 0 && len(l.Entries) >= maxResults {
			break
		}
	}
	return l
}

func entryFromInfo(raw ytdlpInfo) Entry {
	e := Entry{
		VideoID:   raw.ID,
		Title:     raw.Title,
		Thumbnail: raw.Thumbnail,
		Duration:  int(raw.Duration),
		Uploader:  raw.Uploader,
	}
	if e.Thumbnail == "" && e.VideoID != "" {
		e.Thumbnail = ThumbnailURL(e.VideoID)
	}
	return e
}

// run invokes yt-dlp with JSON output for the given URL and parses stdout.
func (y *Ytdlp) run(ctx context.Context, url string, flat bool, playlistEnd int) (*ytdlpInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, y.Timeout)
	defer cancel()

	args := []string{"-J", "--no-warnings"}
	if flat {
		args = append(args, "--flat-playlist")
	}
	if playlistEnd > 0 {
		args = append(args, "--playlist-end", strconv.Itoa(playlistEnd))
	}
	if y.UserAgent != "" {
		args = append(args, "--user-agent", y.UserAgent)
	}
	if y.CookiesFile != "" {
		args = append(args, "--cookies", y.CookiesFile)
	}
	args = append(args, url)

	cmd := exec.CommandContext(ctx, y.Path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := firstLine(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("%w: %s", ErrUpstream, msg)
	}

	var info ytdlpInfo
	if err := json.Unmarshal(stdout.Bytes(), &info); err != nil {
		return nil, fmt.Errorf("%w: parse output: %v", ErrUpstream, err)
	}
	return &info, nil
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
