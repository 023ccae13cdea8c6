package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jjutv/vidgate/internal/models"
	"github.com/jjutv/vidgate/internal/resolver"
	"github.com/jjutv/vidgate/internal/store"
)

// fakeResolver serves canned listings and lookups, and can be told to fail
// per channel or per video id.
type fakeResolver struct {
	details      map[string]*resolver.VideoDetail
	lookups      map[string]resolver.Entry
	channels     map[string][]resolver.Entry // keyed by ref value
	playlists    map[string]resolver.Listing
	failLookups  map[string]bool
	failChannels map[string]bool
	calls        int
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		details:      make(map[string]*resolver.VideoDetail),
		lookups:      make(map[string]resolver.Entry),
		channels:     make(map[string][]resolver.Entry),
		playlists:    make(map[string]resolver.Listing),
		failLookups:  make(map[string]bool),
		failChannels: make(map[string]bool),
	}
}

func (f *fakeResolver) ResolveVideo(_ context.Context, videoID string) (*resolver.VideoDetail, error) {
	f.calls++
	d, ok := f.details[videoID]
	if !ok {
		return nil, fmt.Errorf("video %s: %w", videoID, resolver.ErrUpstream)
	}
	return d, nil
}

func (f *fakeResolver) ListChannel(_ context.Context, ref resolver.ChannelRef, maxResults int) (*resolver.Listing, error) {
	f.calls++
	if f.failChannels[ref.Value] {
		return nil, fmt.Errorf("channel %s: %w", ref.Value, resolver.ErrUpstream)
	}
	entries := f.channels[ref.Value]
	if maxResults > 0 && len(entries) > maxResults {
		entries = entries[:maxResults]
	}
	return &resolver.Listing{Title: ref.Value, Entries: entries}, nil
}

func (f *fakeResolver) ListPlaylist(_ context.Context, playlistID string, maxResults int) (*resolver.Listing, error) {
	f.calls++
	l, ok := f.playlists[playlistID]
	if !ok {
		return nil, fmt.Errorf("playlist %s: %w", playlistID, resolver.ErrUpstream)
	}
	if maxResults > 0 && len(l.Entries) > maxResults {
		l.Entries = l.Entries[:maxResults]
	}
	return &l, nil
}

func (f *fakeResolver) LookupVideo(_ context.Context, videoID string) (*resolver.Entry, error) {
	f.calls++
	if f.failLookups[videoID] {
		return nil, fmt.Errorf("video %s: %w", videoID, resolver.ErrUpstream)
	}
	e, ok := f.lookups[videoID]
	if !ok {
		return nil, fmt.Errorf("video %s: %w", videoID, resolver.ErrUpstream)
	}
	return &e, nil
}

// memStore is an in-memory Store with the same invariants as the Postgres
// implementation: membership uniqueness, max+1 positions, derived thumbnail,
// cascade delete.
type memStore struct {
	groups    map[string]*models.Group
	videos    map[string][]models.GroupVideo
	channels  []models.Channel
	schedules []models.Schedule
	blockedV  map[string]models.BlockedVideo
	blockedC  map[string]models.BlockedChannel
	nextRowID int64
	nextID    int
}

func newMemStore() *memStore {
	return &memStore{
		groups:   make(map[string]*models.Group),
		videos:   make(map[string][]models.GroupVideo),
		blockedV: make(map[string]models.BlockedVideo),
		blockedC: make(map[string]models.BlockedChannel),
	}
}

func (m *memStore) CreateGroup(_ context.Context, name, description string) (*models.Group, error) {
	if name == "" {
		return nil, fmt.Errorf("group name is required: %w", store.ErrInvalid)
	}
	m.nextID++
	g := &models.Group{
		ID:          fmt.Sprintf("group-%d", m.nextID),
		Name:        name,
		Description: description,
		CreatedAt:   time.Now(),
	}
	m.groups[g.ID] = g
	return g, nil
}

func (m *memStore) DeleteGroup(_ context.Context, id string) error {
	if _, ok := m.groups[id]; !ok {
		return fmt.Errorf("group %s: %w", id, store.ErrNotFound)
	}
	delete(m.groups, id)
	delete(m.videos, id)
	return nil
}

func (m *memStore) GetGroup(_ context.Context, id string) (*models.Group, error) {
	g, ok := m.groups[id]
	if !ok {
		return nil, fmt.Errorf("group %s: %w", id, store.ErrNotFound)
	}
	out := *g
	out.Videos = m.sortedVideos(id)
	return &out, nil
}

func (m *memStore) ListGroups(_ context.Context) ([]models.GroupSummary, error) {
	var out []models.GroupSummary
	for id, g := range m.groups {
		out = append(out, models.GroupSummary{
			ID: g.ID, Name: g.Name, Description: g.Description,
			Thumbnail: g.Thumbnail, VideoCount: len(m.videos[id]), CreatedAt: g.CreatedAt,
		})
	}
	return out, nil
}

func (m *memStore) ListGroupsWithVideos(_ context.Context) ([]models.Group, error) {
	var out []models.Group
	for id, g := range m.groups {
		gg := *g
		gg.Videos = m.sortedVideos(id)
		out = append(out, gg)
	}
	return out, nil
}

func (m *memStore) GroupVideoIDs(_ context.Context, groupID string) (map[string]struct{}, error) {
	if _, ok := m.groups[groupID]; !ok {
		return nil, fmt.Errorf("group %s: %w", groupID, store.ErrNotFound)
	}
	ids := make(map[string]struct{})
	for _, v := range m.videos[groupID] {
		ids[v.VideoID] = struct{}{}
	}
	return ids, nil
}

func (m *memStore) AddGroupVideos(_ context.Context, groupID string, videos []models.GroupVideo) (int, []models.GroupVideo, error) {
	g, ok := m.groups[groupID]
	if !ok {
		return 0, nil, fmt.Errorf("group %s: %w", groupID, store.ErrNotFound)
	}
	existing := make(map[string]struct{})
	maxPos := 0
	for _, v := range m.videos[groupID] {
		existing[v.VideoID] = struct{}{}
		if v.Position > maxPos {
			maxPos = v.Position
		}
	}
	added := 0
	var rows []models.GroupVideo
	for _, v := range videos {
		if _, dup := existing[v.VideoID]; dup {
			continue
		}
		m.nextRowID++
		maxPos++
		row := v
		row.ID = m.nextRowID
		row.GroupID = groupID
		row.Position = maxPos
		row.AddedAt = time.Now()
		m.videos[groupID] = append(m.videos[groupID], row)
		existing[v.VideoID] = struct{}{}
		rows = append(rows, row)
		added++
	}
	m.syncThumbnail(g)
	return added, rows, nil
}

func (m *memStore) RemoveGroupVideo(_ context.Context, groupID, videoID string) error {
	g, ok := m.groups[groupID]
	if !ok {
		return fmt.Errorf("group %s: %w", groupID, store.ErrNotFound)
	}
	vids := m.videos[groupID]
	for i, v := range vids {
		if v.VideoID == videoID {
			m.videos[groupID] = append(vids[:i], vids[i+1:]...)
			m.syncThumbnail(g)
			return nil
		}
	}
	return fmt.Errorf("video %s in group %s: %w", videoID, groupID, store.ErrNotFound)
}

func (m *memStore) syncThumbnail(g *models.Group) {
	vids := m.sortedVideos(g.ID)
	if len(vids) == 0 {
		g.Thumbnail = ""
		return
	}
	g.Thumbnail = vids[0].Thumbnail
}

func (m *memStore) sortedVideos(groupID string) []models.GroupVideo {
	vids := append([]models.GroupVideo(nil), m.videos[groupID]...)
	sort.Slice(vids, func(i, j int) bool { return vids[i].Position < vids[j].Position })
	return vids
}

func (m *memStore) AddChannel(_ context.Context, ch *models.Channel) (*models.Channel, error) {
	if ch.ChannelID == "" || ch.DisplayName == "" {
		return nil, fmt.Errorf("channel_id and channel_name are required: %w", store.ErrInvalid)
	}
	for _, c := range m.channels {
		if c.ChannelID == ch.ChannelID {
			return nil, fmt.Errorf("channel %s: %w", ch.ChannelID, store.ErrConflict)
		}
	}
	out := *ch
	out.ID = int64(len(m.channels) + 1)
	out.CreatedAt = time.Now()
	m.channels = append(m.channels, out)
	return &out, nil
}

func (m *memStore) DeleteChannel(_ context.Context, channelID string) error {
	for i, c := range m.channels {
		if c.ChannelID == channelID {
			m.channels = append(m.channels[:i], m.channels[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("channel %s: %w", channelID, store.ErrNotFound)
}

func (m *memStore) ListChannels(_ context.Context) ([]models.Channel, error) {
	return append([]models.Channel(nil), m.channels...), nil
}

func (m *memStore) AddSchedule(_ context.Context, s *models.Schedule) (*models.Schedule, error) {
	if s.Name == "" || s.StartTime == "" || s.EndTime == "" {
		return nil, fmt.Errorf("name, start_time, and end_time are required: %w", store.ErrInvalid)
	}
	out := *s
	out.ID = fmt.Sprintf("sched-%d", len(m.schedules)+1)
	out.CreatedAt = time.Now()
	m.schedules = append(m.schedules, out)
	return &out, nil
}

func (m *memStore) DeleteSchedule(_ context.Context, id string) error {
	for i, s := range m.schedules {
		if s.ID == id {
			m.schedules = append(m.schedules[:i], m.schedules[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("schedule %s: %w", id, store.ErrNotFound)
}

func (m *memStore) ListSchedules(_ context.Context) ([]models.Schedule, error) {
	return append([]models.Schedule(nil), m.schedules...), nil
}

func (m *memStore) BlockVideo(_ context.Context, videoID, reason string) error {
	if _, ok := m.blockedV[videoID]; ok {
		return fmt.Errorf("video %s: %w", videoID, store.ErrConflict)
	}
	m.blockedV[videoID] = models.BlockedVideo{VideoID: videoID, Reason: reason, BlockedAt: time.Now()}
	return nil
}

func (m *memStore) UnblockVideo(_ context.Context, videoID string) error {
	if _, ok := m.blockedV[videoID]; !ok {
		return fmt.Errorf("blocked video %s: %w", videoID, store.ErrNotFound)
	}
	delete(m.blockedV, videoID)
	return nil
}

func (m *memStore) BlockChannel(_ context.Context, channelID, reason string) error {
	if _, ok := m.blockedC[channelID]; ok {
		return fmt.Errorf("channel %s: %w", channelID, store.ErrConflict)
	}
	m.blockedC[channelID] = models.BlockedChannel{ChannelID: channelID, Reason: reason, BlockedAt: time.Now()}
	return nil
}

func (m *memStore) UnblockChannel(_ context.Context, channelID string) error {
	if _, ok := m.blockedC[channelID]; !ok {
		return fmt.Errorf("blocked channel %s: %w", channelID, store.ErrNotFound)
	}
	delete(m.blockedC, channelID)
	return nil
}

func (m *memStore) ListBlocked(_ context.Context) (*models.BlockedList, error) {
	out := &models.BlockedList{Videos: []models.BlockedVideo{}, Channels: []models.BlockedChannel{}}
	for _, v := range m.blockedV {
		out.Videos = append(out.Videos, v)
	}
	for _, c := range m.blockedC {
		out.Channels = append(out.Channels, c)
	}
	return out, nil
}

var _ store.Store = (*memStore)(nil)
