package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jjutv/vidgate/internal/models"
)

// Postgres implements Store using PostgreSQL.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ Store = (*Postgres)(nil)

// NewPostgres creates a Postgres store from a DSN. Caller must call Close when done.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close closes the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// isUniqueViolation reports whether err is a Postgres unique-constraint error.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// --- groups ---

func (p *Postgres) CreateGroup(ctx context.Context, name, description string) (*models.Group, error) {
	if name == "" {
		return nil, fmt.Errorf("group name is required: %w", ErrInvalid)
	}
	g := &models.Group{ID: uuid.NewString(), Name: name, Description: description}
	err := p.pool.QueryRow(ctx,
		`INSERT INTO video_groups (id, name, description, thumbnail)
		 VALUES ($1, $2, $3, '')
		 RETURNING created_at`,
		g.ID, g.Name, g.Description,
	).Scan(&g.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("CreateGroup: %w", err)
	}
	return g, nil
}

func (p *Postgres) DeleteGroup(ctx context.Context, id string) error {
	// Member videos go with the group via ON DELETE CASCADE.
	tag, err := p.pool.Exec(ctx, `DELETE FROM video_groups WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("DeleteGroup: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("group %s: %w", id, ErrNotFound)
	}
	return nil
}

func (p *Postgres) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	var g models.Group
	err := p.pool.QueryRow(ctx,
		`SELECT id, name, description, thumbnail, created_at
		 FROM video_groups WHERE id = $1`, id,
	).Scan(&g.ID, &g.Name, &g.Description, &g.Thumbnail, &g.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("group %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetGroup: %w", err)
	}

	rows, err := p.pool.Query(ctx,
		`SELECT id, group_id, video_id, title, thumbnail, duration, uploader, position, added_at
		 FROM group_videos WHERE group_id = $1 ORDER BY position ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("GetGroup videos: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var v models.GroupVideo
		if err := rows.Scan(&v.ID, &v.GroupID, &v.VideoID, &v.Title, &v.Thumbnail,
			&v.Duration, &v.Uploader, &v.Position, &v.AddedAt); err != nil {
			return nil, fmt.Errorf("GetGroup scan: %w", err)
		}
		g.Videos = append(g.Videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetGroup rows: %w", err)
	}
	return &g, nil
}

func (p *Postgres) ListGroups(ctx context.Context) ([]models.GroupSummary, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT g.id, g.name, g.description, g.thumbnail, g.created_at, COUNT(gv.id)
		 FROM video_groups g
		 LEFT JOIN group_videos gv ON gv.group_id = g.id
		 GROUP BY g.id
		 ORDER BY g.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("ListGroups: %w", err)
	}
	defer rows.Close()

	var groups []models.GroupSummary
	for rows.Next() {
		var g models.GroupSummary
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.Thumbnail, &g.CreatedAt, &g.VideoCount); err != nil {
			return nil, fmt.Errorf("ListGroups scan: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (p *Postgres) ListGroupsWithVideos(ctx context.Context) ([]models.Group, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, name, description, thumbnail, created_at
		 FROM video_groups ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("ListGroupsWithVideos: %w", err)
	}
	defer rows.Close()

	var groups []models.Group
	index := make(map[string]int)
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.Thumbnail, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("ListGroupsWithVideos scan: %w", err)
		}
		index[g.ID] = len(groups)
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListGroupsWithVideos rows: %w", err)
	}
	rows.Close()

	vrows, err := p.pool.Query(ctx,
		`SELECT id, group_id, video_id, title, thumbnail, duration, uploader, position, added_at
		 FROM group_videos ORDER BY group_id, position ASC`)
	if err != nil {
		return nil, fmt.Errorf("ListGroupsWithVideos videos: %w", err)
	}
	defer vrows.Close()
	for vrows.Next() {
		var v models.GroupVideo
		if err := vrows.Scan(&v.ID, &v.GroupID, &v.VideoID, &v.Title, &v.Thumbnail,
			&v.Duration, &v.Uploader, &v.Position, &v.AddedAt); err != nil {
			return nil, fmt.Errorf("ListGroupsWithVideos scan: %w", err)
		}
		if i, ok := index[v.GroupID]; ok {
			groups[i].Videos = append(groups[i].Videos, v)
		}
	}
	return groups, vrows.Err()
}

func (p *Postgres) GroupVideoIDs(ctx context.Context, groupID string) (map[string]struct{}, error) {
	var exists bool
	if err := p.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM video_groups WHERE id = $1)`, groupID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("GroupVideoIDs: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("group %s: %w", groupID, ErrNotFound)
	}

	rows, err := p.pool.Query(ctx,
		`SELECT video_id FROM group_videos WHERE group_id = $1`, groupID)
	if err != nil {
		return nil, fmt.Errorf("GroupVideoIDs: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("GroupVideoIDs scan: %w", err)
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

func (p *Postgres) AddGroupVideos(ctx context.Context, groupID string, videos []models.GroupVideo) (int, []models.GroupVideo, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("AddGroupVideos begin: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock the group row so concurrent batches against the same group get
	// serialized position assignment.
	var lockedID string
	err = tx.QueryRow(ctx,
		`SELECT id FROM video_groups WHERE id = $1 FOR UPDATE`, groupID).Scan(&lockedID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil, fmt.Errorf("group %s: %w", groupID, ErrNotFound)
	}
	if err != nil {
		return 0, nil, fmt.Errorf("AddGroupVideos: %w", err)
	}

	var pos int
	if err := tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(position), 0) FROM group_videos WHERE group_id = $1`, groupID).Scan(&pos); err != nil {
		return 0, nil, fmt.Errorf("AddGroupVideos max position: %w", err)
	}

	added := 0
	var inserted []models.GroupVideo
	for _, v := range videos {
		row := models.GroupVideo{
			GroupID:   groupID,
			VideoID:   v.VideoID,
			Title:     v.Title,
			Thumbnail: v.Thumbnail,
			Duration:  v.Duration,
			Uploader:  v.Uploader,
			Position:  pos + 1,
		}
		err := tx.QueryRow(ctx,
			`INSERT INTO group_videos (group_id, video_id, title, thumbnail, duration, uploader, position)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (group_id, video_id) DO NOTHING
			 RETURNING id, added_at`,
			row.GroupID, row.VideoID, row.Title, row.Thumbnail, row.Duration, row.Uploader, row.Position,
		).Scan(&row.ID, &row.AddedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			continue // duplicate membership, skipped silently
		}
		if err != nil {
			return 0, nil, fmt.Errorf("AddGroupVideos insert: %w", err)
		}
		pos++
		added++
		inserted = append(inserted, row)
	}

	if err := syncGroupThumbnail(ctx, tx, groupID); err != nil {
		return 0, nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, nil, fmt.Errorf("AddGroupVideos commit: %w", err)
	}
	return added, inserted, nil
}

func (p *Postgres) RemoveGroupVideo(ctx context.Context, groupID, videoID string) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("RemoveGroupVideo begin: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`DELETE FROM group_videos WHERE group_id = $1 AND video_id = $2`, groupID, videoID)
	if err != nil {
		return fmt.Errorf("RemoveGroupVideo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("video %s in group %s: %w", videoID, groupID, ErrNotFound)
	}

	if err := syncGroupThumbnail(ctx, tx, groupID); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("RemoveGroupVideo commit: %w", err)
	}
	return nil
}

// syncGroupThumbnail re-derives the group thumbnail from the first member by
// position, clearing it when the group has no members left.
func syncGroupThumbnail(ctx context.Context, tx pgx.Tx, groupID string) error {
	_, err := tx.Exec(ctx,
		`UPDATE video_groups SET thumbnail = COALESCE(
		   (SELECT thumbnail FROM group_videos WHERE group_id = $1 ORDER BY position ASC LIMIT 1), '')
		 WHERE id = $1`, groupID)
	if err != nil {
		return fmt.Errorf("sync group thumbnail: %w", err)
	}
	return nil
}

// --- channels ---

func (p *Postgres) AddChannel(ctx context.Context, ch *models.Channel) (*models.Channel, error) {
	if ch.ChannelID == "" || ch.DisplayName == "" {
		return nil, fmt.Errorf("channel_id and channel_name are required: %w", ErrInvalid)
	}
	out := *ch
	err := p.pool.QueryRow(ctx,
		`INSERT INTO channels (channel_id, display_name, description, thumbnail)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		ch.ChannelID, ch.DisplayName, ch.Description, ch.Thumbnail,
	).Scan(&out.ID, &out.CreatedAt)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("channel %s: %w", ch.ChannelID, ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("AddChannel: %w", err)
	}
	return &out, nil
}

func (p *Postgres) DeleteChannel(ctx context.Context, channelID string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM channels WHERE channel_id = $1`, channelID)
	if err != nil {
		return fmt.Errorf("DeleteChannel: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("channel %s: %w", channelID, ErrNotFound)
	}
	return nil
}

func (p *Postgres) ListChannels(ctx context.Context) ([]models.Channel, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, channel_id, display_name, description, thumbnail, created_at
		 FROM channels ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("ListChannels: %w", err)
	}
	defer rows.Close()

	var channels []models.Channel
	for rows.Next() {
		var ch models.Channel
		if err := rows.Scan(&ch.ID, &ch.ChannelID, &ch.DisplayName, &ch.Description, &ch.Thumbnail, &ch.CreatedAt); err != nil {
			return nil, fmt.Errorf("ListChannels scan: %w", err)
		}
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}

// --- schedules ---

func (p *Postgres) AddSchedule(ctx context.Context, s *models.Schedule) (*models.Schedule, error) {
	if s.Name == "" || s.StartTime == "" || s.EndTime == "" {
		return nil, fmt.Errorf("name, start_time, and end_time are required: %w", ErrInvalid)
	}
	out := *s
	out.ID = uuid.NewString()
	err := p.pool.QueryRow(ctx,
		`INSERT INTO schedules (id, name, start_time, end_time, message, voice_enabled, voice_repeat, days)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at`,
		out.ID, out.Name, out.StartTime, out.EndTime, out.Message, out.VoiceEnabled, out.VoiceRepeat, out.Days,
	).Scan(&out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("AddSchedule: %w", err)
	}
	return &out, nil
}

func (p *Postgres) DeleteSchedule(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("DeleteSchedule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("schedule %s: %w", id, ErrNotFound)
	}
	return nil
}

func (p *Postgres) ListSchedules(ctx context.Context) ([]models.Schedule, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, name, start_time, end_time, message, voice_enabled, voice_repeat, days, created_at
		 FROM schedules ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("ListSchedules: %w", err)
	}
	defer rows.Close()

	var schedules []models.Schedule
	for rows.Next() {
		var s models.Schedule
		if err := rows.Scan(&s.ID, &s.Name, &s.StartTime, &s.EndTime, &s.Message,
			&s.VoiceEnabled, &s.VoiceRepeat, &s.Days, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("ListSchedules scan: %w", err)
		}
		schedules = append(schedules, s)
	}
	return schedules, rows.Err()
}

// --- block lists ---

func (p *Postgres) BlockVideo(ctx context.Context, videoID, reason string) error {
	if videoID == "" {
		return fmt.Errorf("video_id is required: %w", ErrInvalid)
	}
	_, err := p.pool.Exec(ctx,
		`INSERT INTO blocked_videos (video_id, reason) VALUES ($1, $2)`, videoID, reason)
	if isUniqueViolation(err) {
		return fmt.Errorf("video %s: %w", videoID, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("BlockVideo: %w", err)
	}
	return nil
}

func (p *Postgres) UnblockVideo(ctx context.Context, videoID string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM blocked_videos WHERE video_id = $1`, videoID)
	if err != nil {
		return fmt.Errorf("UnblockVideo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("blocked video %s: %w", videoID, ErrNotFound)
	}
	return nil
}

func (p *Postgres) BlockChannel(ctx context.Context, channelID, reason string) error {
	if channelID == "" {
		return fmt.Errorf("channel_id is required: %w", ErrInvalid)
	}
	_, err := p.pool.Exec(ctx,
		`INSERT INTO blocked_channels (channel_id, reason) VALUES ($1, $2)`, channelID, reason)
	if isUniqueViolation(err) {
		return fmt.Errorf("channel %s: %w", channelID, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("BlockChannel: %w", err)
	}
	return nil
}

func (p *Postgres) UnblockChannel(ctx context.Context, channelID string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM blocked_channels WHERE channel_id = $1`, channelID)
	if err != nil {
		return fmt.Errorf("UnblockChannel: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("blocked channel %s: %w", channelID, ErrNotFound)
	}
	return nil
}

func (p *Postgres) ListBlocked(ctx context.Context) (*models.BlockedList, error) {
	out := &models.BlockedList{
		Videos:   []models.BlockedVideo{},
		Channels: []models.BlockedChannel{},
	}

	rows, err := p.pool.Query(ctx,
		`SELECT video_id, reason, blocked_at FROM blocked_videos ORDER BY blocked_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("ListBlocked videos: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var v models.BlockedVideo
		if err := rows.Scan(&v.VideoID, &v.Reason, &v.BlockedAt); err != nil {
			return nil, fmt.Errorf("ListBlocked scan: %w", err)
		}
		out.Videos = append(out.Videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListBlocked rows: %w", err)
	}

	crows, err := p.pool.Query(ctx,
		`SELECT channel_id, reason, blocked_at FROM blocked_channels ORDER BY blocked_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("ListBlocked channels: %w", err)
	}
	defer crows.Close()
	for crows.Next() {
		var c models.BlockedChannel
		if err := crows.Scan(&c.ChannelID, &c.Reason, &c.BlockedAt); err != nil {
			return nil, fmt.Errorf("ListBlocked scan: %w", err)
		}
		out.Channels = append(out.Channels, c)
	}
	return out, crows.Err()
}
