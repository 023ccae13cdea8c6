package store

import (
	"context"
	"errors"

	"github.com/jjutv/vidgate/internal/models"
)

// Sentinel errors for catalog operations. Callers match with errors.Is and
// map them to HTTP statuses at the boundary.
var (
	// ErrNotFound means the referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict means an add violated a uniqueness rule.
	ErrConflict = errors.New("already exists")
	// ErrInvalid means a required field was missing or malformed.
	ErrInvalid = errors.New("invalid input")
)

// Store defines persistence for the curated catalog: channels, video groups
// with ordered members, schedules, and block lists. Every operation is
// atomic with respect to the catalog invariants (membership uniqueness,
// cascade delete, derived group thumbnail).
type Store interface {
	// CreateGroup inserts an empty group and returns it. ErrInvalid when
	// name is empty.
	CreateGroup(ctx context.Context, name, description string) (*models.Group, error)
	// DeleteGroup removes a group and cascades to its member videos.
	DeleteGroup(ctx context.Context, id string) error
	// GetGroup returns a group with its members ordered by position.
	GetGroup(ctx context.Context, id string) (*models.Group, error)
	// ListGroups returns all groups ordered by recency, with member counts.
	ListGroups(ctx context.Context) ([]models.GroupSummary, error)
	// ListGroupsWithVideos returns all groups ordered by recency, each with
	// its full position-ordered member list.
	ListGroupsWithVideos(ctx context.Context) ([]models.Group, error)
	// GroupVideoIDs returns the member video-id set of a group, for batch
	// dedupe before a write. ErrNotFound when the group is unknown.
	GroupVideoIDs(ctx context.Context, groupID string) (map[string]struct{}, error)
	// AddGroupVideos appends videos to a group, assigning positions max+1
	// onward. Duplicate (group, video) pairs are silently skipped and
	// excluded from the returned count. The group thumbnail is kept in
	// sync with the first member by position.
	AddGroupVideos(ctx context.Context, groupID string, videos []models.GroupVideo) (int, []models.GroupVideo, error)
	// RemoveGroupVideo removes one member and recomputes the group
	// thumbnail from the new first-by-position member (cleared when the
	// group becomes empty).
	RemoveGroupVideo(ctx context.Context, groupID, videoID string) error

	// AddChannel inserts a curated channel. ErrConflict when channel_id is
	// already present, ErrInvalid when channel_id or display name is empty.
	AddChannel(ctx context.Context, ch *models.Channel) (*models.Channel, error)
	// DeleteChannel removes a channel by its platform id.
	DeleteChannel(ctx context.Context, channelID string) error
	// ListChannels returns all curated channels ordered by recency.
	ListChannels(ctx context.Context) ([]models.Channel, error)

	// AddSchedule inserts a quiet-time schedule. ErrInvalid when name,
	// start or end time is missing.
	AddSchedule(ctx context.Context, s *models.Schedule) (*models.Schedule, error)
	// DeleteSchedule removes a schedule by id.
	DeleteSchedule(ctx context.Context, id string) error
	// ListSchedules returns all schedules.
	ListSchedules(ctx context.Context) ([]models.Schedule, error)

	// BlockVideo adds a video to the block list. ErrConflict when already
	// blocked.
	BlockVideo(ctx context.Context, videoID, reason string) error
	// UnblockVideo removes a video from the block list.
	UnblockVideo(ctx context.Context, videoID string) error
	// BlockChannel adds a channel to the block list. ErrConflict when
	// already blocked.
	BlockChannel(ctx context.Context, channelID, reason string) error
	// UnblockChannel removes a channel from the block list.
	UnblockChannel(ctx context.Context, channelID string) error
	// ListBlocked returns both block lists.
	ListBlocked(ctx context.Context) (*models.BlockedList, error)
}
