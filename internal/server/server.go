package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/jjutv/vidgate/internal/config"
	"github.com/jjutv/vidgate/internal/memocache"
	"github.com/jjutv/vidgate/internal/models"
	"github.com/jjutv/vidgate/internal/resolver"
	"github.com/jjutv/vidgate/internal/service"
	"github.com/jjutv/vidgate/internal/store"
	"github.com/jjutv/vidgate/web"
)

const serviceVersion = "1.0"

// Server holds dependencies for the HTTP API.
type Server struct {
	store    store.Store
	cfg      *config.Config
	resolver resolver.Resolver
	memo     *memocache.Cache
	mux      *http.ServeMux
}

// New creates a Server and registers routes.
func New(s store.Store, cfg *config.Config, r resolver.Resolver, memo *memocache.Cache) *Server {
	srv := &Server{store: s, cfg: cfg, resolver: r, memo: memo, mux: http.NewServeMux()}
	srv.routes()
	return srv
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleHealth)

	// Resolution
	s.mux.HandleFunc("GET /api/extract", s.handleExtract)
	s.mux.HandleFunc("POST /api/extract", s.handleExtract)
	s.mux.HandleFunc("GET /api/channels/videos", s.handleChannelVideos)
	s.mux.HandleFunc("GET /api/playlist", s.handlePlaylist)
	s.mux.HandleFunc("POST /api/playlist", s.handlePlaylist)
	s.mux.HandleFunc("POST /api/cache/clear", s.handleCacheClear)

	// Channels
	s.mux.HandleFunc("GET /api/channels", s.handleListChannels)
	s.mux.HandleFunc("POST /api/channels", s.handleAddChannel)
	s.mux.HandleFunc("DELETE /api/channels/{channelID}", s.handleDeleteChannel)

	// Groups
	s.mux.HandleFunc("GET /api/groups", s.handleListGroups)
	s.mux.HandleFunc("POST /api/groups", s.handleCreateGroup)
	s.mux.HandleFunc("DELETE /api/groups/{groupID}", s.handleDeleteGroup)
	s.mux.HandleFunc("GET /api/groups/{groupID}/videos", s.handleGetGroup)
	s.mux.HandleFunc("POST /api/groups/{groupID}/videos", s.handleAddGroupVideos)
	s.mux.HandleFunc("DELETE /api/groups/{groupID}/videos/{videoID}", s.handleRemoveGroupVideo)

	// Schedules
	s.mux.HandleFunc("GET /api/schedules", s.handleListSchedules)
	s.mux.HandleFunc("POST /api/schedules", s.handleAddSchedule)
	s.mux.HandleFunc("DELETE /api/schedules/{id}", s.handleDeleteSchedule)

	// Block lists
	s.mux.HandleFunc("GET /api/blocked", s.handleListBlocked)
	s.mux.HandleFunc("POST /api/blocked/video", s.handleBlockVideo)
	s.mux.HandleFunc("DELETE /api/blocked/video/{videoID}", s.handleUnblockVideo)
	s.mux.HandleFunc("POST /api/blocked/channel", s.handleBlockChannel)
	s.mux.HandleFunc("DELETE /api/blocked/channel/{channelID}", s.handleUnblockChannel)

	// Admin
	s.mux.HandleFunc("GET /admin", handleAdminPage)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe starts the HTTP server on the configured port.
// It blocks until the server is shut down or ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := ":" + s.cfg.ServerPort
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      withCORS(withLogging(s)),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("server shutdown: %v", err)
		}
	}()

	log.Printf("listening on %s", addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("ListenAndServe: %w", err)
	}
	return nil
}

// --- health ---

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "online",
		"service":   "vidgate",
		"version":   serviceVersion,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// --- resolution handlers ---

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	videoID := requestParam(r, "video_id")
	if videoID == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("video_id is required"))
		return
	}

	res, err := service.ResolveVideo(r.Context(), s.memo, s.resolver, videoID)
	if err != nil {
		writeErr(w, statusFromErr(err), err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		*service.ExtractResult
	}{true, res})
}

func (s *Server) handleChannelVideos(w http.ResponseWriter, r *http.Request) {
	maxResults, err := queryInt(r, "max_results", 50)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}

	var channelIndex *int
	if v := r.URL.Query().Get("channel"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid channel: %s", v))
			return
		}
		channelIndex = &n
	}

	res, err := service.ListCatalogVideos(r.Context(), s.memo, s.store, s.resolver, maxResults, channelIndex)
	if err != nil {
		writeErr(w, statusFromErr(err), err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"videos":     res.Videos,
		"count":      len(res.Videos),
		"fetched_at": res.FetchedAt,
	})
}

func (s *Server) handlePlaylist(w http.ResponseWriter, r *http.Request) {
	maxResults, err := queryInt(r, "max_results", 50)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	playlistID := requestParam(r, "playlist_id")
	if playlistID == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("playlist_id is required"))
		return
	}

	res, err := service.ResolvePlaylist(r.Context(), s.memo, s.resolver, playlistID, maxResults)
	if err != nil {
		writeErr(w, statusFromErr(err), err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"playlist_id":    res.PlaylistID,
		"playlist_title": res.PlaylistTitle,
		"videos":         res.Videos,
		"count":          len(res.Videos),
		"fetched_at":     res.FetchedAt,
	})
}

func (s *Server) handleCacheClear(w http.ResponseWriter, _ *http.Request) {
	n := s.memo.Clear()
	log.Printf("cache cleared (%d entries)", n)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Cleared %d cache entries", n),
	})
}

// --- channel handlers ---

func (s *Server) handleListChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := s.store.ListChannels(r.Context())
	if err != nil {
		writeErr(w, statusFromErr(err), err)
		return
	}
	if channels == nil {
		channels = []models.Channel{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"channels": channels,
		"count":    len(channels),
	})
}

type addChannelRequest struct {
	ChannelID   string `json:"channel_id"`
	ChannelName string `json:"channel_name"`
	Description string `json:"description"`
	Thumbnail   string `json:"thumbnail"`
}

func (s *Server) handleAddChannel(w http.ResponseWriter, r *http.Request) {
	var req addChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}
	if req.ChannelID == "" || req.ChannelName == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("channel_id and channel_name are required"))
		return
	}

	ch, err := s.store.AddChannel(r.Context(), &models.Channel{
		ChannelID:   req.ChannelID,
		DisplayName: req.ChannelName,
		Description: req.Description,
		Thumbnail:   req.Thumbnail,
	})
	if err != nil {
		writeErr(w, statusFromErr(err), err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Channel added successfully",
		"channel": ch,
	})
}

func (s *Server) handleDeleteChannel(w http.ResponseWriter, r *http.Request) {
	channelID := r.PathValue("channelID")
	if err := s.store.DeleteChannel(r.Context(), channelID); err != nil {
		writeErr(w, statusFromErr(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Channel deleted successfully",
	})
}

// --- group handlers ---

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	// include_videos returns full member lists instead of counts.
	if v := r.URL.Query().Get("include_videos"); v == "true" || v == "1" {
		groups, err := s.store.ListGroupsWithVideos(r.Context())
		if err != nil {
			writeErr(w, statusFromErr(err), err)
			return
		}
		if groups == nil {
			groups = []models.Group{}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"groups":  groups,
			"count":   len(groups),
		})
		return
	}

	groups, err := s.store.ListGroups(r.Context())
	if err != nil {
		writeErr(w, statusFromErr(err), err)
		return
	}
	if groups == nil {
		groups = []models.GroupSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"groups":  groups,
		"count":   len(groups),
	})
}

type createGroupRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	VideoIDs    []string `json:"video_ids"`
	PlaylistID  string   `json:"playlist_id"`
	ChannelID   string   `json:"channel_id"`
	MaxResults  int      `json:"max_results"`
}

func (r createGroupRequest) source() service.GroupSource {
	src := service.GroupSource{
		VideoIDs:   r.VideoIDs,
		PlaylistID: r.PlaylistID,
		ChannelRef: r.ChannelID,
		MaxResults: r.MaxResults,
	}
	if src.MaxResults <= 0 {
		src.MaxResults = 50
	}
	return src
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}
	if req.Name == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("group name is required"))
		return
	}
	group, batch, err := service.CreateGroup(r.Context(), s.store, s.resolver, req.Name, req.Description, req.source())
	if err != nil {
		writeErr(w, statusFromErr(err), err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success":     true,
		"group":       group,
		"added_count": batch.Added,
		"failures":    batch.Failures,
	})
}

func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("groupID")
	if err := s.store.DeleteGroup(r.Context(), groupID); err != nil {
		writeErr(w, statusFromErr(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Group deleted successfully",
	})
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("groupID")
	group, err := s.store.GetGroup(r.Context(), groupID)
	if err != nil {
		writeErr(w, statusFromErr(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"group":   group,
		"count":   len(group.Videos),
	})
}

type addGroupVideosRequest struct {
	VideoIDs   []string `json:"video_ids"`
	PlaylistID string   `json:"playlist_id"`
	ChannelID  string   `json:"channel_id"`
	MaxResults int      `json:"max_results"`
}

func (s *Server) handleAddGroupVideos(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("groupID")

	var req addGroupVideosRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}
	src := createGroupRequest{
		VideoIDs:   req.VideoIDs,
		PlaylistID: req.PlaylistID,
		ChannelID:  req.ChannelID,
		MaxResults: req.MaxResults,
	}.source()

	batch, err := service.AddVideosToGroup(r.Context(), s.store, s.resolver, groupID, src)
	if err != nil {
		writeErr(w, statusFromErr(err), err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"added_count": batch.Added,
		"videos":      batch.Videos,
		"failures":    batch.Failures,
	})
}

func (s *Server) handleRemoveGroupVideo(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("groupID")
	videoID := r.PathValue("videoID")
	if err := s.store.RemoveGroupVideo(r.Context(), groupID, videoID); err != nil {
		writeErr(w, statusFromErr(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Video removed from group",
	})
}

// --- schedule handlers ---

func (s *Server) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	schedules, err := s.store.ListSchedules(r.Context())
	if err != nil {
		writeErr(w, statusFromErr(err), err)
		return
	}
	if schedules == nil {
		schedules = []models.Schedule{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"schedules": schedules,
		"count":     len(schedules),
	})
}

type addScheduleRequest struct {
	Name         string   `json:"name"`
	StartTime    string   `json:"start_time"`
	EndTime      string   `json:"end_time"`
	Message      string   `json:"message"`
	VoiceEnabled *bool    `json:"voice_enabled"`
	VoiceRepeat  int      `json:"voice_repeat"`
	Days         []string `json:"days"`
}

func (s *Server) handleAddSchedule(w http.ResponseWriter, r *http.Request) {
	var req addScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}

	sched := &models.Schedule{
		Name:         req.Name,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Message:      req.Message,
		VoiceEnabled: true,
		VoiceRepeat:  req.VoiceRepeat,
		Days:         req.Days,
	}
	if req.VoiceEnabled != nil {
		sched.VoiceEnabled = *req.VoiceEnabled
	}
	if sched.Message == "" {
		sched.Message = "Break time"
	}
	if sched.VoiceRepeat <= 0 {
		sched.VoiceRepeat = 1
	}
	if len(sched.Days) == 0 {
		sched.Days = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}
	}

	created, err := s.store.AddSchedule(r.Context(), sched)
	if err != nil {
		writeErr(w, statusFromErr(err), err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success":  true,
		"schedule": created,
	})
}

func (s *Server) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteSchedule(r.Context(), r.PathValue("id")); err != nil {
		writeErr(w, statusFromErr(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// --- block list handlers ---

func (s *Server) handleListBlocked(w http.ResponseWriter, r *http.Request) {
	blocked, err := s.store.ListBlocked(r.Context())
	if err != nil {
		writeErr(w, statusFromErr(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"videos":   blocked.Videos,
		"channels": blocked.Channels,
	})
}

type blockRequest struct {
	VideoID   string `json:"video_id"`
	ChannelID string `json:"channel_id"`
	Reason    string `json:"reason"`
}

func (s *Server) handleBlockVideo(w http.ResponseWriter, r *http.Request) {
	var req blockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}
	if req.VideoID == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("video_id is required"))
		return
	}
	if req.Reason == "" {
		req.Reason = "Blocked by admin"
	}

	if err := s.store.BlockVideo(r.Context(), req.VideoID, req.Reason); err != nil {
		writeErr(w, statusFromErr(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleUnblockVideo(w http.ResponseWriter, r *http.Request) {
	if err := s.store.UnblockVideo(r.Context(), r.PathValue("videoID")); err != nil {
		writeErr(w, statusFromErr(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleBlockChannel(w http.ResponseWriter, r *http.Request) {
	var req blockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}
	if req.ChannelID == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("channel_id is required"))
		return
	}
	if req.Reason == "" {
		req.Reason = "Blocked by admin"
	}

	if err := s.store.BlockChannel(r.Context(), req.ChannelID, req.Reason); err != nil {
		writeErr(w, statusFromErr(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleUnblockChannel(w http.ResponseWriter, r *http.Request) {
	if err := s.store.UnblockChannel(r.Context(), r.PathValue("channelID")); err != nil {
		writeErr(w, statusFromErr(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// --- admin page ---

func handleAdminPage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(web.AdminPage)
}

// --- middleware ---

// withCORS adds CORS headers to every response and handles preflight OPTIONS requests.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// withLogging wraps a handler and logs each request with method, path, status, and duration.
func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		duration := time.Since(start)
		statusCode := sw.status

		// Color the status code for terminal readability.
		statusColor := colorForStatus(statusCode)
		methodColor := colorForMethod(r.Method)

		log.Printf("%s %-7s %s\x1b[0m  %s %3d %s\x1b[0m  %s",
			methodColor, r.Method, "\x1b[0m",
			statusColor, statusCode, "\x1b[0m",
			formatDuration(duration),
		)
		if r.URL.RawQuery != "" {
			log.Printf("         %s?%s", r.URL.Path, r.URL.RawQuery)
		} else {
			log.Printf("         %s", r.URL.Path)
		}
	})
}

func colorForStatus(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "\x1b[32m" // green
	case code >= 300 && code < 400:
		return "\x1b[36m" // cyan
	case code >= 400 && code < 500:
		return "\x1b[33m" // yellow
	default:
		return "\x1b[31m" // red
	}
}

func colorForMethod(method string) string {
	switch method {
	case http.MethodGet:
		return "\x1b[36m" // cyan
	case http.MethodPost:
		return "\x1b[32m" // green
	case http.MethodPatch, http.MethodPut:
		return "\x1b[33m" // yellow
	case http.MethodDelete:
		return "\x1b[31m" // red
	default:
		return "\x1b[37m" // white
	}
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dus", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}

// --- helpers ---

// statusFromErr maps catalog and resolver errors to HTTP status codes.
func statusFromErr(err error) int {
	switch {
	case errors.Is(err, store.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, resolver.ErrUpstream), errors.Is(err, resolver.ErrNoPlayableStream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// requestParam reads a parameter from the query string, falling back to a
// JSON body field on POST. The body is consumed on the first fallback.
func requestParam(r *http.Request, key string) string {
	if v := r.URL.Query().Get(key); v != "" {
		return v
	}
	if r.Method == http.MethodPost && r.Body != nil {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			if s, ok := body[key].(string); ok {
				return s
			}
		}
	}
	return ""
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %s", key, v)
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("writeJSON: %v", err)
	}
}

func writeErr(w http.ResponseWriter, status int, err error) {
	if status >= 500 {
		log.Printf("ERROR %d: %v", status, err)
	}
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   err.Error(),
	})
}
