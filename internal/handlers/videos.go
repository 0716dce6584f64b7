package handlers

import (
	"errors"
	"net/http"

	"github.com/prathamanvekar/video-app/internal/auth"
	"github.com/prathamanvekar/video-app/internal/logging"
	"github.com/prathamanvekar/video-app/internal/models"
	"github.com/prathamanvekar/video-app/internal/videos"
)

// VideoHandler serves the caller's video library.
type VideoHandler struct {
	Videos VideoService
}

// List handles GET /api/video.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	session, ok := auth.SessionFromContext(ctx)
	if !ok || h.Videos == nil {
		h.unavailableOrUnauthorized(w, r, ok)
		return
	}

	list, err := h.Videos.List(ctx, session.Identity())
	if err != nil {
		if errors.Is(err, videos.ErrUnauthorized) {
			respondUnauthorized(ctx, w)
			return
		}
		respondError(ctx, w, http.StatusInternalServerError, "Failed to fetch videos")
		return
	}

	resp := listVideosResponse{Videos: list}
	if len(list) == 0 {
		resp.Message = "No videos found"
	}
	respondJSON(ctx, w, http.StatusOK, resp)
}

// Create handles POST /api/video. Any userId in the body is ignored; the
// owner is always the session's user.
func (h VideoHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	session, ok := auth.SessionFromContext(ctx)
	if !ok || h.Videos == nil {
		h.unavailableOrUnauthorized(w, r, ok)
		return
	}

	var req createVideoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logger.Warn("invalid video payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID != "" && req.UserID != session.UserID {
		logger.Warn("ignoring client supplied owner", "claimedUserId", req.UserID)
	}

	video, err := h.Videos.Create(ctx, session.Identity(), req.input())
	if err != nil {
		switch {
		case errors.Is(err, videos.ErrUnauthorized):
			respondUnauthorized(ctx, w)
		case errors.Is(err, videos.ErrMissingFields):
			respondError(ctx, w, http.StatusBadRequest, "Missing required fields")
		case errors.Is(err, videos.ErrInvalidArgument):
			respondError(ctx, w, http.StatusBadRequest, "Invalid transformation quality")
		default:
			respondError(ctx, w, http.StatusInternalServerError, "Failed to create video")
		}
		return
	}

	respondJSON(ctx, w, http.StatusCreated, createVideoResponse{NewVideo: video})
}

func (h VideoHandler) unavailableOrUnauthorized(w http.ResponseWriter, r *http.Request, authenticated bool) {
	ctx := r.Context()
	if !authenticated {
		respondUnauthorized(ctx, w)
		return
	}
	logging.FromContext(ctx).Error("video service unavailable")
	respondError(ctx, w, http.StatusInternalServerError, "video service unavailable")
}

type createVideoRequest struct {
	Title          string                 `json:"title"`
	Description    string                 `json:"description"`
	VideoURL       string                 `json:"videoUrl"`
	ThumbnailURL   string                 `json:"thumbnailUrl"`
	Controls       *bool                  `json:"controls"`
	Transformation *transformationRequest `json:"transformation"`
	UserID         string                 `json:"userId"`
}

type transformationRequest struct {
	Quality *int `json:"quality"`
}

func (req createVideoRequest) input() videos.CreateInput {
	input := videos.CreateInput{
		Title:        req.Title,
		Description:  req.Description,
		VideoURL:     req.VideoURL,
		ThumbnailURL: req.ThumbnailURL,
		Controls:     req.Controls,
	}
	if req.Transformation != nil {
		input.Quality = req.Transformation.Quality
	}
	return input
}

type listVideosResponse struct {
	Videos  []models.Video `json:"videos"`
	Message string         `json:"message,omitempty"`
}

type createVideoResponse struct {
	NewVideo models.Video `json:"newVideo"`
}
