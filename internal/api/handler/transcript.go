package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/hszk-dev/ytranscript/internal/domain/repository"
	"github.com/hszk-dev/ytranscript/internal/usecase"
	"github.com/hszk-dev/ytranscript/internal/videoid"
)

// Request/Response types

type TranscribeRequest struct {
	URL string `json:"url"`
}

type TranscribeResponse struct {
	VideoID    string `json:"video_id"`
	Source     string `json:"source"`
	Model      string `json:"model"`
	Transcript string `json:"transcript"`
	Cached     bool   `json:"cached"`
}

type StatusResponse struct {
	Running       bool   `json:"running"`
	CacheDir      string `json:"cache_dir"`
	CacheItems    int    `json:"cache_items"`
	Model         string `json:"model"`
	CaptionsOnly  bool   `json:"captions_only"`
	AudioFallback bool   `json:"audio_fallback"`
}

type ClearCacheResponse struct {
	Cleared int `json:"cleared"`
}

// TranscriptHandler handles transcript-related HTTP requests.
type TranscriptHandler struct {
	svc usecase.TranscriptService
}

// NewTranscriptHandler creates a new TranscriptHandler.
func NewTranscriptHandler(svc usecase.TranscriptService) *TranscriptHandler {
	return &TranscriptHandler{svc: svc}
}

// Transcribe handles POST /api/transcribe
func (h *TranscriptHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	var req TranscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body")
		return
	}

	if req.URL == "" {
		Error(w, http.StatusBadRequest, "INVALID_URL", "URL is required")
		return
	}

	output, err := h.svc.Transcribe(r.Context(), req.URL)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	JSON(w, http.StatusOK, TranscribeResponse{
		VideoID:    output.VideoID,
		Source:     string(output.Meta.Source),
		Model:      output.Meta.Model,
		Transcript: output.Text,
		Cached:     output.Cached,
	})
}

// Status handles GET /api/status
func (h *TranscriptHandler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.svc.Status(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	JSON(w, http.StatusOK, StatusResponse{
		Running:       true,
		CacheDir:      status.CacheDir,
		CacheItems:    status.CacheItems,
		Model:         status.Model,
		CaptionsOnly:  status.CaptionsOnly,
		AudioFallback: status.AudioFallback,
	})
}

// ClearCache handles POST /api/clear-cache
func (h *TranscriptHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	cleared, err := h.svc.ClearCache(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	JSON(w, http.StatusOK, ClearCacheResponse{Cleared: cleared})
}

// Download handles GET /api/download
func (h *TranscriptHandler) Download(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("video_id")
	if id == "" {
		Error(w, http.StatusBadRequest, "INVALID_VIDEO_ID", "video_id query parameter is required")
		return
	}

	text, err := h.svc.CachedTranscript(id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+".txt"))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(text))
}

func (h *TranscriptHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, videoid.ErrNoVideoID):
		Error(w, http.StatusBadRequest, "INVALID_URL", "Could not extract a video ID from the URL")
	case errors.Is(err, usecase.ErrNoCaptions):
		Error(w, http.StatusNotFound, "NO_CAPTIONS", "No captions found for this video")
	case errors.Is(err, repository.ErrAudioBlocked):
		Error(w, http.StatusBadGateway, "AUDIO_BLOCKED", "The platform refused the audio download")
	case errors.Is(err, usecase.ErrAudioDownloadFailed):
		Error(w, http.StatusBadGateway, "AUDIO_DOWNLOAD", "Audio download failed")
	case errors.Is(err, usecase.ErrTranscriptionFailed):
		Error(w, http.StatusInternalServerError, "TRANSCRIBE_ERROR", "Transcription failed")
	case errors.Is(err, repository.ErrTranscriptNotFound):
		Error(w, http.StatusNotFound, "NOT_FOUND", "No cached transcript for this video")
	default:
		Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
	}
}
