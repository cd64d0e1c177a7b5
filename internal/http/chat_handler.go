package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/kajal19803/dairyfrontend/internal/domain"
	"github.com/kajal19803/dairyfrontend/internal/support"
)

const imageField = "image"

type ChatHandler struct {
	profiles     Profiles
	maxImageSize int64
}

func NewChatHandler(profiles Profiles, maxImageSize int64) *ChatHandler {
	return &ChatHandler{
		profiles:     profiles,
		maxImageSize: maxImageSize,
	}
}

type ChatMessageRequest struct {
	Text string `json:"text"`
}

func (h *ChatHandler) Get(w http.ResponseWriter, r *http.Request) {
	profile, ok := loadProfile(r.Context(), w, h.profiles)
	if !ok {
		return
	}
	chat := profile.Chat
	respondJSON(w, http.StatusOK, chat.Snapshot())
}

// PostMessage runs one conversation turn and answers with the transcript
// once the bot has replied.
func (h *ChatHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	var req ChatMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respondError(w, http.StatusBadRequest, "invalid_argument", "text is required")
		return
	}

	profile, ok := loadProfile(r.Context(), w, h.profiles)
	if !ok {
		return
	}
	chat := profile.Chat
	// the turn outlives a dropped connection; every backend call in it has
	// its own timeout
	ctx := context.WithoutCancel(r.Context())
	respondJSON(w, http.StatusOK, chat.SubmitUserReply(ctx, req.Text))
}

func (h *ChatHandler) PostImage(w http.ResponseWriter, r *http.Request) {
	// multipart framing adds a little on top of the file itself
	r.Body = http.MaxBytesReader(w, r.Body, h.maxImageSize+64<<10)

	file, header, err := r.FormFile(imageField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "too_large", "image is too large")
			return
		}
		respondError(w, http.StatusBadRequest, "invalid_request", "multipart field \"image\" is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxImageSize+1))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "could not read image")
		return
	}
	if int64(len(data)) > h.maxImageSize {
		respondError(w, http.StatusRequestEntityTooLarge, "too_large", "image is too large")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	if len(data) > 0 && !strings.HasPrefix(contentType, "image/") {
		respondError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", "only images can be attached")
		return
	}

	profile, ok := loadProfile(r.Context(), w, h.profiles)
	if !ok {
		return
	}
	chat := profile.Chat
	snap, err := chat.SubmitImage(context.WithoutCancel(r.Context()), domain.Image{
		Filename:    header.Filename,
		ContentType: contentType,
		Data:        data,
	})
	switch {
	case errors.Is(err, support.ErrImageNotExpected):
		respondError(w, http.StatusConflict, "image_not_expected", err.Error())
	case errors.Is(err, support.ErrEmptyImage):
		respondError(w, http.StatusBadRequest, "invalid_argument", err.Error())
	case err != nil:
		handleBackendError(w, err)
	default:
		respondJSON(w, http.StatusOK, snap)
	}
}
