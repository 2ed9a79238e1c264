package avatar

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/wb-go/wbf/zlog"

	"image-compressor/internal/avatar"
)

type AvatarHandler struct {
	renderer *avatar.Renderer
	logger   *zlog.Zerolog
}

func NewAvatarHandler(renderer *avatar.Renderer, logger *zlog.Zerolog) *AvatarHandler {
	return &AvatarHandler{
		renderer: renderer,
		logger:   logger,
	}
}

// GetPlaceholder renders an initials tile for accounts without a
// photo. The tile is deterministic per name, so far-future caching is
// safe.
func (h *AvatarHandler) GetPlaceholder(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		h.respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	size, _ := strconv.Atoi(r.URL.Query().Get("size"))

	data, err := h.renderer.Render(name, size)
	if err != nil {
		h.logger.Error().Err(err).Str("name", name).Msg("Failed to render placeholder")
		h.respondError(w, http.StatusInternalServerError, "Failed to render placeholder")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := w.Write(data); err != nil {
		h.logger.Error().Err(err).Msg("Failed to stream placeholder")
	}
}

func (h *AvatarHandler) respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   http.StatusText(status),
		"message": message,
	})
}
