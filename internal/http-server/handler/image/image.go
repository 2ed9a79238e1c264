// Engine tool endpoints: stateless image inspection and one-shot web
// optimization on raw request bodies.
package image

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/wb-go/wbf/zlog"

	"image-compressor/internal/compress/server"
	"image-compressor/internal/domain"
	"image-compressor/internal/http-server/handler/image/dto"
	"image-compressor/internal/preset"
)

var maxBodySize = preset.MaxUploadCeiling()

type ImageHandler struct {
	engine imageEngine
	logger *zlog.Zerolog
}

func NewImageHandler(engine imageEngine, logger *zlog.Zerolog) *ImageHandler {
	return &ImageHandler{
		engine: engine,
		logger: logger,
	}
}

func (h *ImageHandler) ValidateImage(w http.ResponseWriter, r *http.Request) {
	buf, ok := h.readBody(w, r)
	if !ok {
		return
	}

	report := h.engine.ValidateImage(r.Context(), buf)

	h.respondJSON(w, http.StatusOK, dto.ValidationResponse{
		IsValid: report.IsValid,
		Format:  string(report.Format),
		Width:   report.Width,
		Height:  report.Height,
		Size:    report.Size,
		Error:   report.Error,
	})
}

func (h *ImageHandler) GetMetadata(w http.ResponseWriter, r *http.Request) {
	buf, ok := h.readBody(w, r)
	if !ok {
		return
	}

	meta, err := h.engine.Metadata(r.Context(), buf)
	if err != nil {
		if errors.Is(err, server.ErrUnsupportedSource) {
			h.respondError(w, http.StatusUnprocessableEntity, "Body is not a decodable image", nil)
			return
		}
		h.logger.Error().Err(err).Msg("Failed to read metadata")
		h.respondError(w, http.StatusInternalServerError, "Failed to read metadata", err)
		return
	}

	h.respondJSON(w, http.StatusOK, dto.MetadataResponse{
		Format:      string(meta.Format),
		Width:       meta.Width,
		Height:      meta.Height,
		Size:        meta.Size,
		HasAlpha:    meta.HasAlpha,
		Orientation: meta.Orientation,
	})
}

func (h *ImageHandler) OptimizeImage(w http.ResponseWriter, r *http.Request) {
	buf, ok := h.readBody(w, r)
	if !ok {
		return
	}

	opts := domain.WebOptions{
		MaxWidth:  queryInt(r, "max_width"),
		MaxHeight: queryInt(r, "max_height"),
		Quality:   queryInt(r, "quality"),
		Format:    r.URL.Query().Get("format"),
	}

	result, err := h.engine.OptimizeForWeb(r.Context(), buf, opts)
	if err != nil {
		switch {
		case errors.Is(err, server.ErrUnsupportedSource):
			h.respondError(w, http.StatusUnprocessableEntity, "Body is not a decodable image", nil)
		default:
			h.logger.Error().Err(err).Msg("Failed to optimize image")
			h.respondError(w, http.StatusBadRequest, "Failed to optimize image", err)
		}
		return
	}

	w.Header().Set("Content-Type", result.Info.Format.MimeType())
	w.Header().Set("X-Original-Size", strconv.Itoa(result.OriginalSize))
	w.Header().Set("X-Compressed-Size", strconv.Itoa(result.CompressedSize))
	w.Header().Set("X-Compression-Ratio", strconv.Itoa(result.CompressionRatio))

	if _, err := w.Write(result.Buffer); err != nil {
		h.logger.Error().Err(err).Msg("Failed to stream optimized image")
	}
}

func (h *ImageHandler) ListPresets(w http.ResponseWriter, r *http.Request) {
	names := preset.Names()
	resp := dto.PresetsResponse{Presets: make([]dto.PresetInfo, 0, len(names))}

	for _, name := range names {
		p, err := preset.Get(name)
		if err != nil {
			continue
		}
		info := dto.PresetInfo{
			Name:        p.Name,
			Description: p.Description,
			MaxSizeMB:   p.Client.MaxSizeMB,
			MaxEdge:     p.Client.MaxWidthOrHeight,
			Width:       p.Server.Width,
			Height:      p.Server.Height,
			Quality:     p.Server.Quality,
			Format:      string(p.Server.Format),
			Fit:         string(p.Server.Fit),
		}
		if max, ok := preset.MaxFileSize[name]; ok {
			info.MaxFileSize = preset.FormatFileSize(max)
		}
		resp.Presets = append(resp.Presets, info)
	}

	h.respondJSON(w, http.StatusOK, resp)
}

func (h *ImageHandler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	buf, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		h.respondError(w, http.StatusRequestEntityTooLarge, "Body too large or unreadable", nil)
		return nil, false
	}
	if len(buf) == 0 {
		h.respondError(w, http.StatusBadRequest, "Body is required", nil)
		return nil, false
	}
	return buf, true
}

func queryInt(r *http.Request, key string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return v
}

func (h *ImageHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Interface("data", data).Msg("Failed to encode response")
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func (h *ImageHandler) respondError(w http.ResponseWriter, status int, message string, err error) {
	response := dto.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	}
	if err != nil {
		response.Details = err.Error()
	}
	h.respondJSON(w, status, response)
}
