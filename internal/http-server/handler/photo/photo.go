package photo

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/wb-go/wbf/zlog"

	"image-compressor/internal/domain"
	"image-compressor/internal/http-server/handler/photo/dto"
	photo_uc "image-compressor/internal/usecase/photo"
)

const maxMemory = 32 << 20

type PhotoHandler struct {
	usecase  photoUsecase
	validate *validator.Validate
	logger   *zlog.Zerolog
}

func NewPhotoHandler(usecase photoUsecase, logger *zlog.Zerolog) *PhotoHandler {
	return &PhotoHandler{
		usecase:  usecase,
		validate: validator.New(),
		logger:   logger,
	}
}

func (h *PhotoHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, domain.DefaultMaxUploadSize+maxMemory)

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to parse multipart form")
		h.respondError(w, http.StatusBadRequest, "Invalid request format", nil)
		return
	}

	req := dto.UploadRequest{
		OwnerID: r.FormValue("owner_id"),
		Preset:  r.FormValue("preset"),
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "owner_id is required", nil)
		return
	}

	file, handler, err := r.FormFile("file")
	if err != nil {
		h.logger.Warn().Err(err).Msg("File not found in request")
		h.respondError(w, http.StatusBadRequest, "File is required", nil)
		return
	}
	defer file.Close()

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error().Err(err).Str("filename", handler.Filename).Msg("Failed to read file")
		h.respondError(w, http.StatusInternalServerError, "Failed to read file", err)
		return
	}

	p, err := h.usecase.UploadPhoto(ctx, req.OwnerID, req.Preset, &domain.File{
		Name:        handler.Filename,
		ContentType: handler.Header.Get("Content-Type"),
		Data:        fileBytes,
	})
	if err != nil {
		h.handleUploadError(w, err, handler.Filename)
		return
	}

	h.respondJSON(w, http.StatusCreated, dto.UploadResponse{
		ID:               p.ID,
		OwnerID:          p.OwnerID,
		Filename:         p.Filename,
		MimeType:         p.MimeType,
		OriginalSize:     p.OriginalSize,
		StoredSize:       p.StoredSize,
		CompressionRatio: p.CompressionRatio,
		Compressed:       p.Compressed,
		Status:           string(p.Status),
		CreatedAt:        p.CreatedAt,
	})
}

func (h *PhotoHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := chi.URLParam(r, "id")
	if id == "" {
		h.respondError(w, http.StatusBadRequest, "Photo ID is required", nil)
		return
	}
	presetName := r.URL.Query().Get("preset")

	p, data, contentType, err := h.usecase.GetPhoto(ctx, id, presetName)
	if err != nil {
		h.handleGetError(w, err, id, presetName)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", p.Filename))
	w.Header().Set("Cache-Control", "public, max-age=3600")

	if _, err := w.Write(data); err != nil {
		h.logger.Error().Err(err).Str("photo_id", id).Str("preset", presetName).Msg("Failed to stream photo")
	}
}

func (h *PhotoHandler) GetVariants(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := chi.URLParam(r, "id")
	if id == "" {
		h.respondError(w, http.StatusBadRequest, "Photo ID is required", nil)
		return
	}

	variants, err := h.usecase.GetVariants(ctx, id)
	if err != nil {
		h.handleGetError(w, err, id, "")
		return
	}

	resp := dto.VariantsResponse{
		PhotoID:  id,
		Variants: make([]dto.VariantResponse, 0, len(variants)),
	}
	for _, v := range variants {
		resp.Variants = append(resp.Variants, dto.VariantResponse{
			Preset:    v.Preset,
			MimeType:  v.MimeType,
			Width:     v.Width,
			Height:    v.Height,
			Size:      v.Size,
			CreatedAt: v.CreatedAt,
		})
	}

	h.respondJSON(w, http.StatusOK, resp)
}

func (h *PhotoHandler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := chi.URLParam(r, "id")
	if id == "" {
		h.respondError(w, http.StatusBadRequest, "Photo ID is required", nil)
		return
	}

	if err := h.usecase.DeletePhoto(ctx, id); err != nil {
		h.handleGetError(w, err, id, "")
		return
	}

	h.logger.Info().Str("photo_id", id).Msg("Photo deleted")
	w.WriteHeader(http.StatusNoContent)
}

func (h *PhotoHandler) handleUploadError(w http.ResponseWriter, err error, filename string) {
	switch {
	case errors.Is(err, photo_uc.ErrInvalidFileFormat):
		h.logger.Warn().Str("filename", filename).Msg("Invalid file format")
		h.respondError(w, http.StatusBadRequest, "File must be an image", nil)
	case errors.Is(err, photo_uc.ErrFileTooLarge):
		h.logger.Warn().Str("filename", filename).Msg("File too large")
		h.respondError(w, http.StatusRequestEntityTooLarge, "File too large", nil)
	default:
		h.logger.Error().Err(err).Str("filename", filename).Msg("Upload failed")
		h.respondError(w, http.StatusInternalServerError, "Failed to upload photo", err)
	}
}

func (h *PhotoHandler) handleGetError(w http.ResponseWriter, err error, photoID, presetName string) {
	switch {
	case errors.Is(err, photo_uc.ErrPhotoNotFound):
		h.logger.Info().Str("photo_id", photoID).Msg("Photo not found")
		h.respondError(w, http.StatusNotFound, "Photo not found", nil)
	case errors.Is(err, photo_uc.ErrVariantNotFound):
		h.logger.Info().Str("photo_id", photoID).Str("preset", presetName).Msg("Variant not found")
		h.respondError(w, http.StatusNotFound, "Variant not found", nil)
	default:
		h.logger.Error().Err(err).Str("photo_id", photoID).Msg("Request failed")
		h.respondError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func (h *PhotoHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Interface("data", data).Msg("Failed to encode response")
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func (h *PhotoHandler) respondError(w http.ResponseWriter, status int, message string, err error) {
	response := dto.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	}
	if err != nil {
		response.Details = err.Error()
	}
	h.respondJSON(w, status, response)
}
