package photo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"image-compressor/internal/domain"
	"image-compressor/internal/preset"
	repoPhoto "image-compressor/internal/repository/photo"
)

// variantPresets are generated asynchronously for every stored photo.
var variantPresets = []string{
	domain.DefaultPresetThumbnail,
	domain.DefaultPresetStandard,
}

type PhotoUsecase struct {
	repo       photoRepository
	fileRepo   fileRepository
	compressor photoCompressor
	producer   variantProducer
	logger     *zlog.Zerolog
	retries    retry.Strategy
}

func NewPhotoUsecase(repo photoRepository, fileRepo fileRepository, compressor photoCompressor, producer variantProducer, logger *zlog.Zerolog, retries retry.Strategy) *PhotoUsecase {
	return &PhotoUsecase{
		repo:       repo,
		fileRepo:   fileRepo,
		compressor: compressor,
		producer:   producer,
		logger:     logger,
		retries:    retries,
	}
}

// UploadPhoto stores a new photo for the owner, replacing the current
// one. Compression is best effort: when it fails or does not shrink
// the payload, the original bytes are stored instead and the upload
// still succeeds.
func (u *PhotoUsecase) UploadPhoto(ctx context.Context, ownerID, presetName string, file *domain.File) (*domain.Photo, error) {
	if !strings.HasPrefix(file.ContentType, "image/") {
		return nil, ErrInvalidFileFormat
	}
	if file.Size() > domain.DefaultMaxUploadSize {
		return nil, ErrFileTooLarge
	}
	if presetName == "" {
		presetName = domain.DefaultPresetAvatar
	}

	old, err := u.repo.GetCurrentByOwner(ctx, ownerID)
	if err != nil && !errors.Is(err, repoPhoto.ErrPhotoNotFound) {
		return nil, fmt.Errorf("failed to look up current photo: %w", err)
	}

	data := file.Data
	contentType := file.ContentType
	ext := extensionFor(file)
	compressed := false

	result, err := u.compressor.CompressWithPreset(ctx, file.Data, presetName)
	switch {
	case err != nil:
		u.logger.Warn().Err(err).Str("owner_id", ownerID).Str("preset", presetName).
			Msg("Compression failed, storing original")
	case int64(result.CompressedSize) >= file.Size():
		u.logger.Info().Str("owner_id", ownerID).
			Int("compressed_size", result.CompressedSize).
			Int64("original_size", file.Size()).
			Msg("Compression did not shrink payload, storing original")
	default:
		data = result.Buffer
		contentType = result.Info.Format.MimeType()
		ext = result.Info.Format.Extension()
		compressed = true
	}

	path := fmt.Sprintf("%s%s/profile_%d.%s", domain.PathPrefixUsers, ownerID, time.Now().UnixMilli(), ext)

	if err := u.fileRepo.SaveObject(ctx, path, contentType, data); err != nil {
		u.logger.Error().Err(err).Str("path", path).Msg("Failed to save photo object")
		return nil, fmt.Errorf("failed to save photo: %w", err)
	}

	if old != nil {
		if err := u.fileRepo.DeleteObject(ctx, old.Path); err != nil {
			u.logger.Warn().Err(err).Str("path", old.Path).Msg("Failed to delete previous photo object")
		}
	}

	now := time.Now()
	p := &domain.Photo{
		ID:               uuid.New().String(),
		OwnerID:          ownerID,
		Filename:         file.Name,
		Path:             path,
		MimeType:         contentType,
		OriginalSize:     file.Size(),
		StoredSize:       int64(len(data)),
		CompressionRatio: preset.CompressionRatio(file.Size(), int64(len(data))),
		Compressed:       compressed,
		Status:           domain.StatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := u.repo.Save(ctx, p); err != nil {
		if delErr := u.fileRepo.DeleteObject(ctx, path); delErr != nil {
			u.logger.Error().Err(delErr).Str("path", path).Msg("Failed to clean up photo object")
		}
		return nil, fmt.Errorf("failed to save photo metadata: %w", err)
	}

	if old != nil {
		if err := u.repo.MarkReplaced(ctx, old.ID); err != nil {
			u.logger.Warn().Err(err).Str("photo_id", old.ID).Msg("Failed to mark previous photo replaced")
		}
	}

	task := &domain.VariantTask{
		ID:      uuid.New().String(),
		PhotoID: p.ID,
		OwnerID: ownerID,
		Path:    path,
		Presets: variantPresets,
	}
	if err := u.producer.SendTask(ctx, u.retries, task); err != nil {
		// Variants can be regenerated, the upload itself stands.
		u.logger.Error().Err(err).Str("photo_id", p.ID).Msg("Failed to queue variant task")
	}

	u.logger.Info().Str("photo_id", p.ID).Str("owner_id", ownerID).
		Bool("compressed", compressed).Int("ratio", p.CompressionRatio).
		Msg("Photo uploaded")
	return p, nil
}

// GetPhoto returns the photo record and the stored bytes. An empty
// preset selects the stored photo itself, otherwise the named variant.
func (u *PhotoUsecase) GetPhoto(ctx context.Context, id, presetName string) (*domain.Photo, []byte, string, error) {
	p, err := u.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repoPhoto.ErrPhotoNotFound) {
			return nil, nil, "", ErrPhotoNotFound
		}
		return nil, nil, "", fmt.Errorf("failed to get photo: %w", err)
	}

	if presetName == "" {
		data, err := u.fileRepo.GetObject(ctx, p.Path)
		if err != nil {
			return nil, nil, "", fmt.Errorf("failed to get photo object: %w", err)
		}
		return p, data, p.MimeType, nil
	}

	v, err := u.repo.GetVariantByPreset(ctx, id, presetName)
	if err != nil {
		if errors.Is(err, repoPhoto.ErrVariantNotFound) {
			return nil, nil, "", ErrVariantNotFound
		}
		return nil, nil, "", fmt.Errorf("failed to get variant: %w", err)
	}

	data, err := u.fileRepo.GetObject(ctx, v.Path)
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to get variant object: %w", err)
	}
	return p, data, v.MimeType, nil
}

func (u *PhotoUsecase) GetVariants(ctx context.Context, photoID string) ([]domain.PhotoVariant, error) {
	if _, err := u.repo.GetByID(ctx, photoID); err != nil {
		if errors.Is(err, repoPhoto.ErrPhotoNotFound) {
			return nil, ErrPhotoNotFound
		}
		return nil, fmt.Errorf("failed to get photo: %w", err)
	}

	variants, err := u.repo.GetVariants(ctx, photoID)
	if err != nil {
		return nil, fmt.Errorf("failed to get variants: %w", err)
	}
	return variants, nil
}

// DeletePhoto removes the stored objects best effort and marks the
// record deleted. Only the record update is allowed to fail the call.
func (u *PhotoUsecase) DeletePhoto(ctx context.Context, id string) error {
	p, err := u.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repoPhoto.ErrPhotoNotFound) {
			return ErrPhotoNotFound
		}
		return fmt.Errorf("failed to get photo for deletion: %w", err)
	}

	if err := u.fileRepo.DeleteObject(ctx, p.Path); err != nil {
		u.logger.Error().Err(err).Str("path", p.Path).Msg("Failed to delete photo object")
	}

	variantPrefix := domain.PathPrefixVariants + id + "/"
	if err := u.fileRepo.DeleteObjectsWithPrefix(ctx, variantPrefix); err != nil {
		u.logger.Error().Err(err).Str("prefix", variantPrefix).Msg("Failed to delete variant objects")
	}

	if err := u.repo.DeleteVariants(ctx, id); err != nil {
		u.logger.Error().Err(err).Str("photo_id", id).Msg("Failed to delete variant records")
	}

	if err := u.repo.MarkDeleted(ctx, id); err != nil {
		return fmt.Errorf("failed to mark photo deleted: %w", err)
	}

	u.logger.Info().Str("photo_id", id).Msg("Photo deleted")
	return nil
}

func extensionFor(file *domain.File) string {
	if ext := strings.TrimPrefix(filepath.Ext(file.Name), "."); ext != "" {
		return strings.ToLower(ext)
	}
	if idx := strings.LastIndex(file.ContentType, "/"); idx >= 0 && idx+1 < len(file.ContentType) {
		ext := file.ContentType[idx+1:]
		if ext == "jpeg" {
			return "jpg"
		}
		return ext
	}
	return "bin"
}
