package photo

import (
	"context"

	"image-compressor/internal/domain"
)

type photoUsecase interface {
	UploadPhoto(ctx context.Context, ownerID, presetName string, file *domain.File) (*domain.Photo, error)
	GetPhoto(ctx context.Context, id, presetName string) (*domain.Photo, []byte, string, error)
	GetVariants(ctx context.Context, photoID string) ([]domain.PhotoVariant, error)
	DeletePhoto(ctx context.Context, id string) error
}
