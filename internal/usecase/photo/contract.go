package photo

import (
	"context"

	"github.com/wb-go/wbf/retry"

	"image-compressor/internal/domain"
)

type photoRepository interface {
	Save(ctx context.Context, p *domain.Photo) error
	GetByID(ctx context.Context, id string) (*domain.Photo, error)
	GetCurrentByOwner(ctx context.Context, ownerID string) (*domain.Photo, error)
	UpdateStatus(ctx context.Context, id string, status domain.PhotoStatus) error
	MarkReplaced(ctx context.Context, id string) error
	MarkDeleted(ctx context.Context, id string) error
	GetVariants(ctx context.Context, photoID string) ([]domain.PhotoVariant, error)
	GetVariantByPreset(ctx context.Context, photoID, preset string) (*domain.PhotoVariant, error)
	DeleteVariants(ctx context.Context, photoID string) error
}

type fileRepository interface {
	SaveObject(ctx context.Context, path, contentType string, data []byte) error
	GetObject(ctx context.Context, path string) ([]byte, error)
	DeleteObject(ctx context.Context, path string) error
	DeleteObjectsWithPrefix(ctx context.Context, prefix string) error
}

type photoCompressor interface {
	CompressWithPreset(ctx context.Context, buf []byte, preset string) (*domain.PresetResult, error)
}

type variantProducer interface {
	SendTask(ctx context.Context, strategy retry.Strategy, task *domain.VariantTask) error
}
