package image

import (
	"context"

	"image-compressor/internal/domain"
)

type imageEngine interface {
	Metadata(ctx context.Context, buf []byte) (*domain.ImageMetadata, error)
	ValidateImage(ctx context.Context, buf []byte) *domain.ValidationReport
	OptimizeForWeb(ctx context.Context, buf []byte, opts domain.WebOptions) (*domain.ServerResult, error)
}
