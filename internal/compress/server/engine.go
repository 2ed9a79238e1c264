// Package server transcodes raw image buffers with libvips: explicit
// options or a named preset in, a smaller buffer plus accounting out.
// The engine is stateless and safe to use concurrently for independent
// buffers; the preset catalog it reads is immutable.
package server

import (
	"context"
	"fmt"
	"sync"

	vips "github.com/davidbyttow/govips/v2/vips"
	"github.com/wb-go/wbf/zlog"

	"image-compressor/internal/domain"
	"image-compressor/internal/preset"
)

const (
	defaultQuality = 85
	webpEffort     = 6
	avifEffort     = 9
)

var startupOnce sync.Once

// Engine is the server-side compression engine. Any number of
// instances are behaviorally identical; libvips is initialized once
// per process.
type Engine struct {
	logger *zlog.Zerolog
}

func NewEngine(logger *zlog.Zerolog) *Engine {
	startupOnce.Do(func() {
		vips.LoggingSettings(nil, vips.LogLevelError)
		vips.Startup(nil)
	})
	return &Engine{logger: logger}
}

// Shutdown releases libvips resources. Call once at process exit.
func (e *Engine) Shutdown() {
	vips.Shutdown()
}

// CompressBuffer resizes and re-encodes buf according to opts. It never
// fails for a structurally valid image; an undecodable buffer yields
// ErrUnsupportedSource.
func (e *Engine) CompressBuffer(ctx context.Context, buf []byte, opts domain.ServerOptions) (*domain.ServerResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	originalSize := len(buf)

	ref, err := vips.NewImageFromBuffer(buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedSource, err)
	}
	defer ref.Close()

	if err := ref.AutoRotate(); err != nil {
		return nil, fmt.Errorf("failed to auto-rotate image: %w", err)
	}

	if err := applyResize(ref, opts); err != nil {
		return nil, fmt.Errorf("failed to resize image: %w", err)
	}

	format := opts.Format
	if format == "" {
		// Preserve the detected source format when recognized.
		switch ref.Format() {
		case vips.ImageTypeJPEG:
			format = domain.FormatJPEG
		case vips.ImageTypePNG:
			format = domain.FormatPNG
		}
	}

	quality := opts.Quality
	if quality <= 0 {
		quality = defaultQuality
	}

	data, outFormat, err := export(ref, format, quality)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	compressedSize := len(data)

	return &domain.ServerResult{
		Buffer: data,
		Info: domain.OutputInfo{
			Format: outFormat,
			Width:  ref.Width(),
			Height: ref.Height(),
			Size:   compressedSize,
		},
		OriginalSize:     originalSize,
		CompressedSize:   compressedSize,
		CompressionRatio: preset.CompressionRatio(int64(originalSize), int64(compressedSize)),
	}, nil
}

// CompressWithPreset looks the preset up and delegates to
// CompressBuffer with its server options.
func (e *Engine) CompressWithPreset(ctx context.Context, buf []byte, presetName string) (*domain.PresetResult, error) {
	p, err := preset.Get(presetName)
	if err != nil {
		return nil, err
	}

	result, err := e.CompressBuffer(ctx, buf, p.Server)
	if err != nil {
		return nil, err
	}

	return &domain.PresetResult{ServerResult: *result, Preset: p}, nil
}

// CreateVariants runs each named preset against the same source buffer
// independently. Variants are required together: any failure aborts
// the whole call and no partial map is returned.
func (e *Engine) CreateVariants(ctx context.Context, buf []byte, variants []string) (map[string]*domain.PresetResult, error) {
	results := make(map[string]*domain.PresetResult, len(variants))

	for _, name := range variants {
		result, err := e.CompressWithPreset(ctx, buf, name)
		if err != nil {
			if e.logger != nil {
				e.logger.Error().Err(err).Str("variant", name).Msg("Failed to create variant")
			}
			return nil, fmt.Errorf("failed to create variant %q: %w", name, err)
		}
		results[name] = result
	}

	return results, nil
}

// Metadata decodes buf and reports its properties.
func (e *Engine) Metadata(ctx context.Context, buf []byte) (*domain.ImageMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ref, err := vips.NewImageFromBuffer(buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedSource, err)
	}
	defer ref.Close()

	return &domain.ImageMetadata{
		Format:      formatFromVips(ref.Format()),
		Width:       ref.Width(),
		Height:      ref.Height(),
		Size:        len(buf),
		HasAlpha:    ref.HasAlpha(),
		Orientation: ref.Orientation(),
	}, nil
}

// validFormats is wider than the client allow-list because the server
// also vouches for already-transcoded results.
var validFormats = map[domain.ImageFormat]bool{
	domain.FormatJPEG: true,
	domain.FormatPNG:  true,
	domain.FormatWebP: true,
	domain.FormatAVIF: true,
	domain.FormatGIF:  true,
	domain.FormatBMP:  true,
	domain.FormatTIFF: true,
}

// ValidateImage never returns an error: decode failures are captured
// in the report.
func (e *Engine) ValidateImage(ctx context.Context, buf []byte) *domain.ValidationReport {
	meta, err := e.Metadata(ctx, buf)
	if err != nil {
		return &domain.ValidationReport{
			Size:  len(buf),
			Error: err.Error(),
		}
	}

	if !validFormats[meta.Format] {
		return &domain.ValidationReport{
			Size:  len(buf),
			Error: fmt.Sprintf("Unsupported image format: %s", meta.Format),
		}
	}

	return &domain.ValidationReport{
		IsValid: true,
		Format:  meta.Format,
		Width:   meta.Width,
		Height:  meta.Height,
		Size:    len(buf),
	}
}

// OptimizeForWeb re-encodes for web delivery. Format "auto" always
// selects webp: it compresses well and supports alpha, so no
// per-source decision tree is needed.
func (e *Engine) OptimizeForWeb(ctx context.Context, buf []byte, opts domain.WebOptions) (*domain.ServerResult, error) {
	maxWidth := opts.MaxWidth
	if maxWidth <= 0 {
		maxWidth = 1920
	}
	maxHeight := opts.MaxHeight
	if maxHeight <= 0 {
		maxHeight = 1080
	}
	quality := opts.Quality
	if quality <= 0 {
		quality = defaultQuality
	}

	format := domain.FormatWebP
	switch opts.Format {
	case "", "auto", "webp":
	case "jpeg":
		format = domain.FormatJPEG
	case "avif":
		format = domain.FormatAVIF
	default:
		return nil, fmt.Errorf("unsupported target format: %q", opts.Format)
	}

	return e.CompressBuffer(ctx, buf, domain.ServerOptions{
		Width:   maxWidth,
		Height:  maxHeight,
		Quality: quality,
		Format:  format,
		Fit:     domain.FitInside,
	})
}

// export encodes ref into the requested format. An empty format means
// the source was neither jpeg nor png, so encoding is left to the
// native path.
func export(ref *vips.ImageRef, format domain.ImageFormat, quality int) ([]byte, domain.ImageFormat, error) {
	switch format {
	case domain.FormatJPEG:
		ep := vips.NewJpegExportParams()
		ep.Quality = quality
		ep.Interlace = true
		ep.OptimizeCoding = true
		ep.TrellisQuant = true
		ep.OvershootDeringing = true
		data, _, err := ref.ExportJpeg(ep)
		return data, domain.FormatJPEG, err

	case domain.FormatPNG:
		ep := vips.NewPngExportParams()
		ep.Compression = 9
		ep.Interlace = true
		ep.Quality = quality
		data, _, err := ref.ExportPng(ep)
		return data, domain.FormatPNG, err

	case domain.FormatWebP:
		ep := vips.NewWebpExportParams()
		ep.Quality = quality
		ep.ReductionEffort = webpEffort
		data, _, err := ref.ExportWebp(ep)
		return data, domain.FormatWebP, err

	case domain.FormatAVIF:
		ep := vips.NewAvifExportParams()
		ep.Quality = quality
		ep.Effort = avifEffort
		data, _, err := ref.ExportAvif(ep)
		return data, domain.FormatAVIF, err

	default:
		data, _, err := ref.ExportNative()
		return data, formatFromVips(ref.Format()), err
	}
}

func formatFromVips(t vips.ImageType) domain.ImageFormat {
	switch t {
	case vips.ImageTypeJPEG:
		return domain.FormatJPEG
	case vips.ImageTypePNG:
		return domain.FormatPNG
	case vips.ImageTypeWEBP:
		return domain.FormatWebP
	case vips.ImageTypeAVIF:
		return domain.FormatAVIF
	case vips.ImageTypeGIF:
		return domain.FormatGIF
	case vips.ImageTypeBMP:
		return domain.FormatBMP
	case vips.ImageTypeTIFF:
		return domain.FormatTIFF
	default:
		return domain.ImageFormat(vips.ImageTypes[t])
	}
}
