// Package client shrinks and transcodes images in the caller's own
// process before any network transfer, mirroring what a browser does
// ahead of an upload: the payload gets smaller, the caller sees
// progress, and an in-flight operation can be cancelled.
package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"sync"

	// Decoders for every format the validator admits.
	_ "image/gif"

	xdraw "golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/wb-go/wbf/zlog"

	"image-compressor/internal/domain"
	"image-compressor/internal/preset"
)

const (
	// minQuality is the floor for the adaptive quality loop.
	minQuality = 30
	// qualityStep is the decrement applied per iteration.
	qualityStep = 5
	// defaultQuality applies when no preset or override supplies one.
	defaultQuality = 0.85
	// downscaleFactor shrinks dimensions per iteration for codecs
	// without a quality knob (png).
	downscaleFactor = 0.85
	// maxDownscaleIterations bounds the png shrink loop.
	maxDownscaleIterations = 8
)

// Options configures an Engine instance.
type Options struct {
	// Preset names the catalog entry supplying defaults. An unknown
	// name silently resolves to empty options; Custom can still fully
	// configure the engine.
	Preset string
	// Custom is layered on top of the preset; non-zero fields win.
	Custom *domain.ClientOptions

	OnProgress func(percentage int)
	OnError    func(err error)
	OnSuccess  func(result *domain.CompressionResult)
}

// Engine compresses image files one at a time. A single logical
// operation is expected to be in flight per instance; Abort cancels it.
type Engine struct {
	opts   Options
	logger *zlog.Zerolog

	mu       sync.Mutex
	cancel   context.CancelFunc
	progress domain.UploadProgress
	lastErr  string
}

func NewEngine(opts Options, logger *zlog.Zerolog) *Engine {
	return &Engine{
		opts:     opts,
		logger:   logger,
		progress: domain.UploadProgress{Status: domain.ProgressIdle},
	}
}

// Progress returns a snapshot of the current operation's status.
func (e *Engine) Progress() domain.UploadProgress {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.progress
}

// Err returns the last failure message, empty when none.
func (e *Engine) Err() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// Abort cancels the in-flight compression, if any. The cancelled call
// settles with a nil result and idle progress, not an error.
func (e *Engine) Abort() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
	}
}

// Compress validates and compresses one file. Cancellation resolves to
// (nil, nil) with progress reset to idle; every other failure returns
// the error and marks the progress status as error.
func (e *Engine) Compress(ctx context.Context, file *domain.File) (*domain.CompressionResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	e.mu.Lock()
	e.cancel = cancel
	e.lastErr = ""
	e.mu.Unlock()
	defer func() {
		cancel()
		e.mu.Lock()
		e.cancel = nil
		e.mu.Unlock()
	}()

	e.setProgress(0, 100, domain.ProgressCompressing)

	result, err := e.compress(ctx, file)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			e.setProgress(0, 100, domain.ProgressIdle)
			return nil, nil
		}
		e.mu.Lock()
		e.lastErr = err.Error()
		e.mu.Unlock()
		e.setProgress(0, 100, domain.ProgressError)
		if e.opts.OnError != nil {
			e.opts.OnError(err)
		}
		return nil, err
	}

	e.setProgress(100, 100, domain.ProgressCompleted)
	if e.opts.OnSuccess != nil {
		e.opts.OnSuccess(result)
	}
	return result, nil
}

// CompressMultiple processes files strictly one at a time, reporting
// cumulative (index, total) progress before each item. A failed item
// yields a nil slot; the batch continues.
func (e *Engine) CompressMultiple(ctx context.Context, files []*domain.File) []*domain.CompressionResult {
	results := make([]*domain.CompressionResult, 0, len(files))
	for i, file := range files {
		e.setProgress(int64(i), int64(len(files)), domain.ProgressCompressing)

		result, err := e.Compress(ctx, file)
		if err != nil {
			if e.logger != nil {
				e.logger.Warn().Err(err).Str("file", file.Name).Msg("Failed to compress file in batch")
			}
			results = append(results, nil)
			continue
		}
		results = append(results, result)
	}
	if ctx.Err() == nil {
		e.setProgress(int64(len(files)), int64(len(files)), domain.ProgressCompleted)
	}
	return results
}

func (e *Engine) compress(ctx context.Context, file *domain.File) (*domain.CompressionResult, error) {
	if v := e.ValidateFile(file); !v.IsValid {
		return nil, fmt.Errorf("%w: %s", ErrValidation, v.Error)
	}

	opts := e.resolveOptions()

	img, _, err := image.Decode(bytes.NewReader(file.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	e.report(25)

	if err := checkpoint(ctx); err != nil {
		return nil, err
	}

	if opts.MaxWidthOrHeight > 0 && !opts.AlwaysKeepResolution {
		img = capLongestEdge(img, opts.MaxWidthOrHeight)
	}
	e.report(50)

	if err := checkpoint(ctx); err != nil {
		return nil, err
	}

	outFormat := outputFormat(file.ContentType)
	budget := int64(opts.MaxSizeMB * 1024 * 1024)

	var data []byte
	switch outFormat {
	case domain.FormatJPEG:
		data, err = e.encodeJPEG(ctx, img, opts.InitialQuality, budget)
	default:
		data, err = e.encodePNG(ctx, img, budget, opts.AlwaysKeepResolution)
	}
	if err != nil {
		return nil, err
	}

	originalSize := file.Size()
	compressedSize := int64(len(data))

	return &domain.CompressionResult{
		OriginalSize:     originalSize,
		CompressedSize:   compressedSize,
		CompressionRatio: preset.CompressionRatio(originalSize, compressedSize),
		File: domain.File{
			Name:        replaceExtension(file.Name, outFormat.Extension()),
			ContentType: outFormat.MimeType(),
			Data:        data,
		},
		DataURL: "data:" + outFormat.MimeType() + ";base64," + base64.StdEncoding.EncodeToString(data),
	}, nil
}

// encodeJPEG re-encodes at decreasing quality until the payload fits
// the size budget or the quality floor is reached.
func (e *Engine) encodeJPEG(ctx context.Context, img image.Image, initialQuality float64, budget int64) ([]byte, error) {
	quality := int(initialQuality * 100)
	if quality < 1 || quality > 100 {
		quality = int(defaultQuality * 100)
	}
	startQuality := quality

	for {
		if err := checkpoint(ctx); err != nil {
			return nil, err
		}

		buf := new(bytes.Buffer)
		if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("failed to encode jpeg: %w", err)
		}

		if budget <= 0 || int64(buf.Len()) <= budget || quality-qualityStep < minQuality {
			return buf.Bytes(), nil
		}
		quality -= qualityStep

		// Walk progress from 50 toward 95 as quality approaches the floor.
		span := startQuality - minQuality
		if span > 0 {
			e.report(50 + 45*(startQuality-quality)/span)
		}
	}
}

// encodePNG has no quality knob, so over-budget output is shrunk
// dimensionally instead, unless resolution must be kept.
func (e *Engine) encodePNG(ctx context.Context, img image.Image, budget int64, keepResolution bool) ([]byte, error) {
	enc := png.Encoder{CompressionLevel: png.BestCompression}

	for i := 0; ; i++ {
		if err := checkpoint(ctx); err != nil {
			return nil, err
		}

		buf := new(bytes.Buffer)
		if err := enc.Encode(buf, img); err != nil {
			return nil, fmt.Errorf("failed to encode png: %w", err)
		}

		if budget <= 0 || int64(buf.Len()) <= budget || keepResolution || i >= maxDownscaleIterations {
			return buf.Bytes(), nil
		}

		bounds := img.Bounds()
		img = resizeImage(img,
			int(float64(bounds.Dx())*downscaleFactor),
			int(float64(bounds.Dy())*downscaleFactor))
		e.report(50 + 45*(i+1)/maxDownscaleIterations)
	}
}

// resolveOptions layers the custom override on top of the preset's
// client options. An unknown preset contributes nothing.
func (e *Engine) resolveOptions() domain.ClientOptions {
	var opts domain.ClientOptions
	if p, err := preset.Get(e.opts.Preset); err == nil {
		opts = p.Client
	}
	if c := e.opts.Custom; c != nil {
		if c.MaxSizeMB > 0 {
			opts.MaxSizeMB = c.MaxSizeMB
		}
		if c.MaxWidthOrHeight > 0 {
			opts.MaxWidthOrHeight = c.MaxWidthOrHeight
		}
		if c.InitialQuality > 0 {
			opts.InitialQuality = c.InitialQuality
		}
		if c.AlwaysKeepResolution {
			opts.AlwaysKeepResolution = true
		}
		if c.PreserveMetadata {
			opts.PreserveMetadata = true
		}
	}
	if opts.InitialQuality == 0 {
		opts.InitialQuality = defaultQuality
	}
	return opts
}

func (e *Engine) report(percentage int) {
	e.setProgress(int64(percentage), 100, domain.ProgressCompressing)
}

func (e *Engine) setProgress(loaded, total int64, status domain.ProgressStatus) {
	percentage := 0
	if total > 0 {
		percentage = int(loaded * 100 / total)
	}
	e.mu.Lock()
	e.progress = domain.UploadProgress{
		Loaded:     loaded,
		Total:      total,
		Percentage: percentage,
		Status:     status,
	}
	e.mu.Unlock()

	if e.opts.OnProgress != nil {
		e.opts.OnProgress(percentage)
	}
}

func checkpoint(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// outputFormat maps the source media type to the encode target: lossy
// sources stay jpeg, everything else becomes png. There is no pure-Go
// webp encoder, so webp sources are re-encoded as jpeg.
func outputFormat(contentType string) domain.ImageFormat {
	switch contentType {
	case "image/jpeg", "image/jpg", "image/webp":
		return domain.FormatJPEG
	default:
		return domain.FormatPNG
	}
}

func capLongestEdge(img image.Image, maxEdge int) image.Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	longest := width
	if height > longest {
		longest = height
	}
	if longest <= maxEdge {
		return img
	}

	scale := float64(maxEdge) / float64(longest)
	return resizeImage(img, int(float64(width)*scale), int(float64(height)*scale))
}

func resizeImage(img image.Image, width, height int) image.Image {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Over, nil)
	return dst
}
