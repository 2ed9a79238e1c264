package server

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image-compressor/internal/domain"
	"image-compressor/internal/preset"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(nil)
}

func newTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x * 7) % 256),
				G: uint8((y * 3) % 256),
				B: uint8((x*y + x) % 256),
				A: 255,
			})
		}
	}
	return img
}

func jpegBuffer(t *testing.T, width, height, quality int) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	require.NoError(t, jpeg.Encode(buf, newTestImage(width, height), &jpeg.Options{Quality: quality}))
	return buf.Bytes()
}

func pngBuffer(t *testing.T, width, height int) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, newTestImage(width, height)))
	return buf.Bytes()
}

func TestCompressWithPreset_Avatar(t *testing.T) {
	e := newTestEngine(t)

	src := jpegBuffer(t, 3000, 2000, 100)
	result, err := e.CompressWithPreset(context.Background(), src, "avatar")
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, domain.FormatWebP, result.Info.Format)
	assert.Equal(t, 400, result.Info.Width)
	assert.Equal(t, 400, result.Info.Height)
	assert.Less(t, result.CompressedSize, result.OriginalSize)
	assert.Greater(t, result.CompressionRatio, 0)
	assert.Equal(t, "Avatar", result.Preset.Name)
	assert.Equal(t, len(result.Buffer), result.Info.Size)
}

func TestCompressWithPreset_UnknownPreset(t *testing.T) {
	e := newTestEngine(t)

	result, err := e.CompressWithPreset(context.Background(), jpegBuffer(t, 100, 100, 90), "gigantic")
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, preset.ErrPresetNotFound)
}

func TestCompressBuffer_InsideFitKeepsAspect(t *testing.T) {
	e := newTestEngine(t)

	result, err := e.CompressBuffer(context.Background(), jpegBuffer(t, 4000, 2000, 95), domain.ServerOptions{
		Width:   1920,
		Height:  1080,
		Quality: 85,
		Format:  domain.FormatWebP,
		Fit:     domain.FitInside,
	})
	require.NoError(t, err)

	// 2:1 source fit into a 1920x1080 box binds on the width limit.
	assert.Equal(t, 1920, result.Info.Width)
	assert.Equal(t, 960, result.Info.Height)
}

func TestCompressBuffer_EmptyFitMeansInside(t *testing.T) {
	e := newTestEngine(t)

	result, err := e.CompressBuffer(context.Background(), jpegBuffer(t, 800, 600, 90), domain.ServerOptions{
		Width:   400,
		Height:  400,
		Quality: 85,
		Format:  domain.FormatWebP,
	})
	require.NoError(t, err)

	// No crop: the 4:3 source keeps its aspect inside the box.
	assert.Equal(t, 400, result.Info.Width)
	assert.Equal(t, 300, result.Info.Height)
}

func TestCompressBuffer_NoEnlargementByDefault(t *testing.T) {
	e := newTestEngine(t)

	result, err := e.CompressBuffer(context.Background(), jpegBuffer(t, 200, 150, 90), domain.ServerOptions{
		Width:   1920,
		Height:  1080,
		Quality: 85,
		Format:  domain.FormatWebP,
		Fit:     domain.FitInside,
	})
	require.NoError(t, err)

	assert.Equal(t, 200, result.Info.Width)
	assert.Equal(t, 150, result.Info.Height)
}

func TestCompressBuffer_AllowEnlargement(t *testing.T) {
	e := newTestEngine(t)

	result, err := e.CompressBuffer(context.Background(), jpegBuffer(t, 200, 150, 90), domain.ServerOptions{
		Width:            1920,
		Height:           1080,
		Quality:          85,
		Format:           domain.FormatWebP,
		Fit:              domain.FitInside,
		AllowEnlargement: true,
	})
	require.NoError(t, err)

	// The 4:3 source scales up until the height limit binds.
	assert.Equal(t, 1440, result.Info.Width)
	assert.Equal(t, 1080, result.Info.Height)
}

func TestCompressBuffer_FillForcesExactBox(t *testing.T) {
	e := newTestEngine(t)

	result, err := e.CompressBuffer(context.Background(), jpegBuffer(t, 800, 600, 90), domain.ServerOptions{
		Width:   300,
		Height:  100,
		Quality: 80,
		Format:  domain.FormatJPEG,
		Fit:     domain.FitFill,
	})
	require.NoError(t, err)

	assert.Equal(t, 300, result.Info.Width)
	assert.Equal(t, 100, result.Info.Height)
}

func TestCompressBuffer_ContainPadsToBox(t *testing.T) {
	e := newTestEngine(t)

	result, err := e.CompressBuffer(context.Background(), jpegBuffer(t, 800, 800, 90), domain.ServerOptions{
		Width:   400,
		Height:  200,
		Quality: 80,
		Format:  domain.FormatPNG,
		Fit:     domain.FitContain,
	})
	require.NoError(t, err)

	assert.Equal(t, 400, result.Info.Width)
	assert.Equal(t, 200, result.Info.Height)
}

func TestCompressBuffer_DefaultFormatPreservesSource(t *testing.T) {
	e := newTestEngine(t)

	fromJPEG, err := e.CompressBuffer(context.Background(), jpegBuffer(t, 500, 500, 90), domain.ServerOptions{
		Width: 200, Height: 200, Quality: 80, Fit: domain.FitCover,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.FormatJPEG, fromJPEG.Info.Format)

	fromPNG, err := e.CompressBuffer(context.Background(), pngBuffer(t, 500, 500), domain.ServerOptions{
		Width: 200, Height: 200, Quality: 80, Fit: domain.FitCover,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.FormatPNG, fromPNG.Info.Format)
}

func TestCompressBuffer_Idempotent(t *testing.T) {
	e := newTestEngine(t)
	opts := domain.ServerOptions{
		Width: 300, Height: 300, Quality: 80,
		Format: domain.FormatWebP, Fit: domain.FitCover,
	}

	src := jpegBuffer(t, 1200, 900, 95)
	first, err := e.CompressBuffer(context.Background(), src, opts)
	require.NoError(t, err)
	second, err := e.CompressBuffer(context.Background(), src, opts)
	require.NoError(t, err)

	assert.Equal(t, first.Info, second.Info)
	assert.Equal(t, first.Buffer, second.Buffer)
}

func TestCompressBuffer_UndecodableSource(t *testing.T) {
	e := newTestEngine(t)

	result, err := e.CompressBuffer(context.Background(), []byte("not an image at all"), domain.ServerOptions{
		Width: 100, Height: 100,
	})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrUnsupportedSource)
}

func TestCreateVariants(t *testing.T) {
	e := newTestEngine(t)

	src := jpegBuffer(t, 1600, 1200, 95)
	results, err := e.CreateVariants(context.Background(), src, []string{"thumbnail", "standard"})
	require.NoError(t, err)
	require.Len(t, results, 2)

	thumb := results["thumbnail"]
	require.NotNil(t, thumb)
	assert.Equal(t, 300, thumb.Info.Width)
	assert.Equal(t, 300, thumb.Info.Height)

	std := results["standard"]
	require.NotNil(t, std)
	assert.LessOrEqual(t, std.Info.Width, 1920)
	assert.LessOrEqual(t, std.Info.Height, 1080)
}

func TestCreateVariants_AllOrNothing(t *testing.T) {
	e := newTestEngine(t)

	results, err := e.CreateVariants(context.Background(), jpegBuffer(t, 800, 600, 90), []string{"thumbnail", "no-such-preset"})
	require.Error(t, err)
	assert.Nil(t, results)
	assert.ErrorIs(t, err, preset.ErrPresetNotFound)
}

func TestMetadata(t *testing.T) {
	e := newTestEngine(t)

	src := pngBuffer(t, 640, 480)
	meta, err := e.Metadata(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, domain.FormatPNG, meta.Format)
	assert.Equal(t, 640, meta.Width)
	assert.Equal(t, 480, meta.Height)
	assert.Equal(t, len(src), meta.Size)
}

func TestValidateImage(t *testing.T) {
	e := newTestEngine(t)

	report := e.ValidateImage(context.Background(), jpegBuffer(t, 320, 240, 90))
	assert.True(t, report.IsValid)
	assert.Equal(t, domain.FormatJPEG, report.Format)
	assert.Equal(t, 320, report.Width)
	assert.Equal(t, 240, report.Height)
	assert.Empty(t, report.Error)

	garbage := e.ValidateImage(context.Background(), []byte{0xde, 0xad, 0xbe, 0xef})
	assert.False(t, garbage.IsValid)
	assert.NotEmpty(t, garbage.Error)
}

func TestOptimizeForWeb_Defaults(t *testing.T) {
	e := newTestEngine(t)

	result, err := e.OptimizeForWeb(context.Background(), jpegBuffer(t, 4000, 3000, 95), domain.WebOptions{})
	require.NoError(t, err)

	assert.Equal(t, domain.FormatWebP, result.Info.Format)
	assert.LessOrEqual(t, result.Info.Width, 1920)
	assert.LessOrEqual(t, result.Info.Height, 1080)
}

func TestOptimizeForWeb_ExplicitJpeg(t *testing.T) {
	e := newTestEngine(t)

	result, err := e.OptimizeForWeb(context.Background(), pngBuffer(t, 500, 500), domain.WebOptions{
		MaxWidth: 250, MaxHeight: 250, Quality: 70, Format: "jpeg",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.FormatJPEG, result.Info.Format)
}

func TestCompressBuffer_CancelledContext(t *testing.T) {
	e := newTestEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := e.CompressBuffer(ctx, jpegBuffer(t, 100, 100, 90), domain.ServerOptions{Width: 50, Height: 50})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, context.Canceled)
}
