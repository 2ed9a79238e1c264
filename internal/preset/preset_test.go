package preset

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image-compressor/internal/domain"
)

func TestGet_KnownPresets(t *testing.T) {
	for _, name := range []string{"avatar", "thumbnail", "standard", "highQuality", "document"} {
		p, err := Get(name)
		require.NoError(t, err, "preset %s", name)
		require.NotNil(t, p)
	}
}

func TestGet_Unknown(t *testing.T) {
	p, err := Get("poster")
	assert.Nil(t, p)
	assert.True(t, errors.Is(err, ErrPresetNotFound))
}

func TestGet_ReturnsCopy(t *testing.T) {
	p, err := Get("avatar")
	require.NoError(t, err)
	p.Server.Quality = 1

	again, err := Get("avatar")
	require.NoError(t, err)
	assert.Equal(t, 85, again.Server.Quality)
}

func TestPresetValues_Avatar(t *testing.T) {
	p, err := Get("avatar")
	require.NoError(t, err)

	assert.Equal(t, 0.5, p.Client.MaxSizeMB)
	assert.Equal(t, 400, p.Client.MaxWidthOrHeight)
	assert.Equal(t, 0.8, p.Client.InitialQuality)

	assert.Equal(t, 400, p.Server.Width)
	assert.Equal(t, 400, p.Server.Height)
	assert.Equal(t, 85, p.Server.Quality)
	assert.Equal(t, domain.FormatWebP, p.Server.Format)
	assert.Equal(t, domain.FitCover, p.Server.Fit)
	assert.False(t, p.Server.AllowEnlargement)
}

func TestPresetValues_Document(t *testing.T) {
	p, err := Get("document")
	require.NoError(t, err)

	assert.Equal(t, domain.FormatPNG, p.Server.Format)
	assert.Equal(t, 90, p.Server.Quality)
	assert.Equal(t, domain.FitInside, p.Server.Fit)
}

func TestPresetBounds(t *testing.T) {
	for _, name := range Names() {
		p, err := Get(name)
		require.NoError(t, err)

		assert.GreaterOrEqual(t, p.Server.Quality, 1, "%s server quality", name)
		assert.LessOrEqual(t, p.Server.Quality, 100, "%s server quality", name)
		assert.Greater(t, p.Client.InitialQuality, 0.0, "%s client quality", name)
		assert.LessOrEqual(t, p.Client.InitialQuality, 1.0, "%s client quality", name)
	}
}

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 Bytes"},
		{512, "512 Bytes"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{1048576, "1 MB"},
		{5 << 20, "5 MB"},
		{1 << 30, "1 GB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatFileSize(tt.bytes), "bytes=%d", tt.bytes)
	}
}

func TestCompressionRatio(t *testing.T) {
	tests := []struct {
		original, compressed int64
		want                 int
	}{
		{1000, 250, 75},
		{1000, 1000, 0},
		{1000, 1200, -20},
		{0, 100, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CompressionRatio(tt.original, tt.compressed),
			"original=%d compressed=%d", tt.original, tt.compressed)
	}
}

func TestMaxUploadCeiling(t *testing.T) {
	assert.Equal(t, int64(20<<20), MaxUploadCeiling())
}
