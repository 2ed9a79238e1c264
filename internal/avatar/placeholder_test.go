package avatar

import (
	"bytes"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitials(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Ada Lovelace", "AL"},
		{"grace brewster hopper", "GH"},
		{"Plato", "P"},
		{"", "?"},
		{"   ", "?"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Initials(tt.name), "name %q", tt.name)
	}
}

func TestRender(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	data, err := r.Render("Ada Lovelace", 0)
	require.NoError(t, err)

	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, DefaultSize, cfg.Width)
	assert.Equal(t, DefaultSize, cfg.Height)
}

func TestRender_ClampsSize(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	data, err := r.Render("X", 10_000)
	require.NoError(t, err)

	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, MaxSize, cfg.Width)
}

func TestRender_AnyNameStaysInPalette(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	names := []string{
		"\U0010FFFF\U0010FFFF\U0010FFFF\U0010FFFF",
		strings.Repeat("Z", 4096),
		"Ярослава Дмитриевна",
		"山田 太郎",
	}
	for _, name := range names {
		idx := hashName(name) % uint32(len(palette))
		assert.Less(t, idx, uint32(len(palette)), "name %q", name)

		_, err := r.Render(name, MinSize)
		require.NoError(t, err, "name %q", name)
	}
}

func TestRender_Deterministic(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	first, err := r.Render("Ada Lovelace", 128)
	require.NoError(t, err)
	second, err := r.Render("Ada Lovelace", 128)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
