// Package avatar renders initials tiles for accounts that have no
// photo yet.
package avatar

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"
	"unicode"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	DefaultSize = 400
	MinSize     = 64
	MaxSize     = 1024
)

// palette holds the tile background colors. The color is picked by
// hashing the name, so the same name always gets the same tile.
var palette = []color.RGBA{
	{R: 0x4C, G: 0x6E, B: 0xF5, A: 0xFF},
	{R: 0x0C, G: 0xA6, B: 0x78, A: 0xFF},
	{R: 0xE8, G: 0x59, B: 0x0C, A: 0xFF},
	{R: 0x9F, G: 0x3E, B: 0xD5, A: 0xFF},
	{R: 0xD6, G: 0x33, B: 0x6C, A: 0xFF},
	{R: 0x0E, G: 0x9F, B: 0xC8, A: 0xFF},
	{R: 0x6B, G: 0x72, B: 0x80, A: 0xFF},
}

type Renderer struct {
	font *truetype.Font
}

func NewRenderer() (*Renderer, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	return &Renderer{font: f}, nil
}

// Render draws a square png tile with the initials derived from name.
// Size is clamped to [MinSize, MaxSize]; zero means DefaultSize.
func (r *Renderer) Render(name string, size int) ([]byte, error) {
	if size == 0 {
		size = DefaultSize
	}
	if size < MinSize {
		size = MinSize
	}
	if size > MaxSize {
		size = MaxSize
	}

	initials := Initials(name)
	bg := palette[hashName(name)%uint32(len(palette))]

	tile := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(tile, tile.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	fontSize := float64(size) * 0.42

	c := freetype.NewContext()
	c.SetDPI(72)
	c.SetFont(r.font)
	c.SetFontSize(fontSize)
	c.SetClip(tile.Bounds())
	c.SetDst(tile)
	c.SetSrc(image.NewUniform(color.White))
	c.SetHinting(font.HintingFull)

	textWidth := int(float64(len(initials)) * fontSize * 0.6)
	pt := freetype.Pt((size-textWidth)/2, (size+int(fontSize*0.72))/2)
	if _, err := c.DrawString(initials, pt); err != nil {
		return nil, fmt.Errorf("failed to draw initials: %w", err)
	}

	buf := new(bytes.Buffer)
	if err := png.Encode(buf, tile); err != nil {
		return nil, fmt.Errorf("failed to encode tile: %w", err)
	}
	return buf.Bytes(), nil
}

// Initials takes the first letter of the first and last word, upper
// cased. An empty name yields "?".
func Initials(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "?"
	}

	first := []rune(fields[0])
	out := []rune{unicode.ToUpper(first[0])}
	if len(fields) > 1 {
		last := []rune(fields[len(fields)-1])
		out = append(out, unicode.ToUpper(last[0]))
	}
	return string(out)
}

// hashName accumulates unsigned so the palette index can never go
// negative, no matter how the multiply wraps.
func hashName(name string) uint32 {
	var h uint32
	for _, r := range name {
		h = h*31 + uint32(r)
	}
	return h
}
