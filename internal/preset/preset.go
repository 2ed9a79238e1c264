package preset

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"image-compressor/internal/domain"
)

// catalog is the process-wide set of compression intents. It is
// initialized once and never mutated, so unsynchronized concurrent
// reads are safe.
var catalog = map[string]domain.CompressionPreset{
	"avatar": {
		Name:        "Avatar",
		Description: "Small circular profile pictures",
		Client: domain.ClientOptions{
			MaxSizeMB:        0.5,
			MaxWidthOrHeight: 400,
			InitialQuality:   0.8,
		},
		Server: domain.ServerOptions{
			Width:   400,
			Height:  400,
			Quality: 85,
			Format:  domain.FormatWebP,
			Fit:     domain.FitCover,
		},
	},
	"thumbnail": {
		Name:        "Thumbnail",
		Description: "Small preview images",
		Client: domain.ClientOptions{
			MaxSizeMB:        0.3,
			MaxWidthOrHeight: 300,
			InitialQuality:   0.7,
		},
		Server: domain.ServerOptions{
			Width:   300,
			Height:  300,
			Quality: 75,
			Format:  domain.FormatWebP,
			Fit:     domain.FitCover,
		},
	},
	"standard": {
		Name:        "Standard",
		Description: "Regular images for general use",
		Client: domain.ClientOptions{
			MaxSizeMB:        1,
			MaxWidthOrHeight: 1920,
			InitialQuality:   0.85,
			PreserveMetadata: true,
		},
		Server: domain.ServerOptions{
			Width:   1920,
			Height:  1080,
			Quality: 85,
			Format:  domain.FormatWebP,
			Fit:     domain.FitInside,
		},
	},
	"highQuality": {
		Name:        "High Quality",
		Description: "High quality images with minimal compression",
		Client: domain.ClientOptions{
			MaxSizeMB:        2,
			MaxWidthOrHeight: 2560,
			InitialQuality:   0.95,
			PreserveMetadata: true,
		},
		Server: domain.ServerOptions{
			Width:   2560,
			Height:  1440,
			Quality: 95,
			Format:  domain.FormatWebP,
			Fit:     domain.FitInside,
		},
	},
	"document": {
		Name:        "Document",
		Description: "Text documents and screenshots",
		Client: domain.ClientOptions{
			MaxSizeMB:        1.5,
			MaxWidthOrHeight: 1920,
			InitialQuality:   0.9,
		},
		Server: domain.ServerOptions{
			Width:   1920,
			Height:  1080,
			Quality: 90,
			Format:  domain.FormatPNG,
			Fit:     domain.FitInside,
		},
	},
}

// MaxFileSize holds the admission ceilings per use case, in bytes.
var MaxFileSize = map[string]int64{
	"avatar":      5 << 20,
	"standard":    10 << 20,
	"document":    15 << 20,
	"highQuality": 20 << 20,
}

// MaxUploadCeiling returns the largest configured ceiling; the client
// validator uses it as the umbrella maximum for initial admission.
func MaxUploadCeiling() int64 {
	var max int64
	for _, v := range MaxFileSize {
		if v > max {
			max = v
		}
	}
	return max
}

// Get looks a preset up by its exact catalog key.
func Get(name string) (*domain.CompressionPreset, error) {
	p, ok := catalog[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrPresetNotFound, name)
	}
	return &p, nil
}

// Names returns the catalog keys in a stable order.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatFileSize renders a byte count for humans: base 1024, two
// decimal places with trailing zeros trimmed, "0 Bytes" for zero.
func FormatFileSize(bytes int64) string {
	if bytes == 0 {
		return "0 Bytes"
	}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if i >= len(sizeUnits) {
		i = len(sizeUnits) - 1
	}
	value := float64(bytes) / math.Pow(1024, float64(i))
	s := strconv.FormatFloat(value, 'f', 2, 64)
	s = strconv.FormatFloat(mustParse(s), 'f', -1, 64)
	return s + " " + sizeUnits[i]
}

func mustParse(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

// CompressionRatio is the integer percentage of bytes saved by a
// transform. A zero original yields 0 since the ratio is undefined.
// Negative values mean the transform grew the payload.
func CompressionRatio(originalSize, compressedSize int64) int {
	if originalSize == 0 {
		return 0
	}
	return int(math.Round(float64(originalSize-compressedSize) / float64(originalSize) * 100))
}
