package domain

import "time"

// Photo is one stored profile photo or organization logo.
type Photo struct {
	ID               string
	OwnerID          string
	Filename         string
	Path             string
	MimeType         string
	OriginalSize     int64
	StoredSize       int64
	CompressionRatio int
	Compressed       bool
	Status           PhotoStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// PhotoVariant is one named, independently transcoded output derived
// from a stored photo.
type PhotoVariant struct {
	ID        string
	PhotoID   string
	Preset    string
	Path      string
	MimeType  string
	Width     int
	Height    int
	Size      int64
	CreatedAt time.Time
}

type PhotoStatus string

const (
	// StatusPending means the photo is stored but variants are not
	// generated yet.
	StatusPending  PhotoStatus = "pending"
	StatusReady    PhotoStatus = "ready"
	StatusFailed   PhotoStatus = "failed"
	StatusReplaced PhotoStatus = "replaced"
	StatusDeleted  PhotoStatus = "deleted"
)

type ImageFormat string

const (
	FormatJPEG ImageFormat = "jpeg"
	FormatPNG  ImageFormat = "png"
	FormatGIF  ImageFormat = "gif"
	FormatWebP ImageFormat = "webp"
	FormatAVIF ImageFormat = "avif"
	FormatBMP  ImageFormat = "bmp"
	FormatTIFF ImageFormat = "tiff"
)

// Extension returns the filename extension for the format, without dot.
func (f ImageFormat) Extension() string {
	switch f {
	case FormatJPEG, "":
		return "jpg"
	default:
		return string(f)
	}
}

// MimeType returns the media type for the format.
func (f ImageFormat) MimeType() string {
	switch f {
	case FormatJPEG, "":
		return "image/jpeg"
	default:
		return "image/" + string(f)
	}
}
