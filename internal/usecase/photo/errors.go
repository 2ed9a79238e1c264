package photo

import "errors"

var (
	ErrInvalidFileFormat = errors.New("invalid file format")
	ErrFileTooLarge      = errors.New("file too large")
	ErrPhotoNotFound     = errors.New("photo not found")
	ErrVariantNotFound   = errors.New("photo variant not found")
)
