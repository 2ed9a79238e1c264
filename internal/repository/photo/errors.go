package photo

import "errors"

var (
	ErrPhotoNotFound   = errors.New("photo not found")
	ErrVariantNotFound = errors.New("photo variant not found")
	ErrFileNotFound    = errors.New("file not found")
	ErrStorageError    = errors.New("storage error")
)
