package client

import "errors"

var (
	ErrValidation       = errors.New("file validation failed")
	ErrUnsupportedImage = errors.New("unsupported or corrupt image")
)
