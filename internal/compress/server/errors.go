package server

import "errors"

var ErrUnsupportedSource = errors.New("buffer cannot be decoded as an image")
