package preset

import "errors"

var ErrPresetNotFound = errors.New("compression preset not found")
