package client

import (
	"fmt"
	"path/filepath"
	"strings"

	"image-compressor/internal/domain"
	"image-compressor/internal/preset"
)

// SupportedFormats lists the media types the client engine admits.
var SupportedFormats = []string{
	"image/jpeg",
	"image/jpg",
	"image/png",
	"image/webp",
	"image/bmp",
	"image/gif",
}

// allowedExtensions is enforced independently of the declared media
// type, so a spoofed Content-Type alone is not enough to get through.
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".bmp":  true,
	".gif":  true,
}

var supportedFormatSet = func() map[string]bool {
	set := make(map[string]bool, len(SupportedFormats))
	for _, f := range SupportedFormats {
		set[f] = true
	}
	return set
}()

// ValidateFile runs the admission checks in order and reports the
// first violated rule. A file must pass every check.
func (e *Engine) ValidateFile(file *domain.File) domain.FileValidation {
	if !supportedFormatSet[strings.ToLower(file.ContentType)] {
		return domain.FileValidation{
			Error: fmt.Sprintf("Unsupported file format. Supported formats: %s",
				strings.Join(SupportedFormats, ", ")),
		}
	}

	if max := preset.MaxUploadCeiling(); file.Size() > max {
		return domain.FileValidation{
			Error: fmt.Sprintf("File size too large. Maximum size: %s", preset.FormatFileSize(max)),
		}
	}

	ext := strings.ToLower(filepath.Ext(file.Name))
	if !allowedExtensions[ext] {
		exts := []string{".jpg", ".jpeg", ".png", ".webp", ".bmp", ".gif"}
		return domain.FileValidation{
			Error: fmt.Sprintf("Invalid file extension. Allowed extensions: %s",
				strings.Join(exts, ", ")),
		}
	}

	return domain.FileValidation{IsValid: true}
}

func replaceExtension(name, ext string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	return base + "." + ext
}
