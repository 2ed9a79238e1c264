package dto

import "time"

type UploadResponse struct {
	ID               string    `json:"id"`
	OwnerID          string    `json:"owner_id"`
	Filename         string    `json:"filename"`
	MimeType         string    `json:"mime_type"`
	OriginalSize     int64     `json:"original_size"`
	StoredSize       int64     `json:"stored_size"`
	CompressionRatio int       `json:"compression_ratio"`
	Compressed       bool      `json:"compressed"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
}

type VariantResponse struct {
	Preset    string    `json:"preset"`
	MimeType  string    `json:"mime_type"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

type VariantsResponse struct {
	PhotoID  string            `json:"photo_id"`
	Variants []VariantResponse `json:"variants"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
